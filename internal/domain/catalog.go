package domain

import "strings"

// Catalog lists the values a search form offers.
type Catalog struct {
	Roles            []string
	ExperienceLevels []string
	TimeRanges       []string
	Platforms        []string
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Roles: []string{
			"Software Engineer", "Data Scientist", "Product Manager", "AI/ML Engineer",
			"UI/UX Designer", "DevOps Engineer", "Full Stack Developer", "Frontend Developer",
			"Backend Developer", "Business Analyst", "Marketing Manager", "Sales Executive",
		},
		ExperienceLevels: []string{
			"Internship", "Entry Level", "Mid Level", "Senior Level", "Lead", "Manager",
		},
		TimeRanges: []string{"today", "3days", "week", "month"},
		Platforms:  []string{"LinkedIn", "Indeed", "Glassdoor", "Monster", "ZipRecruiter"},
	}
}

// HasRole reports whether role is a catalog entry (case-insensitive).
func (c *Catalog) HasRole(role string) bool {
	return containsFold(c.Roles, role)
}

// CoversAllPlatforms reports whether platforms names every known platform,
// in which case no platform filter applies.
func (c *Catalog) CoversAllPlatforms(platforms []string) bool {
	if len(c.Platforms) == 0 {
		return false
	}
	for _, p := range c.Platforms {
		if !containsFold(platforms, p) {
			return false
		}
	}
	return true
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
