package rankingfile

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// Mapper converts a ranking file to domain values.
// Sections left out of the file fall back to the built-in defaults.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapTable converts the ranking sections to a domain.RankingTable
func (m *Mapper) MapTable(file *File) (*domain.RankingTable, error) {
	table := domain.DefaultRankingTable()
	if file == nil {
		return table, nil
	}

	if len(file.Recency) > 0 {
		rules := make([]domain.RecencyRule, 0, len(file.Recency))
		for i, entry := range file.Recency {
			match := cleanList(entry.Match, true)
			if len(match) == 0 {
				return nil, fmt.Errorf("recency rule %d has no match fragments", i)
			}
			if entry.Points < 0 {
				return nil, fmt.Errorf("recency rule %d has negative points", i)
			}
			rules = append(rules, domain.RecencyRule{Match: match, Points: entry.Points})
		}
		table.Recency = rules
	}

	if file.Prestige.Points != nil {
		if *file.Prestige.Points < 0 {
			return nil, fmt.Errorf("prestige points must be >= 0")
		}
		table.PrestigePoints = *file.Prestige.Points
	}
	if companies := cleanList(file.Prestige.Companies, true); len(companies) > 0 {
		table.PrestigeCompanies = companies
	}

	if file.VerifiedBonus != nil {
		if *file.VerifiedBonus < 0 {
			return nil, fmt.Errorf("verified_bonus must be >= 0")
		}
		table.VerifiedBonus = *file.VerifiedBonus
	}

	return table, nil
}

// MapCatalog converts the optional catalog section to a domain.Catalog
func (m *Mapper) MapCatalog(file *File) *domain.Catalog {
	catalog := domain.DefaultCatalog()
	if file == nil {
		return catalog
	}

	if v := cleanList(file.Catalog.Roles, false); len(v) > 0 {
		catalog.Roles = v
	}
	if v := cleanList(file.Catalog.ExperienceLevels, false); len(v) > 0 {
		catalog.ExperienceLevels = v
	}
	if v := cleanList(file.Catalog.TimeRanges, false); len(v) > 0 {
		catalog.TimeRanges = v
	}
	if v := cleanList(file.Catalog.Platforms, false); len(v) > 0 {
		catalog.Platforms = v
	}

	return catalog
}

// cleanList trims entries, drops empties and optionally lower-cases
func cleanList(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}
