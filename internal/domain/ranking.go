package domain

import (
	"sort"
	"strings"
)

const (
	// Default recency points
	ScoreRecent   = 100.0 // hours, minutes, "recently"
	ScoreOneDay   = 80.0
	ScoreTwoDay   = 70.0
	ScoreThreeDay = 60.0
	ScoreWeek     = 30.0

	// Prestige bonus for well-known employers
	ScorePrestige = 50.0

	// Bonus for verified postings
	ScoreVerified = 10.0
)

// DefaultPrestigeCompanies is the built-in allowlist of employer name fragments.
// Matching is a substring test on the lower-cased company name, so short
// fragments such as "x" are deliberately broad.
var DefaultPrestigeCompanies = []string{
	"google", "microsoft", "amazon", "meta", "facebook", "apple", "netflix",
	"uber", "airbnb", "linkedin", "adobe", "salesforce", "twitter", "x",
	"spotify", "bytedance", "tiktok", "walmart", "goldman sachs", "jpmorgan",
	"tesla", "spacex", "nvidia", "intel", "ibm",
}

// RecencyRule awards Points when posted_at contains any of Match.
type RecencyRule struct {
	Match  []string
	Points float64
}

// RankingTable holds the tunable scoring constants.
// Recency rules are evaluated in order and the first match wins.
type RankingTable struct {
	Recency           []RecencyRule
	PrestigePoints    float64
	PrestigeCompanies []string
	VerifiedBonus     float64
}

// DefaultRankingTable returns the built-in table.
func DefaultRankingTable() *RankingTable {
	companies := make([]string, len(DefaultPrestigeCompanies))
	copy(companies, DefaultPrestigeCompanies)

	return &RankingTable{
		Recency: []RecencyRule{
			{Match: []string{"hour", "minute", "recently"}, Points: ScoreRecent},
			{Match: []string{"1 day"}, Points: ScoreOneDay},
			{Match: []string{"2 day"}, Points: ScoreTwoDay},
			{Match: []string{"3 day"}, Points: ScoreThreeDay},
			{Match: []string{"week"}, Points: ScoreWeek},
		},
		PrestigePoints:    ScorePrestige,
		PrestigeCompanies: companies,
		VerifiedBonus:     ScoreVerified,
	}
}

// Candidate is a posting with its score breakdown.
type Candidate struct {
	Posting       Posting
	RecencyScore  float64
	PrestigeScore float64
	VerifiedScore float64
	TotalScore    float64
}

// Score calculates the ranking score of a posting.
func Score(table *RankingTable, p Posting) float64 {
	return score(table, p).TotalScore
}

func score(table *RankingTable, p Posting) Candidate {
	if table == nil {
		table = DefaultRankingTable()
	}

	c := Candidate{
		Posting:       p,
		RecencyScore:  recencyScore(table.Recency, p.PostedAt),
		PrestigeScore: prestigeScore(table, p.CompanyName),
	}
	if p.IsVerified {
		c.VerifiedScore = table.VerifiedBonus
	}
	c.TotalScore = c.RecencyScore + c.PrestigeScore + c.VerifiedScore
	return c
}

// recencyScore returns the points of the first rule whose fragment appears in postedAt
func recencyScore(rules []RecencyRule, postedAt string) float64 {
	posted := strings.ToLower(postedAt)
	if posted == "" {
		return 0.0
	}
	for _, rule := range rules {
		for _, frag := range rule.Match {
			if frag != "" && strings.Contains(posted, strings.ToLower(frag)) {
				return rule.Points
			}
		}
	}
	return 0.0
}

// prestigeScore awards the prestige bonus once, whatever the number of matches
func prestigeScore(table *RankingTable, company string) float64 {
	company = strings.ToLower(company)
	if company == "" {
		return 0.0
	}
	for _, frag := range table.PrestigeCompanies {
		if frag != "" && strings.Contains(company, strings.ToLower(frag)) {
			return table.PrestigePoints
		}
	}
	return 0.0
}

// RankCandidates scores every posting and sorts by total score, descending.
// Postings with equal scores keep their input order.
func RankCandidates(table *RankingTable, postings []Posting) []Candidate {
	candidates := make([]Candidate, 0, len(postings))
	for _, p := range postings {
		candidates = append(candidates, score(table, p))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalScore > candidates[j].TotalScore
	})

	return candidates
}

// Rank returns postings ordered by score. The input slice is not modified.
func Rank(table *RankingTable, postings []Posting) []Posting {
	candidates := RankCandidates(table, postings)
	ranked := make([]Posting, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.Posting
	}
	return ranked
}
