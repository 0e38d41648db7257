package rankingfile

// File represents the top-level structure of ranking.yaml
type File struct {
	Recency       []RecencyEntry `yaml:"recency"`
	Prestige      PrestigeEntry  `yaml:"prestige"`
	VerifiedBonus *float64       `yaml:"verified_bonus,omitempty"`
	Catalog       CatalogEntry   `yaml:"catalog,omitempty"`
}

// RecencyEntry is one ordered recency rule
type RecencyEntry struct {
	Match  []string `yaml:"match"`
	Points float64  `yaml:"points"`
}

// PrestigeEntry is the prestige allowlist and its bonus
type PrestigeEntry struct {
	Points    *float64 `yaml:"points,omitempty"`
	Companies []string `yaml:"companies,omitempty"`
}

// CatalogEntry overrides the search form values (optional)
type CatalogEntry struct {
	Roles            []string `yaml:"roles,omitempty"`
	ExperienceLevels []string `yaml:"experience_levels,omitempty"`
	TimeRanges       []string `yaml:"time_ranges,omitempty"`
	Platforms        []string `yaml:"platforms,omitempty"`
}
