package resume

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSkills is the vocabulary the keyword extractor looks for.
var DefaultSkills = []string{
	"Python", "Java", "JavaScript", "TypeScript", "Golang", "Rust", "C++", "C#",
	"React", "Angular", "Vue", "Node.js", "Django", "Flask", "FastAPI", "Spring",
	"Kubernetes", "Docker", "Terraform", "AWS", "Azure", "GCP",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka",
	"TensorFlow", "PyTorch", "Machine Learning", "Deep Learning", "NLP",
	"Figma", "Excel", "Tableau", "Power BI", "Salesforce", "SEO",
}

var yearsPattern = regexp.MustCompile(`(\d{1,2})\s*\+?\s*(?:years|yrs)`)

// KeywordExtractor derives a Profile by matching the role catalog and a
// skills vocabulary against the text. It never fails.
type KeywordExtractor struct {
	roles  func() []string
	skills []string
}

// NewKeywordExtractor returns an extractor over the given role source.
// A nil skills list uses DefaultSkills.
func NewKeywordExtractor(roles func() []string, skills []string) *KeywordExtractor {
	if skills == nil {
		skills = DefaultSkills
	}
	return &KeywordExtractor{roles: roles, skills: skills}
}

func (k *KeywordExtractor) Extract(_ context.Context, text string) (Profile, error) {
	lower := strings.ToLower(text)

	var roles []string
	if k.roles != nil {
		roles = k.roles()
	}

	p := Profile{
		Role:            DefaultRole,
		ExperienceLevel: experienceLevel(lower),
		Skills:          topTerms(lower, k.skills, 3),
	}
	if best := topTerms(lower, roles, 1); len(best) == 1 {
		p.Role = best[0]
	}
	return p, nil
}

// topTerms returns up to n terms ordered by occurrence count, ties in list order.
func topTerms(lower string, terms []string, n int) []string {
	type hit struct {
		term  string
		count int
	}
	hits := make([]hit, 0, len(terms))
	for _, t := range terms {
		if c := countTerm(lower, strings.ToLower(t)); c > 0 {
			hits = append(hits, hit{term: t, count: c})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].count > hits[j].count })

	out := make([]string, 0, n)
	for i := 0; i < len(hits) && i < n; i++ {
		out = append(out, hits[i].term)
	}
	return out
}

// countTerm counts occurrences of term that are not part of a longer word.
func countTerm(s, term string) int {
	if term == "" {
		return 0
	}
	count := 0
	for i := 0; ; {
		j := strings.Index(s[i:], term)
		if j < 0 {
			return count
		}
		start := i + j
		end := start + len(term)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			count++
		}
		i = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// experienceLevel maps explicit seniority words and "N years" mentions to a catalog level.
func experienceLevel(lower string) string {
	switch {
	case countTerm(lower, "intern") > 0 || countTerm(lower, "internship") > 0:
		return "Internship"
	case countTerm(lower, "lead") > 0 || countTerm(lower, "principal") > 0:
		return "Lead"
	case countTerm(lower, "senior") > 0:
		return "Senior Level"
	}

	years := 0
	for _, m := range yearsPattern.FindAllStringSubmatch(lower, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > years {
			years = n
		}
	}
	switch {
	case years >= 6:
		return "Senior Level"
	case years >= 3:
		return "Mid Level"
	default:
		return "Entry Level"
	}
}
