package domain

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestRecencyScore(t *testing.T) {
	table := DefaultRankingTable()

	tests := []struct {
		postedAt string
		want     float64
	}{
		{"3 hours ago", 100},
		{"45 minutes ago", 100},
		{"Recently", 100},
		{"1 day ago", 80},
		{"2 days ago", 70},
		{"3 days ago", 60},
		{"1 week ago", 30},
		{"2 weeks ago", 30},
		{"30+ days ago", 0},
		{"", 0},
		// first matching rule wins: "hour" beats "1 day"
		{"1 day 2 hours ago", 100},
	}

	for _, tt := range tests {
		t.Run(tt.postedAt, func(t *testing.T) {
			got := recencyScore(table.Recency, tt.postedAt)
			if got != tt.want {
				t.Errorf("recencyScore(%q) = %v, want %v", tt.postedAt, got, tt.want)
			}
		})
	}
}

func TestPrestigeScore(t *testing.T) {
	table := DefaultRankingTable()

	tests := []struct {
		company string
		want    float64
	}{
		{"Google", 50},
		{"Goldman Sachs Group", 50},
		{"Acme", 0},
		{"Exxon", 50}, // "x" is in the allowlist
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.company, func(t *testing.T) {
			if got := prestigeScore(table, tt.company); got != tt.want {
				t.Errorf("prestigeScore(%q) = %v, want %v", tt.company, got, tt.want)
			}
		})
	}
}

func TestScore_Verified(t *testing.T) {
	p := Posting{CompanyName: "Acme", PostedAt: "1 week ago", IsVerified: true}
	if got := Score(nil, p); got != 40 {
		t.Errorf("Score() = %v, want 40", got)
	}
}

func TestRank_ScenarioA(t *testing.T) {
	postings := []Posting{
		{Title: "Engineer", CompanyName: "Acme", PostedAt: "1 hour ago"},
		{Title: "Engineer", CompanyName: "Google", PostedAt: "2 days ago"},
	}

	table := DefaultRankingTable()
	if s := Score(table, postings[0]); s != 100 {
		t.Fatalf("Acme score = %v, want 100", s)
	}
	if s := Score(table, postings[1]); s != 120 {
		t.Fatalf("Google score = %v, want 120", s)
	}

	ranked := Rank(table, postings)
	if ranked[0].CompanyName != "Google" || ranked[1].CompanyName != "Acme" {
		t.Errorf("Rank() order = [%s %s], want [Google Acme]", ranked[0].CompanyName, ranked[1].CompanyName)
	}

	// input untouched
	if postings[0].CompanyName != "Acme" {
		t.Error("Rank() mutated its input")
	}
}

func TestRank_StableOnTies(t *testing.T) {
	postings := make([]Posting, 0, 12)
	for i := 0; i < 12; i++ {
		postings = append(postings, Posting{
			Title:       fmt.Sprintf("job-%02d", i),
			CompanyName: "Acme",
			PostedAt:    "2 days ago",
		})
	}
	// one higher-scored posting in the middle
	postings[6].IsVerified = true

	ranked := Rank(DefaultRankingTable(), postings)

	if ranked[0].Title != "job-06" {
		t.Fatalf("top = %s, want job-06", ranked[0].Title)
	}
	prev := -1
	for _, p := range ranked[1:] {
		var idx int
		if _, err := fmt.Sscanf(p.Title, "job-%d", &idx); err != nil {
			t.Fatal(err)
		}
		if idx <= prev {
			t.Fatalf("tie order not preserved: %d after %d", idx, prev)
		}
		prev = idx
	}
}

func TestRank_NonIncreasingScores(t *testing.T) {
	table := DefaultRankingTable()
	posted := []string{"1 hour ago", "1 day ago", "2 days ago", "3 days ago", "1 week ago", "1 month ago", ""}
	companies := []string{"Google", "Acme", "Initech", "Nvidia", "Globex"}

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := rng.Intn(30)
		postings := make([]Posting, n)
		for i := range postings {
			postings[i] = Posting{
				Title:       fmt.Sprintf("%d-%d", round, i),
				CompanyName: companies[rng.Intn(len(companies))],
				PostedAt:    posted[rng.Intn(len(posted))],
				IsVerified:  rng.Intn(2) == 0,
			}
		}

		candidates := RankCandidates(table, postings)
		for i := 1; i < len(candidates); i++ {
			if candidates[i].TotalScore > candidates[i-1].TotalScore {
				t.Fatalf("round %d: score increased at %d (%v > %v)",
					round, i, candidates[i].TotalScore, candidates[i-1].TotalScore)
			}
		}
	}
}

func TestRank_CustomTable(t *testing.T) {
	table := &RankingTable{
		Recency:           []RecencyRule{{Match: []string{"today"}, Points: 5}},
		PrestigePoints:    1,
		PrestigeCompanies: []string{"initech"},
	}
	postings := []Posting{
		{Title: "a", CompanyName: "Initech", PostedAt: "yesterday"},
		{Title: "b", CompanyName: "Acme", PostedAt: "today"},
	}

	ranked := Rank(table, postings)
	if ranked[0].Title != "b" {
		t.Errorf("top = %s, want b", ranked[0].Title)
	}
}

func TestDedupPostings(t *testing.T) {
	postings := []Posting{
		{Title: "Go Dev", CompanyName: "Acme", ApplyLink: "https://a/1"},
		{Title: "Go Dev ", CompanyName: "Acme", ApplyLink: "https://a/1"},
		{Title: "Go Dev", CompanyName: "Acme", ApplyLink: "https://a/2"},
	}
	got := DedupPostings(postings)
	if len(got) != 2 {
		t.Fatalf("DedupPostings() kept %d, want 2", len(got))
	}
}
