package crawler

import (
	"testing"

	"github.com/civimon/civimon/internal/config"
)

// TestHeuristicScore tests scoring against the default keyword categories.
func TestHeuristicScore(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(config.DefaultRelevance())

	tests := []struct {
		name   string
		signal string
		want   int
	}{
		{
			name:   "neutral text",
			signal: "Velkommen til kommunen",
			want:   0,
		},
		{
			name:   "theme only",
			signal: "Frivillig arbeid",
			want:   2,
		},
		{
			name:   "theme, governance, and collaboration",
			signal: "Kommunen vedtar frivillighetsstrategi med mål og tiltak for samarbeid med frivillig sektor",
			want:   6,
		},
		{
			name:   "negative terms outweigh weak match",
			signal: "Møtereferat og protokoll for utvalssak",
			want:   -3,
		},
		{
			name:   "case-insensitive matching",
			signal: "FRIVILLIGHET OG SAMARBEID",
			want:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := h.Score(tt.signal); got != tt.want {
				t.Errorf("Score(%q) = %d, want %d", tt.signal, got, tt.want)
			}
		})
	}
}

// TestHeuristicMonotonicity tests that positive keywords never lower the
// score and negative keywords never raise it.
func TestHeuristicMonotonicity(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(config.DefaultRelevance())
	base := "Velkommen til kommunen"
	baseScore := h.Score(base)

	for _, kw := range []string{"frivillig", "strategi", "samarbeid"} {
		if got := h.Score(base + " " + kw); got < baseScore {
			t.Errorf("adding %q lowered score: %d < %d", kw, got, baseScore)
		}
	}
	if got := h.Score(base + " protokoll"); got > baseScore {
		t.Errorf("adding negative keyword raised score: %d > %d", got, baseScore)
	}
}

// TestHeuristicThresholds tests the two gates and their consistency.
func TestHeuristicThresholds(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(config.DefaultRelevance())

	strong := "Kommunen vedtar frivillighetsstrategi med mål og tiltak for samarbeid med frivillig sektor"
	if !h.LLMCandidate(strong) {
		t.Errorf("expected LLM candidate, score %d", h.Score(strong))
	}
	if !h.CrawlRelevant(strong) {
		t.Error("every LLM candidate must be crawl-relevant")
	}

	weak := "Møtereferat og protokoll for utvalssak"
	if h.CrawlRelevant(weak) {
		t.Errorf("expected not crawl-relevant, score %d", h.Score(weak))
	}

	midway := "Frivillig innsats"
	if !h.CrawlRelevant(midway) {
		t.Errorf("expected crawl-relevant, score %d", h.Score(midway))
	}
	if h.LLMCandidate(midway) {
		t.Errorf("expected below LLM threshold, score %d", h.Score(midway))
	}
}

// TestHeuristicCustomWeights tests that tuned configuration is honored.
func TestHeuristicCustomWeights(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(config.Relevance{
		ThemeTerms:     []string{"volunteer"},
		NegativeTerms:  []string{"minutes"},
		ThemeWeight:    5,
		NegativeWeight: -1,
		CrawlThreshold: 4,
		LLMThreshold:   4,
	})

	if got := h.Score("volunteer minutes"); got != 4 {
		t.Errorf("Score = %d, want 4", got)
	}
	if !h.CrawlRelevant("volunteer minutes") {
		t.Error("expected crawl-relevant under custom threshold")
	}
}
