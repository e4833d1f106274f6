package crawler

import (
	"strings"

	"github.com/civimon/civimon/internal/config"
)

// Heuristic scores a signal string (URL plus anchor text, or URL plus
// leading page text) against four weighted keyword categories. The score
// gates two decisions: whether a link is worth following and whether a
// document is worth sending to the classification service.
type Heuristic struct {
	rel config.Relevance
}

// NewHeuristic creates a Heuristic from the configured keyword sets,
// weights, and thresholds.
func NewHeuristic(rel config.Relevance) *Heuristic {
	return &Heuristic{rel: rel}
}

// Score returns the weighted relevance score of signal. Each category
// contributes its weight at most once, regardless of how many of its terms
// match. The sum is not clipped and can be negative.
func (h *Heuristic) Score(signal string) int {
	s := strings.ToLower(signal)

	score := 0
	if matchesAny(s, h.rel.ThemeTerms) {
		score += h.rel.ThemeWeight
	}
	if matchesAny(s, h.rel.GovernanceTerms) {
		score += h.rel.GovernanceWeight
	}
	if matchesAny(s, h.rel.CollaborationTerms) {
		score += h.rel.CollaborationWeight
	}
	if matchesAny(s, h.rel.NegativeTerms) {
		score += h.rel.NegativeWeight
	}
	return score
}

// CrawlRelevant reports whether signal clears the traversal threshold:
// the link is followed, or the page becomes a document candidate.
func (h *Heuristic) CrawlRelevant(signal string) bool {
	return h.Score(signal) >= h.rel.CrawlThreshold
}

// LLMCandidate reports whether signal clears the classification threshold.
// The thresholds are validated so every LLM candidate is also
// crawl-relevant.
func (h *Heuristic) LLMCandidate(signal string) bool {
	return h.Score(signal) >= h.rel.LLMThreshold
}

// matchesAny reports whether any term occurs as a substring of the
// lowercased signal.
func matchesAny(signal string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(signal, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
