package config

// Relevance holds the tunable parameters of the crawl-relevance heuristic:
// four keyword categories with weights, and the two decision thresholds.
//
// Design decision: the keyword sets and thresholds live in configuration
// rather than code because their values are an editorial product decision,
// tuned against Norwegian municipal sites. Adjusting them for another
// language or domain must not require a rebuild.
type Relevance struct {
	// ThemeTerms is the civic-volunteering vocabulary, in several language
	// variants. Any match adds ThemeWeight.
	ThemeTerms []string `yaml:"themeTerms,omitempty"`

	// GovernanceTerms is the strategy/plan/policy vocabulary.
	GovernanceTerms []string `yaml:"governanceTerms,omitempty"`

	// CollaborationTerms is the municipality-civil-society partnership
	// vocabulary.
	CollaborationTerms []string `yaml:"collaborationTerms,omitempty"`

	// NegativeTerms is the routine minutes/procurement/permit vocabulary
	// that marks low-value administrative pages. Any match adds
	// NegativeWeight (a penalty).
	NegativeTerms []string `yaml:"negativeTerms,omitempty"`

	// Weights per category. Zero values fall back to the defaults
	// (+2, +2, +2, -3) when loaded through ApplyDefaults.
	ThemeWeight         int `yaml:"themeWeight,omitempty"`
	GovernanceWeight    int `yaml:"governanceWeight,omitempty"`
	CollaborationWeight int `yaml:"collaborationWeight,omitempty"`
	NegativeWeight      int `yaml:"negativeWeight,omitempty"`

	// CrawlThreshold is the minimum score for a link to be followed or a
	// page to become a document candidate.
	CrawlThreshold int `yaml:"crawlThreshold,omitempty"`

	// LLMThreshold is the minimum score for a document to be worth sending
	// to the classification service. Must be >= CrawlThreshold so that
	// every classification candidate is also crawl-relevant.
	LLMThreshold int `yaml:"llmThreshold,omitempty"`
}

// DefaultRelevance returns the keyword sets and weights tuned for Norwegian
// municipal sites (bokmål and nynorsk variants included).
func DefaultRelevance() Relevance {
	return Relevance{
		ThemeTerms: []string{
			"frivillig", "frivillighet", "frivilligheit", "frivilligsentral",
			"sivilsamfunn", "dugnad", "foreningsliv", "foreiningsliv",
			"lag og foreninger", "lag og foreininger",
		},
		GovernanceTerms: []string{
			"strategi", "plan", "politikk", "handlingsplan", "temaplan",
			"kommunedelplan", "retningslinje", "kartlegging",
		},
		CollaborationTerms: []string{
			"samarbeid", "samspill", "samskaping", "partnerskap",
			"medvirkning", "medverknad", "dialog", "tilskudd", "tilskot",
			"støtteordning",
		},
		NegativeTerms: []string{
			"møtereferat", "protokoll", "utvalssak", "utvalgssak",
			"anskaffelse", "anbud", "byggesak", "skjenkebevilling",
			"postliste",
		},
		ThemeWeight:         2,
		GovernanceWeight:    2,
		CollaborationWeight: 2,
		NegativeWeight:      -3,
		CrawlThreshold:      1,
		LLMThreshold:        3,
	}
}

// DefaultHeuristicPaths returns the fixed path suffixes seeded at depth 0
// for every jurisdiction, covering the places Norwegian municipal sites
// typically publish policy and volunteering material.
func DefaultHeuristicPaths() []string {
	return []string{
		"/politikk",
		"/politikk-og-organisasjon",
		"/moter",
		"/moter-og-saker",
		"/saker",
		"/innsyn",
		"/aktuelt",
		"/nyheter",
		"/kunngjoringer",
		"/planer",
		"/planer-og-strategier",
		"/strategi",
		"/horing",
		"/dokumenter",
		"/rad-og-utvalg",
		"/frivillighet",
		"/frivilligsentral",
		"/tilskudd",
	}
}

// ApplyDefaults fills empty keyword sets and zero weights/thresholds from
// DefaultRelevance. A config file may override only the parts it cares
// about.
func (r *Relevance) ApplyDefaults() {
	def := DefaultRelevance()
	if len(r.ThemeTerms) == 0 {
		r.ThemeTerms = def.ThemeTerms
	}
	if len(r.GovernanceTerms) == 0 {
		r.GovernanceTerms = def.GovernanceTerms
	}
	if len(r.CollaborationTerms) == 0 {
		r.CollaborationTerms = def.CollaborationTerms
	}
	if len(r.NegativeTerms) == 0 {
		r.NegativeTerms = def.NegativeTerms
	}
	if r.ThemeWeight == 0 {
		r.ThemeWeight = def.ThemeWeight
	}
	if r.GovernanceWeight == 0 {
		r.GovernanceWeight = def.GovernanceWeight
	}
	if r.CollaborationWeight == 0 {
		r.CollaborationWeight = def.CollaborationWeight
	}
	if r.NegativeWeight == 0 {
		r.NegativeWeight = def.NegativeWeight
	}
	if r.CrawlThreshold == 0 {
		r.CrawlThreshold = def.CrawlThreshold
	}
	if r.LLMThreshold == 0 {
		r.LLMThreshold = def.LLMThreshold
	}
}

// Validate checks internal consistency of the heuristic parameters.
func (r *Relevance) Validate() error {
	if r.ThemeWeight < 0 || r.GovernanceWeight < 0 || r.CollaborationWeight < 0 {
		return ErrInvalidRelevanceWeights
	}
	if r.NegativeWeight > 0 {
		return ErrInvalidRelevanceWeights
	}
	if r.LLMThreshold < r.CrawlThreshold {
		return ErrInvalidThresholds
	}
	return nil
}
