package model

// Classification is the JSON object returned by the external language-model
// classifier for one document version. The crawler core treats this as an
// opaque payload: it stores the object and surfaces the summary, category,
// and the two boolean flags in reports, nothing more.
type Classification struct {
	// Category is the classifier's label for the document.
	Category string `json:"category"`

	// Confidence is the classifier's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Summary is a free-text summary, at most 1200 characters.
	Summary string `json:"summary"`

	// KeyPoints holds 3-7 bullet points.
	KeyPoints []string `json:"key_points"`

	// MentionsPlatformKSFN is true when the document mentions the
	// KS/Frivillighet Norge cooperation platform.
	MentionsPlatformKSFN bool `json:"mentions_platform_ks_fn"`

	// MentionsRasismeDiskrimineringInkludering is true when the document
	// touches on racism, discrimination, or inclusion themes.
	MentionsRasismeDiskrimineringInkludering bool `json:"mentions_rasisme_diskriminering_inkludering"`

	TargetGroups       []string `json:"target_groups"`
	Measures           []string `json:"measures"`
	NamedEntities      []string `json:"named_entities"`
	SuggestedFollowups []string `json:"suggested_followups"`
}
