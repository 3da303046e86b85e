package domain

// Options are the caller's enabled protections for a single evaluation.
// The engine keeps no copy between calls.
type Options struct {
	BlockInternational bool `json:"block_international"`
	BlockAuthorityList bool `json:"block_authority_list"`
	EnableAIDetection  bool `json:"enable_ai_detection"`
	ShowWarnings       bool `json:"show_warnings"`
	AutoReport         bool `json:"auto_report"`
}

// DefaultOptions returns the protections a fresh install starts with:
// everything on except anonymous auto-reporting, which needs user consent.
func DefaultOptions() Options {
	return Options{
		BlockInternational: true,
		BlockAuthorityList: true,
		EnableAIDetection:  true,
		ShowWarnings:       true,
		AutoReport:         false,
	}
}
