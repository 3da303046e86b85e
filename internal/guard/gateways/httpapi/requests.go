package httpapi

import (
	"github.com/haukened/callguard/internal/guard/common/utils"
	"github.com/haukened/callguard/internal/guard/domain"
)

// OptionsRequest carries per-call toggles. Omitted toggles keep their defaults.
type OptionsRequest struct {
	BlockInternational *bool `json:"block_international"`
	BlockAuthorityList *bool `json:"block_authority_list"`
	EnableAIDetection  *bool `json:"enable_ai_detection"`
	ShowWarnings       *bool `json:"show_warnings"`
	AutoReport         *bool `json:"auto_report"`
}

// EvaluateRequest is the body of POST /v1/calls/evaluate.
type EvaluateRequest struct {
	Number        string          `json:"number"`
	International *bool           `json:"international"`
	Transcript    string          `json:"transcript"`
	Options       *OptionsRequest `json:"options"`
}

// IsInternational returns the explicit flag, or infers it from a leading '+'.
func (r EvaluateRequest) IsInternational() bool {
	if r.International != nil {
		return *r.International
	}
	return utils.IsInternationalNumber(r.Number)
}

// ToOptions overlays the supplied toggles on base.
func (r EvaluateRequest) ToOptions(base domain.Options) domain.Options {
	o := r.Options
	if o == nil {
		return base
	}
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&base.BlockInternational, o.BlockInternational)
	set(&base.BlockAuthorityList, o.BlockAuthorityList)
	set(&base.EnableAIDetection, o.EnableAIDetection)
	set(&base.ShowWarnings, o.ShowWarnings)
	set(&base.AutoReport, o.AutoReport)
	return base
}
