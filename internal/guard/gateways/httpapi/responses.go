package httpapi

import (
	"time"

	"github.com/haukened/callguard/internal/guard/domain"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
)

type ListedNumberResponse struct {
	Number        string `json:"number"`
	Display       string `json:"display"`
	Label         string `json:"label"`
	Source        string `json:"source"`
	International bool   `json:"international"`
	Updated       string `json:"updated"`
}

func fromListed(in []domain.ListedNumber) []ListedNumberResponse {
	out := make([]ListedNumberResponse, 0, len(in))
	for _, n := range in {
		out = append(out, ListedNumberResponse{
			Number:        n.Number,
			Display:       n.Display,
			Label:         n.Label,
			Source:        n.Source.String(),
			International: n.International,
			Updated:       n.UpdatedLabel(),
		})
	}
	return out
}

type DenylistResponse struct {
	Authority  []ListedNumberResponse `json:"authority"`
	AIDetected []ListedNumberResponse `json:"ai_detected"`
	Version    uint64                 `json:"version"`
	UpdatedAt  *time.Time             `json:"updated_at,omitempty"`
}

func fromDenylist(authority, detected []domain.ListedNumber, st denylist.Stats) DenylistResponse {
	resp := DenylistResponse{
		Authority:  fromListed(authority),
		AIDetected: fromListed(detected),
		Version:    st.Version,
	}
	if st.UpdatedUnix != 0 {
		t := time.Unix(st.UpdatedUnix, 0).UTC()
		resp.UpdatedAt = &t
	}
	return resp
}

type ReportsResponse struct {
	Count   int      `json:"count"`
	Reports []string `json:"reports"`
}

type AdvisoryResponse struct {
	Advisory string `json:"advisory"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
