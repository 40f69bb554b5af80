package http

import (
	"github.com/kpcalc/backend/internal/domain"
)

// MatchRequest is the body of POST /api/v1/quotes/match
type MatchRequest struct {
	Request     []domain.RequestLine      `json:"request"`
	CostCatalog []domain.CatalogRecord    `json:"costCatalog"`
	Competitors []domain.CompetitorRecord `json:"competitors"`
}

// PriceRequest is the body of POST /api/v1/quotes/price
type PriceRequest struct {
	Lines    []domain.MatchedLine    `json:"lines" binding:"required"`
	Settings *domain.PricingSettings `json:"settings"`
}

// SummaryRequest is the body of POST /api/v1/quotes/summary
type SummaryRequest struct {
	Lines []domain.PricedLine `json:"lines" binding:"required"`
}

// EditsRequest is the body of POST /api/v1/quotes/edits.
// With Reprice set the edited lines are priced again from their new cost and competitor data.
type EditsRequest struct {
	Lines    []domain.PricedLine     `json:"lines" binding:"required"`
	Edits    []domain.LineEdit       `json:"edits"`
	Reprice  bool                    `json:"reprice"`
	Settings *domain.PricingSettings `json:"settings"`
}

// WorkspaceRequest is the body of PUT /api/v1/workspaces/:id and POST /api/v1/workspaces
type WorkspaceRequest struct {
	Settings  *domain.PricingSettings `json:"settings"`
	Lines     []domain.PricedLine     `json:"lines" binding:"required"`
	Shortfall float64                 `json:"shortfall"`
}

// LineView is a line with its diagnostics rendered for display
type LineView[T any] struct {
	Line  T        `json:"line"`
	Notes []string `json:"notes,omitempty"`
}

// MatchResponse is returned by the match endpoint
type MatchResponse struct {
	Lines []LineView[domain.MatchedLine] `json:"lines"`
}

// PricingResponse is returned by endpoints that produce priced lines
type PricingResponse struct {
	WorkspaceID         string                        `json:"workspaceId,omitempty"`
	Lines               []LineView[domain.PricedLine] `json:"lines"`
	Settings            domain.PricingSettings        `json:"settings"`
	CompetitorTotal     float64                       `json:"competitorTotal"`
	TargetTotal         float64                       `json:"targetTotal"`
	OurCompetitiveTotal float64                       `json:"ourCompetitiveTotal"`
	Shortfall           float64                       `json:"shortfall"`
	Summary             domain.EconomicsSummary       `json:"summary"`
	Details             []domain.LineEconomics        `json:"details,omitempty"`
}

// SummaryResponse is returned by the summary endpoint
type SummaryResponse struct {
	Summary domain.EconomicsSummary `json:"summary"`
	Details []domain.LineEconomics  `json:"details"`
}

// WorkspaceResponse is returned by the workspace endpoints
type WorkspaceResponse struct {
	Workspace *domain.Workspace       `json:"workspace"`
	Summary   domain.EconomicsSummary `json:"summary"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func notes(diags []domain.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message()
	}
	return out
}

func matchedViews(lines []domain.MatchedLine) []LineView[domain.MatchedLine] {
	out := make([]LineView[domain.MatchedLine], len(lines))
	for i, l := range lines {
		out[i] = LineView[domain.MatchedLine]{Line: l, Notes: notes(l.Diagnostics)}
	}
	return out
}

func pricedViews(lines []domain.PricedLine) []LineView[domain.PricedLine] {
	out := make([]LineView[domain.PricedLine], len(lines))
	for i, l := range lines {
		out[i] = LineView[domain.PricedLine]{Line: l, Notes: notes(l.Diagnostics)}
	}
	return out
}
