package domain

import "fmt"

// DiagnosticCode identifies why a line was degraded, corrected or annotated
type DiagnosticCode string

const (
	DiagQuantityCorrected           DiagnosticCode = "quantity_corrected"
	DiagQuantityNonPositive         DiagnosticCode = "quantity_non_positive"
	DiagUnnamedLine                 DiagnosticCode = "unnamed_line"
	DiagCostNotFound                DiagnosticCode = "cost_not_found"
	DiagCostBasis                   DiagnosticCode = "cost_basis"
	DiagCostRescaled                DiagnosticCode = "cost_rescaled"
	DiagCostDimensionConflict       DiagnosticCode = "cost_dimension_conflict"
	DiagCompetitorNotFound          DiagnosticCode = "competitor_not_found"
	DiagCompetitorUnreliable        DiagnosticCode = "competitor_unreliable"
	DiagCompetitorRescaled          DiagnosticCode = "competitor_rescaled"
	DiagCompetitorPackagingMismatch DiagnosticCode = "competitor_packaging_mismatch"
	DiagPriceAboveCompetitor        DiagnosticCode = "price_above_competitor"
)

// DiagnosticKind groups codes into the line-scoped error taxonomy
type DiagnosticKind string

const (
	KindMatchFailure      DiagnosticKind = "MatchFailure"
	KindPackagingMismatch DiagnosticKind = "PackagingMismatch"
	KindInvalidQuantity   DiagnosticKind = "InvalidQuantity"
	KindNote              DiagnosticKind = "Note"
)

// Severity of a diagnostic
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticPayload carries the machine-readable details of a diagnostic.
// Only the fields relevant to the code are set.
type DiagnosticPayload struct {
	OriginalQuantity  float64 `json:"originalQuantity,omitempty"`
	CorrectedQuantity float64 `json:"correctedQuantity,omitempty"`
	Candidate         string  `json:"candidate,omitempty"`
	Score             int     `json:"score,omitempty"`
	FromPrice         float64 `json:"fromPrice,omitempty"`
	ToPrice           float64 `json:"toPrice,omitempty"`
	Ratio             float64 `json:"ratio,omitempty"`
	SourcePackaging   string  `json:"sourcePackaging,omitempty"`
	TargetPackaging   string  `json:"targetPackaging,omitempty"`
	Unit              string  `json:"unit,omitempty"`
}

// Diagnostic is a structured note attached to a line
type Diagnostic struct {
	Code     DiagnosticCode    `json:"code"`
	Severity Severity          `json:"severity"`
	Payload  DiagnosticPayload `json:"payload"`
}

// NewDiagnostic builds a diagnostic with the default severity of its code
func NewDiagnostic(code DiagnosticCode, payload DiagnosticPayload) Diagnostic {
	return Diagnostic{Code: code, Severity: code.DefaultSeverity(), Payload: payload}
}

// Kind maps a code onto the error taxonomy
func (c DiagnosticCode) Kind() DiagnosticKind {
	switch c {
	case DiagCostNotFound, DiagCompetitorNotFound, DiagCompetitorUnreliable:
		return KindMatchFailure
	case DiagCostDimensionConflict, DiagCompetitorPackagingMismatch:
		return KindPackagingMismatch
	case DiagQuantityCorrected, DiagQuantityNonPositive:
		return KindInvalidQuantity
	default:
		return KindNote
	}
}

// DefaultSeverity returns how loudly a code should be shown
func (c DiagnosticCode) DefaultSeverity() Severity {
	switch c {
	case DiagCostNotFound:
		return SeverityError
	case DiagCostBasis, DiagCompetitorNotFound:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Message renders the diagnostic for people. Call it only at the presentation boundary.
func (d Diagnostic) Message() string {
	p := d.Payload
	switch d.Code {
	case DiagQuantityCorrected:
		return fmt.Sprintf("quantity corrected: %.0f -> %.0f", p.OriginalQuantity, p.CorrectedQuantity)
	case DiagQuantityNonPositive:
		return fmt.Sprintf("quantity %g is not positive, using 0", p.OriginalQuantity)
	case DiagUnnamedLine:
		return "line has no name"
	case DiagCostNotFound:
		return fmt.Sprintf("cost not found (best: %q, score %d)", p.Candidate, p.Score)
	case DiagCostBasis:
		return fmt.Sprintf("cost quoted per [%s]", p.SourcePackaging)
	case DiagCostRescaled:
		return fmt.Sprintf("%.2f per [%s] -> %.2f per [%s] (x%.3f)", p.FromPrice, p.SourcePackaging, p.ToPrice, p.Unit, p.Ratio)
	case DiagCostDimensionConflict:
		return fmt.Sprintf("packaging [%s] does not match unit [%s]", p.SourcePackaging, p.Unit)
	case DiagCompetitorNotFound:
		return fmt.Sprintf("no competitor match (best: %q, score %d)", p.Candidate, p.Score)
	case DiagCompetitorUnreliable:
		return fmt.Sprintf("competitor price %.2f for %q ignored as unreliable", p.FromPrice, p.Candidate)
	case DiagCompetitorRescaled:
		return fmt.Sprintf("competitor packaging [%s] x%.2f (%.2f -> %.2f)", p.SourcePackaging, p.Ratio, p.FromPrice, p.ToPrice)
	case DiagCompetitorPackagingMismatch:
		return fmt.Sprintf("competitor packaging differs [%s] vs [%s], price not used", p.TargetPackaging, p.SourcePackaging)
	case DiagPriceAboveCompetitor:
		return fmt.Sprintf("price %.2f is not below competitor price %.2f", p.FromPrice, p.ToPrice)
	default:
		return string(d.Code)
	}
}
