package usecase

import (
	"fmt"
	"slices"

	"github.com/kpcalc/backend/internal/domain"
)

// ApplyEdits returns a copy of lines with the edits applied and totals recalculated.
// The input slice is never modified. Out-of-range indexes and negative amounts are rejected.
// A manual price that no longer undercuts the competitor is kept and flagged.
func ApplyEdits(lines []domain.PricedLine, edits []domain.LineEdit) ([]domain.PricedLine, error) {
	out := make([]domain.PricedLine, len(lines))
	copy(out, lines)
	for i := range out {
		out[i].Diagnostics = slices.DeleteFunc(slices.Clone(out[i].Diagnostics), func(d domain.Diagnostic) bool {
			return d.Code == domain.DiagPriceAboveCompetitor
		})
	}

	for _, e := range edits {
		if e.Index < 0 || e.Index >= len(out) {
			return nil, fmt.Errorf("%w: index %d out of range [0, %d)", domain.ErrInvalidEdit, e.Index, len(out))
		}
		l := &out[e.Index]

		if e.Name != nil {
			l.Name = *e.Name
		}
		if e.Description != nil {
			l.Description = *e.Description
		}
		if e.Unit != nil {
			l.Unit = *e.Unit
		}
		if err := setNonNegative(&l.Quantity, e.Quantity, "quantity", e.Index); err != nil {
			return nil, err
		}
		if err := setNonNegative(&l.Cost, e.Cost, "cost", e.Index); err != nil {
			return nil, err
		}
		if err := setNonNegative(&l.CompetitorPrice, e.CompetitorPrice, "competitor price", e.Index); err != nil {
			return nil, err
		}
		if err := setNonNegative(&l.OurPrice, e.OurPrice, "price", e.Index); err != nil {
			return nil, err
		}
		l.HasCompetitor = l.CompetitorPrice > 0
		if !l.HasCompetitor {
			l.Provenance = nil
		}
	}

	for i := range out {
		l := &out[i]
		RecalculateLine(l)
		if l.CompetitorPrice > 0 && l.OurPrice >= l.CompetitorPrice {
			l.Diagnostics = append(l.Diagnostics, domain.NewDiagnostic(domain.DiagPriceAboveCompetitor, domain.DiagnosticPayload{
				FromPrice: l.OurPrice,
				ToPrice:   l.CompetitorPrice,
			}))
		}
	}

	return out, nil
}

func setNonNegative(dst *float64, v *float64, field string, index int) error {
	if v == nil {
		return nil
	}
	if *v < 0 {
		return fmt.Errorf("%w: line %d %s must be >= 0, got %v", domain.ErrInvalidEdit, index, field, *v)
	}
	*dst = *v
	return nil
}
