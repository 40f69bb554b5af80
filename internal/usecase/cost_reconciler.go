package usecase

import (
	"math"
	"strings"

	"github.com/kpcalc/backend/internal/domain"
)

// ratioEpsilon is how close to 1 a ratio must be to skip rescaling
const ratioEpsilon = 0.001

// CostAdjustment is the outcome of rescaling a catalog price to a requested unit
type CostAdjustment struct {
	Cost       float64
	Rescaled   bool
	Diagnostic *domain.Diagnostic
}

// ReconcileCost rescales a catalog price quoted per source packaging to the requested unit.
// Pieces, unknown units and packaging without a size are never rescaled. A mass/volume
// conflict leaves the price untouched and returns a PackagingMismatch diagnostic.
func ReconcileCost(cost float64, source domain.PackagingSpec, sourceLabel, unit string) CostAdjustment {
	unchanged := CostAdjustment{Cost: cost}
	if source.IsEmpty() || strings.TrimSpace(unit) == "" {
		return unchanged
	}

	base, ok := UnitToBase(unit)
	if !ok {
		return unchanged
	}

	ratio, ok := unitRatio(base, source)
	if !ok {
		if dim := packagingDimension(source); dim != domain.DimensionNone && dim != base.Dimension {
			d := domain.NewDiagnostic(domain.DiagCostDimensionConflict, domain.DiagnosticPayload{
				SourcePackaging: sourceLabel,
				Unit:            unit,
			})
			unchanged.Diagnostic = &d
		}
		return unchanged
	}

	if math.Abs(ratio-1) < ratioEpsilon {
		return unchanged
	}

	adjusted := roundTo2(cost * ratio)
	d := domain.NewDiagnostic(domain.DiagCostRescaled, domain.DiagnosticPayload{
		FromPrice:       cost,
		ToPrice:         adjusted,
		Ratio:           ratio,
		SourcePackaging: sourceLabel,
		Unit:            unit,
	})
	return CostAdjustment{Cost: adjusted, Rescaled: true, Diagnostic: &d}
}

// unitRatio returns requested_base / packaging_base when both share the dimension
func unitRatio(base domain.BaseUnit, source domain.PackagingSpec) (float64, bool) {
	switch base.Dimension {
	case domain.DimensionMass:
		if source.WeightG != nil && *source.WeightG > 0 {
			return base.Amount / *source.WeightG, true
		}
	case domain.DimensionVolume:
		if source.VolumeML != nil && *source.VolumeML > 0 {
			return base.Amount / *source.VolumeML, true
		}
	}
	return 0, false
}

func packagingDimension(spec domain.PackagingSpec) domain.Dimension {
	switch {
	case spec.WeightG != nil:
		return domain.DimensionMass
	case spec.VolumeML != nil:
		return domain.DimensionVolume
	default:
		return domain.DimensionNone
	}
}
