package domain

import "math"

// Tolerances used when comparing two packaging specs
const (
	SizeTolerance = 1.0 // grams or millilitres
	FatTolerance  = 0.1 // percentage points
)

// PackagingSpec holds the physical packaging attributes parsed from free text.
// A nil field means the attribute was not present in the text.
type PackagingSpec struct {
	WeightG  *float64 `json:"weightG,omitempty"`
	VolumeML *float64 `json:"volumeMl,omitempty"`
	FatPct   *float64 `json:"fatPct,omitempty"`
	Count    *int     `json:"count,omitempty"`
}

// IsEmpty reports whether no attribute was found
func (p PackagingSpec) IsEmpty() bool {
	return p.WeightG == nil && p.VolumeML == nil && p.FatPct == nil && p.Count == nil
}

// HasSize reports whether the spec carries a mass or a volume
func (p PackagingSpec) HasSize() bool {
	return p.WeightG != nil || p.VolumeML != nil
}

// Equal compares two specs field by field within tolerance.
func (p PackagingSpec) Equal(other PackagingSpec) bool {
	return floatFieldEqual(p.WeightG, other.WeightG, SizeTolerance) &&
		floatFieldEqual(p.VolumeML, other.VolumeML, SizeTolerance) &&
		floatFieldEqual(p.FatPct, other.FatPct, FatTolerance) &&
		intFieldEqual(p.Count, other.Count)
}

// CompatibleWith reports whether two products can be treated as the same pack.
// Both sides must agree on whether a size is known at all; attributes present
// on both sides must match within tolerance.
func (p PackagingSpec) CompatibleWith(other PackagingSpec) bool {
	if p.HasSize() != other.HasSize() {
		return false
	}
	if p.WeightG != nil && other.WeightG != nil && math.Abs(*p.WeightG-*other.WeightG) > SizeTolerance {
		return false
	}
	if p.VolumeML != nil && other.VolumeML != nil && math.Abs(*p.VolumeML-*other.VolumeML) > SizeTolerance {
		return false
	}
	if p.FatPct != nil && other.FatPct != nil && math.Abs(*p.FatPct-*other.FatPct) > FatTolerance {
		return false
	}
	if p.Count != nil && other.Count != nil && *p.Count != *other.Count {
		return false
	}
	return true
}

func floatFieldEqual(a, b *float64, tolerance float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) <= tolerance
}

func intFieldEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Dimension is the physical dimension a unit or packaging is measured in
type Dimension string

const (
	DimensionNone   Dimension = ""
	DimensionMass   Dimension = "mass"
	DimensionVolume Dimension = "volume"
)

// BaseUnit is a requested unit of measure expressed in grams or millilitres
type BaseUnit struct {
	Dimension Dimension
	Amount    float64
}
