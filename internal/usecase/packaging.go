package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kpcalc/backend/internal/domain"
)

// Compiled patterns for packaging extraction. Inputs are lowercased first.
// RE2 has no Unicode word boundary, so a unit must be followed by a non-letter or the end of text.
var (
	weightPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(кг|гр|г)(?:[^\p{L}\p{N}]|$)`)
	volumePattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(мл|л)(?:[^\p{L}\p{N}]|$)`)
	fatPattern    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	countPattern  = regexp.MustCompile(`(\d+)\s*шт`)
)

// Compiled patterns for name normalization
var (
	sizeTokenPattern     = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:кг|гр|г|мл|л|шт)\.?(?:[^\p{L}\p{N}]|$)`)
	percentTokenPattern  = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)
	bracketedPattern     = regexp.MustCompile(`[(\[«"“][^)\]»"”]*[)\]»"”]`)
	quotePattern         = regexp.MustCompile(`[«»"'“”„]`)
	leadingNumberPattern = regexp.MustCompile(`^\d+\s*\.?\s*`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// ExtractPackaging parses weight, volume, fat and count from free text.
// Only the first occurrence of each attribute is used. Text without tags yields an empty spec.
func ExtractPackaging(text string) domain.PackagingSpec {
	var spec domain.PackagingSpec
	if strings.TrimSpace(text) == "" {
		return spec
	}
	s := strings.ToLower(text)

	if m := weightPattern.FindStringSubmatch(s); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			if m[2] == "кг" {
				v *= 1000
			}
			spec.WeightG = &v
		}
	}

	if m := volumePattern.FindStringSubmatch(s); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			if m[2] == "л" {
				v *= 1000
			}
			spec.VolumeML = &v
		}
	}

	if m := fatPattern.FindStringSubmatch(s); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			spec.FatPct = &v
		}
	}

	if m := countPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			spec.Count = &n
		}
	}

	return spec
}

// NormalizeName produces the comparison key of a product name: lowercase, without
// packaging and percentage tokens, bracketed or quoted content, and leading numbering.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}

	s = sizeTokenPattern.ReplaceAllString(s, " ")
	s = percentTokenPattern.ReplaceAllString(s, " ")
	s = bracketedPattern.ReplaceAllString(s, " ")
	s = quotePattern.ReplaceAllString(s, "")
	s = leadingNumberPattern.ReplaceAllString(strings.TrimSpace(s), "")

	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// UnitToBase maps a requested unit of measure to grams or millilitres.
// Pieces and unknown units report false and are never rescaled.
func UnitToBase(unit string) (domain.BaseUnit, bool) {
	u := strings.TrimRight(strings.ToLower(strings.TrimSpace(unit)), ".")
	switch u {
	case "кг":
		return domain.BaseUnit{Dimension: domain.DimensionMass, Amount: 1000}, true
	case "г", "гр":
		return domain.BaseUnit{Dimension: domain.DimensionMass, Amount: 1}, true
	case "л":
		return domain.BaseUnit{Dimension: domain.DimensionVolume, Amount: 1000}, true
	case "мл":
		return domain.BaseUnit{Dimension: domain.DimensionVolume, Amount: 1}, true
	default:
		return domain.BaseUnit{}, false
	}
}

// PackagingRatio returns target/source over the first dimension both specs share,
// weight before volume. It reports false when no positive ratio exists.
func PackagingRatio(target, source domain.PackagingSpec) (float64, bool) {
	if target.WeightG != nil && source.WeightG != nil && *source.WeightG > 0 {
		return *target.WeightG / *source.WeightG, true
	}
	if target.VolumeML != nil && source.VolumeML != nil && *source.VolumeML > 0 {
		return *target.VolumeML / *source.VolumeML, true
	}
	return 0, false
}

// FormatPackaging renders a spec as compact text, e.g. "1.5кг, 3.2%"
func FormatPackaging(spec domain.PackagingSpec) string {
	var parts []string
	if spec.WeightG != nil {
		parts = append(parts, formatSize(*spec.WeightG, "кг", "г"))
	}
	if spec.VolumeML != nil {
		parts = append(parts, formatSize(*spec.VolumeML, "л", "мл"))
	}
	if spec.FatPct != nil {
		parts = append(parts, strconv.FormatFloat(*spec.FatPct, 'f', -1, 64)+"%")
	}
	if spec.Count != nil {
		parts = append(parts, strconv.Itoa(*spec.Count)+"шт")
	}
	return strings.Join(parts, ", ")
}

func formatSize(v float64, bigUnit, smallUnit string) string {
	if v >= 1000 {
		if math.Mod(v, 1000) != 0 {
			s := strconv.FormatFloat(v/1000, 'f', 1, 64)
			s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
			return s + bigUnit
		}
		return strconv.Itoa(int(v/1000)) + bigUnit
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + smallUnit
}

// parseDecimal accepts both "0.5" and "0,5"
func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// roundTo2 rounds a money amount to cents, half away from zero
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundTo1 rounds a percentage to one decimal place
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
