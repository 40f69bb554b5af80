package usecase

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kpcalc/backend/internal/domain"
)

// Pricing defaults
const (
	DefaultTargetDiscountPercent = 0.1
	DefaultFallbackMarkupPercent = 30.0
)

const (
	undercutStep = 0.01 // our price sits one cent below the competitor
	// redistribution stops once the remaining delta is within a cent
	convergenceTolerance = 0.01
	// residual above this after the greedy pass triggers the correction pass and, if it survives, a shortfall
	correctionThreshold = 0.5
)

// DefaultPricingSettings returns the contractual defaults
func DefaultPricingSettings() domain.PricingSettings {
	return domain.PricingSettings{
		TargetDiscountPercent: DefaultTargetDiscountPercent,
		FallbackMarkupPercent: DefaultFallbackMarkupPercent,
	}
}

// PricingConfig holds configuration for the pricing optimizer
type PricingConfig struct {
	Logger   *zap.Logger
	Observer domain.PipelineObserver
}

// PricingOptimizer computes sell prices that undercut the competitor on every
// shared line and hit the aggregate discount target with the least margin given up
type PricingOptimizer struct {
	logger   *zap.Logger
	observer domain.PipelineObserver
}

// NewPricingOptimizer creates a pricing optimizer
func NewPricingOptimizer(config PricingConfig) *PricingOptimizer {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingOptimizer{logger: logger, observer: config.Observer}
}

// ValidateSettings rejects settings the optimizer cannot honour
func ValidateSettings(settings domain.PricingSettings) error {
	if settings.TargetDiscountPercent < 0 || settings.TargetDiscountPercent >= 100 {
		return fmt.Errorf("%w: target discount must be in [0, 100), got %v", domain.ErrInvalidRequest, settings.TargetDiscountPercent)
	}
	if settings.FallbackMarkupPercent < 0 {
		return fmt.Errorf("%w: fallback markup must be >= 0, got %v", domain.ErrInvalidRequest, settings.FallbackMarkupPercent)
	}
	return nil
}

// marginCandidate is a competitive line that can give up price
type marginCandidate struct {
	idx       int
	marginPct float64
}

// Price computes our price for every matched line.
// The result depends only on cost, competitor price, quantity and settings, so
// pricing the matched part of its own output again yields the same prices.
func (o *PricingOptimizer) Price(matched []domain.MatchedLine, settings domain.PricingSettings) (*domain.PricingResult, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	started := time.Now()

	lines := make([]domain.PricedLine, len(matched))
	var competitive []int
	for i, m := range matched {
		lines[i] = domain.PricedLine{MatchedLine: m}
		lines[i].OurPrice = initialPrice(m, settings.FallbackMarkupPercent)
		if m.CompetitorPrice > 0 {
			competitive = append(competitive, i)
		}
	}

	result := &domain.PricingResult{Settings: settings}

	if len(competitive) > 0 {
		for _, i := range competitive {
			result.CompetitorTotal += lines[i].CompetitorPrice * lines[i].Quantity
		}
		result.TargetTotal = result.CompetitorTotal * (1 - settings.TargetDiscountPercent/100)

		// Prices only go down; a delta at or below zero means the target is already met.
		delta := competitiveTotal(lines, competitive) - result.TargetTotal
		if delta > 0 {
			left := o.redistribute(lines, competitive, delta)
			o.logger.Debug("redistribution finished",
				zap.Float64("delta", delta),
				zap.Float64("remaining", left))
		}
	}

	clampBelowCompetitor(lines, competitive)

	if len(competitive) > 0 {
		residual := competitiveTotal(lines, competitive) - result.TargetTotal
		if residual > correctionThreshold {
			o.correct(lines, competitive, residual)
		}

		result.OurCompetitiveTotal = competitiveTotal(lines, competitive)
		if residual := result.OurCompetitiveTotal - result.TargetTotal; residual > correctionThreshold {
			result.Shortfall = roundTo2(residual)
			o.logger.Warn("target discount not reached, margin headroom exhausted",
				zap.Float64("shortfall", result.Shortfall),
				zap.Float64("targetTotal", result.TargetTotal),
				zap.Float64("ourTotal", result.OurCompetitiveTotal))
		}
	}

	for i := range lines {
		RecalculateLine(&lines[i])
	}
	result.Lines = lines

	if o.observer != nil {
		o.observer.ObservePricing(result, time.Since(started))
	}

	o.logger.Info("pricing finished",
		zap.Int("lines", len(lines)),
		zap.Int("competitive", len(competitive)),
		zap.Float64("competitorTotal", result.CompetitorTotal),
		zap.Float64("targetTotal", result.TargetTotal),
		zap.Float64("ourCompetitiveTotal", result.OurCompetitiveTotal))

	return result, nil
}

// Reprice prices the matched part of already priced lines again, e.g. after a markup change
func (o *PricingOptimizer) Reprice(priced []domain.PricedLine, settings domain.PricingSettings) (*domain.PricingResult, error) {
	matched := make([]domain.MatchedLine, len(priced))
	for i, p := range priced {
		matched[i] = p.MatchedLine
	}
	return o.Price(matched, settings)
}

func initialPrice(m domain.MatchedLine, markupPercent float64) float64 {
	switch {
	case m.CompetitorPrice > 0:
		return undercut(m.CompetitorPrice)
	case m.Cost > 0:
		return roundTo2(m.Cost * (1 + markupPercent/100))
	default:
		return 0
	}
}

func undercut(competitorPrice float64) float64 {
	return max(0, roundTo2(competitorPrice-undercutStep))
}

// redistribute takes delta out of the least profitable lines first, never below cost.
// It returns what could not be absorbed.
func (o *PricingOptimizer) redistribute(lines []domain.PricedLine, competitive []int, delta float64) float64 {
	var candidates []marginCandidate
	for _, i := range competitive {
		l := lines[i]
		if l.Cost > 0 && l.Quantity > 0 && l.OurPrice > l.Cost {
			candidates = append(candidates, marginCandidate{idx: i, marginPct: (l.OurPrice - l.Cost) / l.OurPrice})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].marginPct < candidates[b].marginPct
	})

	remaining := delta
	for _, c := range candidates {
		if remaining <= convergenceTolerance {
			break
		}
		l := &lines[c.idx]
		headroom := (l.OurPrice - l.Cost) * l.Quantity
		if headroom <= 0 {
			continue
		}

		reduction := min(remaining, headroom)
		current := l.OurPrice
		newPrice := max(roundTo2(current-reduction/l.Quantity), l.Cost)
		l.OurPrice = newPrice
		remaining -= (current - newPrice) * l.Quantity
	}
	return remaining
}

// clampBelowCompetitor forces a strict undercut on every competitive line
func clampBelowCompetitor(lines []domain.PricedLine, competitive []int) {
	for _, i := range competitive {
		l := &lines[i]
		if l.OurPrice >= l.CompetitorPrice {
			l.OurPrice = undercut(l.CompetitorPrice)
		}
	}
}

// correct takes the remaining residual from the fattest margins first,
// keeping every price within [cost, competitor - 0.01]
func (o *PricingOptimizer) correct(lines []domain.PricedLine, competitive []int, residual float64) {
	var candidates []marginCandidate
	for _, i := range competitive {
		l := lines[i]
		if l.Quantity > 0 && l.OurPrice > l.Cost {
			candidates = append(candidates, marginCandidate{idx: i, marginPct: (l.OurPrice - l.Cost) / l.OurPrice})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].marginPct > candidates[b].marginPct
	})

	for _, c := range candidates {
		if residual <= convergenceTolerance {
			break
		}
		l := &lines[c.idx]
		old := l.OurPrice
		newPrice := max(roundTo2(old-residual/l.Quantity), l.Cost)
		newPrice = min(newPrice, undercut(l.CompetitorPrice), old)
		l.OurPrice = newPrice
		residual -= (old - newPrice) * l.Quantity
	}
}

func competitiveTotal(lines []domain.PricedLine, competitive []int) float64 {
	total := 0.0
	for _, i := range competitive {
		total += lines[i].OurPrice * lines[i].Quantity
	}
	return total
}

// RecalculateLine refreshes sum, margin and margin percent from price, cost and quantity.
// Negative margins are kept as they are.
func RecalculateLine(l *domain.PricedLine) {
	l.Sum = roundTo2(l.OurPrice * l.Quantity)
	l.Margin = roundTo2(l.OurPrice - l.Cost)
	if l.OurPrice != 0 {
		l.MarginPercent = roundTo1(l.Margin / l.OurPrice * 100)
	} else {
		l.MarginPercent = 0
	}
}
