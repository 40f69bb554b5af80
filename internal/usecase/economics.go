package usecase

import (
	"sort"

	"github.com/kpcalc/backend/internal/domain"
)

// Summarize derives the financial summary of a priced line set.
// Contract figures cover all lines; discount figures cover only lines with a competitor price.
func Summarize(lines []domain.PricedLine) domain.EconomicsSummary {
	var s domain.EconomicsSummary
	var competitiveCost float64
	var losses []float64
	channels := make(map[string]*domain.ChannelTotals)
	var channelOrder []string

	s.TotalPositions = len(lines)

	for _, l := range lines {
		sum := l.OurPrice * l.Quantity
		cost := l.Cost * l.Quantity
		s.ContractTotal += sum
		s.CostTotal += cost

		if l.CompetitorPrice > 0 {
			s.PositionsWithCompetitor++
			s.CompetitorTotal += l.CompetitorPrice * l.Quantity
			s.OurCompetitiveTotal += sum
			competitiveCost += cost
		}

		if margin := l.OurPrice - l.Cost; margin < 0 {
			s.LossPositions++
			losses = append(losses, margin*l.Quantity)
			s.LossTotal += margin * l.Quantity
		}

		if l.Channel != "" {
			ct, ok := channels[l.Channel]
			if !ok {
				ct = &domain.ChannelTotals{Channel: l.Channel}
				channels[l.Channel] = ct
				channelOrder = append(channelOrder, l.Channel)
			}
			ct.Positions++
			ct.ContractTotal += sum
			ct.CostTotal += cost
		}
	}

	s.PositionsWithoutCompetitor = s.TotalPositions - s.PositionsWithCompetitor
	s.Profit = s.ContractTotal - s.CostTotal
	if s.ContractTotal > 0 {
		s.MarginPercent = s.Profit / s.ContractTotal * 100
	}

	s.CompetitorMargin = s.CompetitorTotal - competitiveCost
	if s.CompetitorTotal > 0 {
		s.DiscountPercent = (s.CompetitorTotal - s.OurCompetitiveTotal) / s.CompetitorTotal * 100
		s.CompetitorMarginPercent = s.CompetitorMargin / s.CompetitorTotal * 100
	}

	s.MedianLoss = median(losses)

	for _, name := range channelOrder {
		ct := channels[name]
		ct.Profit = ct.ContractTotal - ct.CostTotal
		s.Channels = append(s.Channels, *ct)
	}

	return s
}

// Details returns the per-line economics of a priced line set
func Details(lines []domain.PricedLine) []domain.LineEconomics {
	out := make([]domain.LineEconomics, len(lines))
	for i, l := range lines {
		margin := l.OurPrice - l.Cost
		d := domain.LineEconomics{
			Number:          l.Number,
			Name:            l.Name,
			Unit:            l.Unit,
			Quantity:        l.Quantity,
			Cost:            l.Cost,
			OurPrice:        l.OurPrice,
			CompetitorPrice: l.CompetitorPrice,
			Sum:             l.OurPrice * l.Quantity,
			CompetitorSum:   l.CompetitorPrice * l.Quantity,
			Margin:          margin,
			Profit:          margin * l.Quantity,
		}
		if l.OurPrice != 0 {
			d.MarginPercent = margin / l.OurPrice * 100
		}
		if l.CompetitorPrice > 0 {
			d.DiscountPercent = (l.CompetitorPrice - l.OurPrice) / l.CompetitorPrice * 100
		}
		out[i] = d
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
