package domain

import "time"

// CatalogRecord is one product of the internal cost list
type CatalogRecord struct {
	Name      string  `json:"name" yaml:"name" validate:"required"`
	UnitCost  float64 `json:"unitCost" yaml:"unitCost" validate:"gte=0"`
	Packaging string  `json:"packaging,omitempty" yaml:"packaging,omitempty"`
}

// CompetitorRecord is one line of a rival's proposal
type CompetitorRecord struct {
	Name       string  `json:"name" yaml:"name" validate:"required"`
	Quantity   float64 `json:"quantity" yaml:"quantity" validate:"gte=0"`
	Unit       string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	UnitPrice  float64 `json:"unitPrice" yaml:"unitPrice" validate:"gte=0"`
	Total      float64 `json:"total,omitempty" yaml:"total,omitempty"`
	Confidence int     `json:"confidence" yaml:"confidence" validate:"gte=0,lte=100"`
}

// RequestLine is one requested position of the tender
type RequestLine struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Unit        string  `json:"unit" yaml:"unit"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Channel     string  `json:"channel,omitempty" yaml:"channel,omitempty"` // budget channel, e.g. "RB" or "FB"
}

// MatchProvenance records which catalog entries a line was priced from
type MatchProvenance struct {
	CostName        string `json:"costName"`
	CostScore       int    `json:"costScore"`
	CompetitorName  string `json:"competitorName"`
	CompetitorScore int    `json:"competitorScore"`
}

// MatchedLine is a request line resolved against both catalogs
type MatchedLine struct {
	Number int `json:"number"`
	RequestLine
	OriginalQuantity float64          `json:"originalQuantity"`
	Cost             float64          `json:"cost"`
	CompetitorPrice  float64          `json:"competitorPrice"`
	HasCompetitor    bool             `json:"hasCompetitor"`
	Provenance       *MatchProvenance `json:"provenance,omitempty"`
	Diagnostics      []Diagnostic     `json:"diagnostics,omitempty"`
}

// HasDiagnostic reports whether the line carries a diagnostic with the given code
func (m MatchedLine) HasDiagnostic(code DiagnosticCode) bool {
	for _, d := range m.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

// PricedLine is a matched line with our sell price and derived figures
type PricedLine struct {
	MatchedLine
	OurPrice      float64 `json:"ourPrice"`
	Sum           float64 `json:"sum"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"marginPercent"`
}

// PricingSettings are the knobs of one pricing run
type PricingSettings struct {
	TargetDiscountPercent float64 `json:"targetDiscountPercent" yaml:"targetDiscountPercent"`
	FallbackMarkupPercent float64 `json:"fallbackMarkupPercent" yaml:"fallbackMarkupPercent"`
}

// PricingResult is the output of the pricing optimizer
type PricingResult struct {
	Lines    []PricedLine    `json:"lines"`
	Settings PricingSettings `json:"settings"`

	CompetitorTotal     float64 `json:"competitorTotal"`
	TargetTotal         float64 `json:"targetTotal"`
	OurCompetitiveTotal float64 `json:"ourCompetitiveTotal"`

	// Shortfall is the amount by which the competitive total still exceeds
	// the target after every reduction was exhausted. Zero when the target was met.
	Shortfall float64 `json:"shortfall"`
}

// HasShortfall reports whether the target discount could not be reached
func (r *PricingResult) HasShortfall() bool {
	return r != nil && r.Shortfall > 0
}

// ChannelTotals are contract figures for one budget channel
type ChannelTotals struct {
	Channel       string  `json:"channel"`
	Positions     int     `json:"positions"`
	ContractTotal float64 `json:"contractTotal"`
	CostTotal     float64 `json:"costTotal"`
	Profit        float64 `json:"profit"`
}

// EconomicsSummary is derived from a priced line set on demand and never stored
type EconomicsSummary struct {
	ContractTotal float64 `json:"contractTotal"`
	CostTotal     float64 `json:"costTotal"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"marginPercent"`

	CompetitorTotal         float64 `json:"competitorTotal"`
	OurCompetitiveTotal     float64 `json:"ourCompetitiveTotal"`
	DiscountPercent         float64 `json:"discountPercent"`
	CompetitorMargin        float64 `json:"competitorMargin"`
	CompetitorMarginPercent float64 `json:"competitorMarginPercent"`

	TotalPositions             int `json:"totalPositions"`
	PositionsWithCompetitor    int `json:"positionsWithCompetitor"`
	PositionsWithoutCompetitor int `json:"positionsWithoutCompetitor"`

	LossPositions int     `json:"lossPositions"`
	LossTotal     float64 `json:"lossTotal"`
	MedianLoss    float64 `json:"medianLoss"`

	Channels []ChannelTotals `json:"channels,omitempty"`
}

// LineEconomics is the per-line breakdown used by export collaborators
type LineEconomics struct {
	Number          int     `json:"number"`
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Quantity        float64 `json:"quantity"`
	Cost            float64 `json:"cost"`
	OurPrice        float64 `json:"ourPrice"`
	CompetitorPrice float64 `json:"competitorPrice"`
	Sum             float64 `json:"sum"`
	CompetitorSum   float64 `json:"competitorSum"`
	Margin          float64 `json:"margin"`
	MarginPercent   float64 `json:"marginPercent"`
	Profit          float64 `json:"profit"`
	DiscountPercent float64 `json:"discountPercent"`
}

// LineEdit is a manual change to one priced line. Nil fields are left untouched.
type LineEdit struct {
	Index           int      `json:"index"`
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Unit            *string  `json:"unit,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
	CompetitorPrice *float64 `json:"competitorPrice,omitempty"`
	OurPrice        *float64 `json:"ourPrice,omitempty"`
}

// Workspace is the saved state of one proposal between sessions
type Workspace struct {
	ID        string          `json:"id"`
	Settings  PricingSettings `json:"settings"`
	Lines     []PricedLine    `json:"lines"`
	Shortfall float64         `json:"shortfall"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
