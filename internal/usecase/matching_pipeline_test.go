package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpcalc/backend/internal/domain"
)

// recordingObserver collects pipeline observations for assertions
type recordingObserver struct {
	mu      sync.Mutex
	matches []domain.MatchedLine
	pricing []*domain.PricingResult
}

func (o *recordingObserver) ObserveMatch(line domain.MatchedLine) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.matches = append(o.matches, line)
}

func (o *recordingObserver) ObservePricing(result *domain.PricingResult, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pricing = append(o.pricing, result)
}

func TestSanitizeQuantity(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
		code     domain.DiagnosticCode
	}{
		{"plausible quantity", 500, 500, ""},
		{"thousands grouping", 1_500_000, 1_500, domain.DiagQuantityCorrected},
		{"hundreds grouping", 150_000, 1_500, domain.DiagQuantityCorrected},
		{"exactly on the lower threshold", 100_000, 100_000, ""},
		{"zero", 0, 0, ""},
		{"negative", -3, 0, domain.DiagQuantityNonPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diag := SanitizeQuantity(tt.input)
			assert.Equal(t, tt.expected, got)
			if tt.code == "" {
				assert.Nil(t, diag)
				return
			}
			require.NotNil(t, diag)
			assert.Equal(t, tt.code, diag.Code)
			assert.Equal(t, tt.input, diag.Payload.OriginalQuantity)
		})
	}
}

func TestMatchingPipeline_Match(t *testing.T) {
	ctx := context.Background()
	costCatalog := []domain.CatalogRecord{
		{Name: "Молоко 3.2% 1л", UnitCost: 66, Packaging: "1л"},
		{Name: "Творог 9% 400г", UnitCost: 70},
		{Name: "Сахар-песок", UnitCost: 50.50, Packaging: "800г"},
	}

	t.Run("resolves cost and competitor", func(t *testing.T) {
		observer := &recordingObserver{}
		p := NewMatchingPipeline(PipelineConfig{Observer: observer})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Молоко 3.2% 1л", Unit: "л", Quantity: 100}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко 3.2% 1л", UnitPrice: 80}},
		)
		require.NoError(t, err)
		require.Len(t, lines, 1)

		line := lines[0]
		assert.Equal(t, 1, line.Number)
		assert.Equal(t, 66.0, line.Cost)
		assert.Equal(t, 80.0, line.CompetitorPrice)
		assert.True(t, line.HasCompetitor)
		require.NotNil(t, line.Provenance)
		assert.Equal(t, "Молоко 3.2% 1л", line.Provenance.CostName)
		assert.Equal(t, 100, line.Provenance.CompetitorScore)
		assert.True(t, line.HasDiagnostic(domain.DiagCostBasis))
		assert.False(t, line.HasDiagnostic(domain.DiagCostRescaled))
		assert.Len(t, observer.matches, 1)
	})

	t.Run("rescales cost to the requested unit", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Сахар-песок", Unit: "кг", Quantity: 50}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Кефир 1%", UnitPrice: 60}},
		)
		require.NoError(t, err)
		assert.Equal(t, 63.13, lines[0].Cost)
		assert.True(t, lines[0].HasDiagnostic(domain.DiagCostRescaled))
		assert.True(t, lines[0].HasDiagnostic(domain.DiagCompetitorNotFound))
		assert.False(t, lines[0].HasCompetitor)
		assert.Nil(t, lines[0].Provenance)
	})

	t.Run("corrects implausible quantity", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Молоко 3.2% 1л", Unit: "л", Quantity: 1_500_000}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко 3.2% 1л", UnitPrice: 80}},
		)
		require.NoError(t, err)
		assert.Equal(t, 1500.0, lines[0].Quantity)
		assert.Equal(t, 1_500_000.0, lines[0].OriginalQuantity)
		assert.True(t, lines[0].HasDiagnostic(domain.DiagQuantityCorrected))
	})

	t.Run("rescales competitor price between pack sizes", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Творог 9% 400г", Unit: "шт", Quantity: 10}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Творог 9% 200г", UnitPrice: 50}},
		)
		require.NoError(t, err)

		line := lines[0]
		assert.Equal(t, 70.0, line.Cost)
		assert.Equal(t, 100.0, line.CompetitorPrice)
		assert.True(t, line.HasCompetitor)
		require.True(t, line.HasDiagnostic(domain.DiagCompetitorRescaled))
		for _, d := range line.Diagnostics {
			if d.Code == domain.DiagCompetitorRescaled {
				assert.Equal(t, 50.0, d.Payload.FromPrice)
				assert.Equal(t, 100.0, d.Payload.ToPrice)
			}
		}
	})

	t.Run("discards competitor price without a valid ratio", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Молоко", Unit: "л", Quantity: 5}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко 1л", UnitPrice: 80}},
		)
		require.NoError(t, err)

		line := lines[0]
		assert.Equal(t, 0.0, line.CompetitorPrice)
		assert.False(t, line.HasCompetitor)
		assert.Nil(t, line.Provenance)
		assert.True(t, line.HasDiagnostic(domain.DiagCompetitorPackagingMismatch))
	})

	t.Run("ignores unreliable competitor price", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Молоко 3.2% 1л", Unit: "л", Quantity: 1}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко 3.2% 1л", UnitPrice: 150_000}},
		)
		require.NoError(t, err)
		assert.False(t, lines[0].HasCompetitor)
		assert.True(t, lines[0].HasDiagnostic(domain.DiagCompetitorUnreliable))
	})

	t.Run("missing cost leaves zero and explains", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Гречка ядрица", Unit: "кг", Quantity: 3}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Гречка ядрица", UnitPrice: 90}},
		)
		require.NoError(t, err)
		assert.Equal(t, 0.0, lines[0].Cost)
		assert.True(t, lines[0].HasDiagnostic(domain.DiagCostNotFound))
		assert.True(t, lines[0].HasCompetitor)
	})

	t.Run("fills placeholder name and default unit", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Quantity: 1}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко 3.2% 1л", UnitPrice: 80}},
		)
		require.NoError(t, err)
		assert.Equal(t, "(line 1: unnamed)", lines[0].Name)
		assert.Equal(t, DefaultRequestUnit, lines[0].Unit)
		assert.True(t, lines[0].HasDiagnostic(domain.DiagUnnamedLine))
	})

	t.Run("drops competitors below confidence", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{MinCompetitorConfidence: 70})

		lines, err := p.Match(ctx,
			[]domain.RequestLine{{Name: "Молоко 3.2% 1л", Unit: "л", Quantity: 1}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко 3.2% 1л", UnitPrice: 80, Confidence: 40}},
		)
		require.NoError(t, err)
		assert.False(t, lines[0].HasCompetitor)
		assert.True(t, lines[0].HasDiagnostic(domain.DiagCompetitorNotFound))
	})

	t.Run("rejects empty inputs", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})
		request := []domain.RequestLine{{Name: "Молоко", Quantity: 1}}
		competitors := []domain.CompetitorRecord{{Name: "Молоко", UnitPrice: 1}}

		_, err := p.Match(ctx, nil, costCatalog, competitors)
		assert.ErrorIs(t, err, domain.ErrEmptyRequest)

		_, err = p.Match(ctx, request, nil, competitors)
		assert.ErrorIs(t, err, domain.ErrEmptyCostCatalog)

		_, err = p.Match(ctx, request, costCatalog, nil)
		assert.ErrorIs(t, err, domain.ErrEmptyCompetitorCatalog)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		p := NewMatchingPipeline(PipelineConfig{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := p.Match(cancelled,
			[]domain.RequestLine{{Name: "Молоко", Quantity: 1}},
			costCatalog,
			[]domain.CompetitorRecord{{Name: "Молоко", UnitPrice: 1}},
		)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
