package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpcalc/backend/internal/domain"
)

// memoryRepository is an in-test WorkspaceRepository
type memoryRepository struct {
	mu    sync.Mutex
	items map[string]domain.Workspace
	ttl   time.Duration
	err   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]domain.Workspace)}
}

func (r *memoryRepository) Save(_ context.Context, ws *domain.Workspace, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.items[ws.ID] = *ws
	r.ttl = ttl
	return nil
}

func (r *memoryRepository) Load(_ context.Context, id string) (*domain.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return &ws, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// staticCatalogSource serves fixed catalogs
type staticCatalogSource struct {
	costs       []domain.CatalogRecord
	competitors []domain.CompetitorRecord
	err         error
	calls       int
}

func (s *staticCatalogSource) FetchCostCatalog(_ context.Context) ([]domain.CatalogRecord, error) {
	s.calls++
	return s.costs, s.err
}

func (s *staticCatalogSource) FetchCompetitorRecords(_ context.Context) ([]domain.CompetitorRecord, error) {
	s.calls++
	return s.competitors, s.err
}

func sampleInput() *CalculateInput {
	return &CalculateInput{
		Batches: []RequestBatch{
			{Channel: "RB", Lines: []domain.RequestLine{
				{Name: "Молоко 3.2% 1л", Unit: "л", Quantity: 100},
				{Name: "Гречка ядрица", Unit: "кг", Quantity: 20},
			}},
			{Channel: "FB", Lines: []domain.RequestLine{
				{Name: "Сахар-песок", Unit: "кг", Quantity: 50},
			}},
		},
		CostCatalog: []domain.CatalogRecord{
			{Name: "Молоко 3.2% 1л", UnitCost: 66, Packaging: "1л"},
			{Name: "Гречка ядрица", UnitCost: 40},
			{Name: "Сахар-песок", UnitCost: 50.50, Packaging: "800г"},
		},
		Competitors: []domain.CompetitorRecord{
			{Name: "Молоко 3.2% 1л", UnitPrice: 80},
			{Name: "Сахар-песок", UnitPrice: 75},
		},
	}
}

func TestQuotationService_Calculate(t *testing.T) {
	ctx := context.Background()

	t.Run("prices all channels together", func(t *testing.T) {
		svc := NewQuotationService(newMemoryRepository(), nil, QuotationServiceConfig{})

		out, err := svc.Calculate(ctx, sampleInput())
		require.NoError(t, err)
		require.Len(t, out.Pricing.Lines, 3)

		for i, l := range out.Pricing.Lines {
			assert.Equal(t, i+1, l.Number)
		}
		assert.Equal(t, "RB", out.Pricing.Lines[0].Channel)
		assert.Equal(t, "FB", out.Pricing.Lines[2].Channel)

		assert.Equal(t, 52.0, out.Pricing.Lines[1].OurPrice)
		assert.Equal(t, 63.13, out.Pricing.Lines[2].Cost)

		assert.Equal(t, 3, out.Summary.TotalPositions)
		assert.Equal(t, 2, out.Summary.PositionsWithCompetitor)
		require.Len(t, out.Summary.Channels, 2)
		assert.Equal(t, "RB", out.Summary.Channels[0].Channel)
		assert.Len(t, out.Details, 3)
		assert.Empty(t, out.WorkspaceID)
	})

	t.Run("line channel wins over batch channel", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})
		input := sampleInput()
		input.Batches[0].Lines[0].Channel = "own"

		out, err := svc.Calculate(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "own", out.Pricing.Lines[0].Channel)
	})

	t.Run("saves workspace on request", func(t *testing.T) {
		repo := newMemoryRepository()
		svc := NewQuotationService(repo, nil, QuotationServiceConfig{WorkspaceTTL: time.Hour})
		input := sampleInput()
		input.SaveWorkspace = true

		out, err := svc.Calculate(ctx, input)
		require.NoError(t, err)
		require.NotEmpty(t, out.WorkspaceID)
		assert.Equal(t, time.Hour, repo.ttl)

		ws, err := svc.RestoreWorkspace(ctx, out.WorkspaceID)
		require.NoError(t, err)
		assert.Len(t, ws.Lines, 3)
		assert.Equal(t, DefaultPricingSettings(), ws.Settings)
		assert.False(t, ws.UpdatedAt.IsZero())
	})

	t.Run("workspace save failure does not fail the calculation", func(t *testing.T) {
		repo := newMemoryRepository()
		repo.err = errors.New("connection refused")
		svc := NewQuotationService(repo, nil, QuotationServiceConfig{})
		input := sampleInput()
		input.SaveWorkspace = true

		out, err := svc.Calculate(ctx, input)
		require.NoError(t, err)
		assert.Empty(t, out.WorkspaceID)
	})

	t.Run("uses explicit settings", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})
		input := sampleInput()
		input.Settings = &domain.PricingSettings{TargetDiscountPercent: 0.1, FallbackMarkupPercent: 50}

		out, err := svc.Calculate(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 60.0, out.Pricing.Lines[1].OurPrice)
	})

	t.Run("fetches missing catalogs from the source", func(t *testing.T) {
		fixture := sampleInput()
		source := &staticCatalogSource{costs: fixture.CostCatalog, competitors: fixture.Competitors}
		svc := NewQuotationService(nil, source, QuotationServiceConfig{})

		input := sampleInput()
		input.CostCatalog = nil
		input.Competitors = nil

		out, err := svc.Calculate(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 2, source.calls)
		assert.Len(t, out.Pricing.Lines, 3)
	})

	t.Run("source failure is returned", func(t *testing.T) {
		source := &staticCatalogSource{err: domain.ErrCatalogSourceFailure}
		svc := NewQuotationService(nil, source, QuotationServiceConfig{})
		input := sampleInput()
		input.CostCatalog = nil

		_, err := svc.Calculate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrCatalogSourceFailure)
	})

	t.Run("rejects empty request", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})

		_, err := svc.Calculate(ctx, &CalculateInput{Batches: []RequestBatch{{Channel: "RB"}}})
		assert.ErrorIs(t, err, domain.ErrEmptyRequest)

		_, err = svc.Calculate(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejects missing catalogs without a source", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})

		input := sampleInput()
		input.CostCatalog = nil
		_, err := svc.Calculate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrEmptyCostCatalog)

		input = sampleInput()
		input.Competitors = nil
		_, err = svc.Calculate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrEmptyCompetitorCatalog)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})
		input := sampleInput()
		input.CostCatalog[0].UnitCost = -1

		_, err := svc.Calculate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)

		input = sampleInput()
		input.Competitors[0].Confidence = 101
		_, err = svc.Calculate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})
		input := sampleInput()
		input.Settings = &domain.PricingSettings{TargetDiscountPercent: 100}

		_, err := svc.Calculate(ctx, input)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestQuotationService_Workspaces(t *testing.T) {
	ctx := context.Background()

	t.Run("save assigns id and restore round-trips", func(t *testing.T) {
		svc := NewQuotationService(newMemoryRepository(), nil, QuotationServiceConfig{})
		ws := &domain.Workspace{Lines: editFixture(), Settings: DefaultPricingSettings()}

		require.NoError(t, svc.SaveWorkspace(ctx, ws))
		require.NotEmpty(t, ws.ID)

		restored, err := svc.RestoreWorkspace(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, ws.Lines, restored.Lines)

		require.NoError(t, svc.DeleteWorkspace(ctx, ws.ID))
		_, err = svc.RestoreWorkspace(ctx, ws.ID)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	})

	t.Run("keeps caller id", func(t *testing.T) {
		svc := NewQuotationService(newMemoryRepository(), nil, QuotationServiceConfig{})
		ws := &domain.Workspace{ID: "tender-42"}

		require.NoError(t, svc.SaveWorkspace(ctx, ws))
		assert.Equal(t, "tender-42", ws.ID)
	})

	t.Run("without repository", func(t *testing.T) {
		svc := NewQuotationService(nil, nil, QuotationServiceConfig{})

		assert.ErrorIs(t, svc.SaveWorkspace(ctx, &domain.Workspace{}), domain.ErrWorkspaceUnavailable)
		_, err := svc.RestoreWorkspace(ctx, "x")
		assert.ErrorIs(t, err, domain.ErrWorkspaceUnavailable)
		assert.ErrorIs(t, svc.DeleteWorkspace(ctx, "x"), domain.ErrWorkspaceUnavailable)
	})

	t.Run("rejects blank id", func(t *testing.T) {
		svc := NewQuotationService(newMemoryRepository(), nil, QuotationServiceConfig{})

		_, err := svc.RestoreWorkspace(ctx, " ")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.ErrorIs(t, svc.DeleteWorkspace(ctx, ""), domain.ErrInvalidRequest)
	})
}

func TestQuotationService_ApplyEditsAndReprice(t *testing.T) {
	svc := NewQuotationService(nil, nil, QuotationServiceConfig{})

	out, err := svc.Calculate(context.Background(), sampleInput())
	require.NoError(t, err)

	edited, err := svc.ApplyEdits(out.Pricing.Lines, []domain.LineEdit{{Index: 1, Cost: floatPtr(50)}})
	require.NoError(t, err)
	assert.Equal(t, 50.0, edited[1].Cost)
	assert.Equal(t, 52.0, edited[1].OurPrice)

	repriced, err := svc.Reprice(edited, nil)
	require.NoError(t, err)
	assert.Equal(t, 65.0, repriced.Lines[1].OurPrice)

	_, err = svc.ApplyEdits(nil, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyRequest)
}
