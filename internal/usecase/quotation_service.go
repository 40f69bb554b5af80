package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kpcalc/backend/internal/domain"
)

// QuotationServiceConfig holds configuration for the quotation service
type QuotationServiceConfig struct {
	MinSimilarity           int
	MaxCompetitorPrice      float64
	MinCompetitorConfidence int
	DefaultUnit             string
	Pricing                 domain.PricingSettings
	WorkspaceTTL            time.Duration
	Logger                  *zap.Logger
	Observer                domain.PipelineObserver
}

// RequestBatch is the request list of one budget channel
type RequestBatch struct {
	Channel string               `json:"channel,omitempty" yaml:"channel,omitempty"`
	Lines   []domain.RequestLine `json:"lines" yaml:"lines"`
}

// CalculateInput is everything needed to build a proposal in one call
type CalculateInput struct {
	Batches     []RequestBatch            `json:"batches" yaml:"batches" validate:"required,min=1,dive"`
	CostCatalog []domain.CatalogRecord    `json:"costCatalog" yaml:"costCatalog" validate:"dive"`
	Competitors []domain.CompetitorRecord `json:"competitors" yaml:"competitors" validate:"dive"`
	Settings    *domain.PricingSettings   `json:"settings,omitempty" yaml:"settings,omitempty"`

	SaveWorkspace bool   `json:"saveWorkspace,omitempty" yaml:"saveWorkspace,omitempty"`
	WorkspaceID   string `json:"workspaceId,omitempty" yaml:"workspaceId,omitempty"`
}

// CalculateOutput is the priced proposal with its economics
type CalculateOutput struct {
	WorkspaceID string                  `json:"workspaceId,omitempty"`
	Pricing     *domain.PricingResult   `json:"pricing"`
	Summary     domain.EconomicsSummary `json:"summary"`
	Details     []domain.LineEconomics  `json:"details"`
}

// QuotationService runs matching, pricing and economics and keeps workspaces
type QuotationService struct {
	workspaces   domain.WorkspaceRepository
	catalogs     domain.CatalogSource
	pipeline     *MatchingPipeline
	optimizer    *PricingOptimizer
	defaults     domain.PricingSettings
	workspaceTTL time.Duration
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewQuotationService creates a new quotation service with dependencies.
// catalogs may be nil when every request carries its own catalogs.
func NewQuotationService(
	workspaces domain.WorkspaceRepository,
	catalogs domain.CatalogSource,
	config QuotationServiceConfig,
) *QuotationService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defaults := config.Pricing
	if defaults == (domain.PricingSettings{}) {
		defaults = DefaultPricingSettings()
	}

	ttl := config.WorkspaceTTL
	if ttl == 0 {
		ttl = 168 * time.Hour // Default 7 days
	}

	return &QuotationService{
		workspaces: workspaces,
		catalogs:   catalogs,
		pipeline: NewMatchingPipeline(PipelineConfig{
			MinSimilarity:           config.MinSimilarity,
			MaxCompetitorPrice:      config.MaxCompetitorPrice,
			MinCompetitorConfidence: config.MinCompetitorConfidence,
			DefaultUnit:             config.DefaultUnit,
			Logger:                  logger.Named("matching"),
			Observer:                config.Observer,
		}),
		optimizer: NewPricingOptimizer(PricingConfig{
			Logger:   logger.Named("pricing"),
			Observer: config.Observer,
		}),
		defaults:     defaults,
		workspaceTTL: ttl,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
		now:          time.Now,
	}
}

// DefaultSettings returns the pricing settings used when a request carries none
func (s *QuotationService) DefaultSettings() domain.PricingSettings {
	return s.defaults
}

// Match resolves request lines against both catalogs
func (s *QuotationService) Match(
	ctx context.Context,
	request []domain.RequestLine,
	costCatalog []domain.CatalogRecord,
	competitors []domain.CompetitorRecord,
) ([]domain.MatchedLine, error) {
	return s.pipeline.Match(ctx, request, costCatalog, competitors)
}

// Price prices matched lines; nil settings fall back to the configured defaults
func (s *QuotationService) Price(matched []domain.MatchedLine, settings *domain.PricingSettings) (*domain.PricingResult, error) {
	return s.optimizer.Price(matched, s.settingsOrDefault(settings))
}

// Reprice prices already priced lines again from their matched data
func (s *QuotationService) Reprice(priced []domain.PricedLine, settings *domain.PricingSettings) (*domain.PricingResult, error) {
	return s.optimizer.Reprice(priced, s.settingsOrDefault(settings))
}

// Calculate matches every budget channel separately, prices all lines together
// and summarizes the result. Workspace save failures are logged, not returned.
func (s *QuotationService) Calculate(ctx context.Context, input *CalculateInput) (*CalculateOutput, error) {
	if input == nil {
		return nil, domain.ErrInvalidRequest
	}

	settings := s.settingsOrDefault(input.Settings)
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	lineCount := 0
	for _, b := range input.Batches {
		lineCount += len(b.Lines)
	}
	if lineCount == 0 {
		return nil, domain.ErrEmptyRequest
	}

	if err := s.fillCatalogs(ctx, input); err != nil {
		return nil, err
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	var matched []domain.MatchedLine
	for _, batch := range input.Batches {
		if len(batch.Lines) == 0 {
			continue
		}
		lines := make([]domain.RequestLine, len(batch.Lines))
		for i, l := range batch.Lines {
			if l.Channel == "" {
				l.Channel = batch.Channel
			}
			lines[i] = l
		}

		m, err := s.pipeline.Match(ctx, lines, input.CostCatalog, input.Competitors)
		if err != nil {
			return nil, err
		}
		matched = append(matched, m...)
	}

	for i := range matched {
		matched[i].Number = i + 1
	}

	pricing, err := s.optimizer.Price(matched, settings)
	if err != nil {
		return nil, err
	}

	out := &CalculateOutput{
		Pricing: pricing,
		Summary: Summarize(pricing.Lines),
		Details: Details(pricing.Lines),
	}

	if input.SaveWorkspace {
		ws := &domain.Workspace{
			ID:        input.WorkspaceID,
			Settings:  settings,
			Lines:     pricing.Lines,
			Shortfall: pricing.Shortfall,
		}
		if err := s.SaveWorkspace(ctx, ws); err != nil {
			s.logger.Warn("workspace not saved", zap.Error(err))
		} else {
			out.WorkspaceID = ws.ID
		}
	}

	return out, nil
}

// ApplyEdits applies manual edits to a line set and returns the recalculated copy
func (s *QuotationService) ApplyEdits(lines []domain.PricedLine, edits []domain.LineEdit) ([]domain.PricedLine, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyRequest
	}
	return ApplyEdits(lines, edits)
}

// SaveWorkspace stores a workspace, assigning an ID when it has none
func (s *QuotationService) SaveWorkspace(ctx context.Context, ws *domain.Workspace) error {
	if ws == nil {
		return domain.ErrInvalidRequest
	}
	if s.workspaces == nil {
		return domain.ErrWorkspaceUnavailable
	}
	if strings.TrimSpace(ws.ID) == "" {
		ws.ID = uuid.NewString()
	}
	ws.UpdatedAt = s.now().UTC()

	if err := s.workspaces.Save(ctx, ws, s.workspaceTTL); err != nil {
		return fmt.Errorf("save workspace %s: %w", ws.ID, err)
	}
	s.logger.Debug("workspace saved", zap.String("id", ws.ID), zap.Int("lines", len(ws.Lines)))
	return nil
}

// RestoreWorkspace loads a previously saved workspace
func (s *QuotationService) RestoreWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.workspaces == nil {
		return nil, domain.ErrWorkspaceUnavailable
	}
	return s.workspaces.Load(ctx, id)
}

// DeleteWorkspace removes a saved workspace
func (s *QuotationService) DeleteWorkspace(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidRequest
	}
	if s.workspaces == nil {
		return domain.ErrWorkspaceUnavailable
	}
	return s.workspaces.Delete(ctx, id)
}

func (s *QuotationService) settingsOrDefault(settings *domain.PricingSettings) domain.PricingSettings {
	if settings == nil {
		return s.defaults
	}
	return *settings
}

// fillCatalogs fetches missing catalogs from the remote catalog source when one is configured
func (s *QuotationService) fillCatalogs(ctx context.Context, input *CalculateInput) error {
	if s.catalogs == nil {
		if len(input.CostCatalog) == 0 {
			return domain.ErrEmptyCostCatalog
		}
		if len(input.Competitors) == 0 {
			return domain.ErrEmptyCompetitorCatalog
		}
		return nil
	}

	if len(input.CostCatalog) == 0 {
		records, err := s.catalogs.FetchCostCatalog(ctx)
		if err != nil {
			return fmt.Errorf("fetch cost catalog: %w", err)
		}
		input.CostCatalog = records
	}
	if len(input.Competitors) == 0 {
		records, err := s.catalogs.FetchCompetitorRecords(ctx)
		if err != nil && !errors.Is(err, domain.ErrEmptyCompetitorCatalog) {
			return fmt.Errorf("fetch competitor records: %w", err)
		}
		input.Competitors = records
	}

	if len(input.CostCatalog) == 0 {
		return domain.ErrEmptyCostCatalog
	}
	if len(input.Competitors) == 0 {
		return domain.ErrEmptyCompetitorCatalog
	}
	return nil
}
