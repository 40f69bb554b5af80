package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kpcalc/backend/internal/domain"
)

// Quantity sanitation thresholds. Values above them are taken as digit-grouping artifacts.
const (
	quantityHundredsThreshold  = 100_000
	quantityThousandsThreshold = 1_000_000
)

// Pipeline defaults
const (
	DefaultMaxCompetitorPrice = 100_000.0
	DefaultRequestUnit        = "кг"
)

// PipelineConfig holds configuration for the product matching pipeline
type PipelineConfig struct {
	MinSimilarity           int
	MaxCompetitorPrice      float64
	MinCompetitorConfidence int
	DefaultUnit             string
	Logger                  *zap.Logger
	Observer                domain.PipelineObserver
}

// MatchingPipeline resolves every request line against the cost catalog and the competitor list
type MatchingPipeline struct {
	matcher                 *MatchingService
	maxCompetitorPrice      float64
	minCompetitorConfidence int
	defaultUnit             string
	logger                  *zap.Logger
	observer                domain.PipelineObserver
}

// NewMatchingPipeline creates a pipeline with defaults filled in
func NewMatchingPipeline(config PipelineConfig) *MatchingPipeline {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxPrice := config.MaxCompetitorPrice
	if maxPrice <= 0 {
		maxPrice = DefaultMaxCompetitorPrice
	}

	unit := strings.TrimSpace(config.DefaultUnit)
	if unit == "" {
		unit = DefaultRequestUnit
	}

	return &MatchingPipeline{
		matcher: NewMatchingService(MatchConfig{
			MinSimilarity: config.MinSimilarity,
			Logger:        logger,
		}),
		maxCompetitorPrice:      maxPrice,
		minCompetitorConfidence: config.MinCompetitorConfidence,
		defaultUnit:             unit,
		logger:                  logger,
		observer:                config.Observer,
	}
}

// SanitizeQuantity corrects implausibly large quantities that come from digit grouping
// (above 1,000,000 divided by 1000, above 100,000 divided by 100) and clamps
// non-positive values to 0. The diagnostic records both values.
func SanitizeQuantity(qty float64) (float64, *domain.Diagnostic) {
	switch {
	case qty <= 0:
		if qty == 0 {
			return 0, nil
		}
		d := domain.NewDiagnostic(domain.DiagQuantityNonPositive, domain.DiagnosticPayload{
			OriginalQuantity: qty,
		})
		return 0, &d
	case qty > quantityThousandsThreshold:
		return correctedQuantity(qty, qty/1000)
	case qty > quantityHundredsThreshold:
		return correctedQuantity(qty, qty/100)
	default:
		return qty, nil
	}
}

func correctedQuantity(original, corrected float64) (float64, *domain.Diagnostic) {
	d := domain.NewDiagnostic(domain.DiagQuantityCorrected, domain.DiagnosticPayload{
		OriginalQuantity:  original,
		CorrectedQuantity: corrected,
	})
	return corrected, &d
}

// Match resolves cost and competitor price for every request line.
// Line-level problems never fail the batch; they are attached as diagnostics.
// Empty input sets are rejected.
func (p *MatchingPipeline) Match(
	ctx context.Context,
	request []domain.RequestLine,
	costCatalog []domain.CatalogRecord,
	competitors []domain.CompetitorRecord,
) ([]domain.MatchedLine, error) {
	if len(request) == 0 {
		return nil, domain.ErrEmptyRequest
	}
	if len(costCatalog) == 0 {
		return nil, domain.ErrEmptyCostCatalog
	}
	if len(competitors) == 0 {
		return nil, domain.ErrEmptyCompetitorCatalog
	}

	costIndex := NewCandidateIndex(costCandidates(costCatalog))
	trusted := p.trustedCompetitors(competitors)
	competitorIndex := NewCandidateIndex(competitorCandidates(trusted))

	result := make([]domain.MatchedLine, 0, len(request))
	withCompetitor := 0

	for i, req := range request {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := p.matchLine(i, req, costCatalog, costIndex, trusted, competitorIndex)
		if line.HasCompetitor {
			withCompetitor++
		}
		if p.observer != nil {
			p.observer.ObserveMatch(line)
		}
		result = append(result, line)
	}

	p.logger.Info("matching finished",
		zap.Int("lines", len(result)),
		zap.Int("withCompetitor", withCompetitor),
		zap.Int("withoutCompetitor", len(result)-withCompetitor),
		zap.Int("competitorsIgnored", len(competitors)-len(trusted)))

	return result, nil
}

func (p *MatchingPipeline) matchLine(
	i int,
	req domain.RequestLine,
	costCatalog []domain.CatalogRecord,
	costIndex *CandidateIndex,
	competitors []domain.CompetitorRecord,
	competitorIndex *CandidateIndex,
) domain.MatchedLine {
	line := domain.MatchedLine{
		Number:           i + 1,
		RequestLine:      req,
		OriginalQuantity: req.Quantity,
	}

	if strings.TrimSpace(line.Name) == "" {
		line.Name = fmt.Sprintf("(line %d: unnamed)", i+1)
		line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagUnnamedLine, domain.DiagnosticPayload{}))
	}
	if strings.TrimSpace(line.Unit) == "" {
		line.Unit = p.defaultUnit
	}

	qty, qtyDiag := SanitizeQuantity(req.Quantity)
	line.Quantity = qty
	if qtyDiag != nil {
		line.Diagnostics = append(line.Diagnostics, *qtyDiag)
		p.logger.Warn("quantity corrected",
			zap.String("name", line.Name),
			zap.Float64("original", req.Quantity),
			zap.Float64("corrected", qty))
	}

	costMatch := p.resolveCost(&line, req.Name, costCatalog, costIndex)
	competitorMatch := p.resolveCompetitor(&line, req.Name, competitors, competitorIndex)

	if line.HasCompetitor {
		line.Provenance = &domain.MatchProvenance{
			CostName:        costMatch.Name,
			CostScore:       costMatch.Score,
			CompetitorName:  competitorMatch.Name,
			CompetitorScore: competitorMatch.Score,
		}
	}

	return line
}

func (p *MatchingPipeline) resolveCost(
	line *domain.MatchedLine,
	name string,
	catalog []domain.CatalogRecord,
	index *CandidateIndex,
) MatchResult {
	match := p.matcher.FindBestMatch(name, index)

	if match.Found() {
		rec := catalog[match.Index]
		source, label := catalogPackaging(rec)
		adj := ReconcileCost(rec.UnitCost, source, label, line.Unit)
		line.Cost = adj.Cost

		switch {
		case adj.Diagnostic != nil:
			line.Diagnostics = append(line.Diagnostics, *adj.Diagnostic)
			p.logger.Debug("cost packaging adjusted",
				zap.String("name", line.Name),
				zap.String("code", string(adj.Diagnostic.Code)),
				zap.Float64("cost", adj.Cost))
		case !source.IsEmpty():
			line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagCostBasis, domain.DiagnosticPayload{
				SourcePackaging: label,
			}))
		}
	}

	if line.Cost <= 0 {
		line.Cost = 0
		line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagCostNotFound, domain.DiagnosticPayload{
			Candidate: match.Name,
			Score:     match.Score,
		}))
		p.logger.Warn("cost not found",
			zap.String("name", line.Name),
			zap.String("best", match.Name),
			zap.Int("score", match.Score))
	}

	return match
}

func (p *MatchingPipeline) resolveCompetitor(
	line *domain.MatchedLine,
	name string,
	competitors []domain.CompetitorRecord,
	index *CandidateIndex,
) MatchResult {
	match := p.matcher.FindBestMatch(name, index)
	if !match.Found() {
		line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagCompetitorNotFound, domain.DiagnosticPayload{
			Candidate: match.Name,
			Score:     match.Score,
		}))
		return match
	}

	price := competitors[match.Index].UnitPrice
	if price <= 0 || price >= p.maxCompetitorPrice {
		line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagCompetitorUnreliable, domain.DiagnosticPayload{
			Candidate: match.Name,
			FromPrice: price,
		}))
		return match
	}

	if !match.PackagingCompatible {
		targetPkg := ExtractPackaging(name)
		ratio, ok := PackagingRatio(targetPkg, match.Packaging)
		if !ok || ratio <= 0 {
			line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagCompetitorPackagingMismatch, domain.DiagnosticPayload{
				Candidate:       match.Name,
				FromPrice:       price,
				TargetPackaging: packagingLabel(targetPkg),
				SourcePackaging: packagingLabel(match.Packaging),
			}))
			p.logger.Debug("competitor price discarded",
				zap.String("name", line.Name),
				zap.String("competitor", match.Name))
			return match
		}

		rescaled := roundTo2(price * ratio)
		line.Diagnostics = append(line.Diagnostics, domain.NewDiagnostic(domain.DiagCompetitorRescaled, domain.DiagnosticPayload{
			Candidate:       match.Name,
			FromPrice:       price,
			ToPrice:         rescaled,
			Ratio:           ratio,
			SourcePackaging: packagingLabel(match.Packaging),
			TargetPackaging: packagingLabel(targetPkg),
		}))
		price = rescaled
	}

	if price > 0 {
		line.CompetitorPrice = price
		line.HasCompetitor = true
	}
	return match
}

// trustedCompetitors drops records below the configured confidence.
// Records that arrive without a confidence are assessed here.
func (p *MatchingPipeline) trustedCompetitors(records []domain.CompetitorRecord) []domain.CompetitorRecord {
	if p.minCompetitorConfidence <= 0 {
		return records
	}

	trusted := make([]domain.CompetitorRecord, 0, len(records))
	for _, rec := range records {
		confidence := rec.Confidence
		if confidence == 0 {
			confidence, _ = AssessCompetitorRecord(rec)
		}
		if confidence >= p.minCompetitorConfidence {
			trusted = append(trusted, rec)
		}
	}
	return trusted
}

// catalogPackaging picks the packaging a catalog price is quoted for:
// the explicit packaging text first, the name otherwise
func catalogPackaging(rec domain.CatalogRecord) (domain.PackagingSpec, string) {
	if spec := ExtractPackaging(rec.Packaging); !spec.IsEmpty() {
		return spec, strings.TrimSpace(rec.Packaging)
	}
	spec := ExtractPackaging(rec.Name)
	return spec, FormatPackaging(spec)
}

func packagingLabel(spec domain.PackagingSpec) string {
	if spec.IsEmpty() {
		return "?"
	}
	return FormatPackaging(spec)
}

func costCandidates(records []domain.CatalogRecord) []Candidate {
	out := make([]Candidate, len(records))
	for i, rec := range records {
		out[i] = Candidate{Name: rec.Name, Packaging: rec.Packaging}
	}
	return out
}

func competitorCandidates(records []domain.CompetitorRecord) []Candidate {
	out := make([]Candidate, len(records))
	for i, rec := range records {
		out[i] = Candidate{Name: rec.Name}
	}
	return out
}
