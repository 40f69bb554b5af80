package domain

import (
	"context"
	"time"
)

// WorkspaceRepository defines how proposal workspaces are saved and restored
type WorkspaceRepository interface {
	Save(ctx context.Context, workspace *Workspace, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Workspace, error)
	Delete(ctx context.Context, id string) error
}

// CatalogSource defines the interface for fetching already-typed catalogs from a remote service
type CatalogSource interface {
	FetchCostCatalog(ctx context.Context) ([]CatalogRecord, error)
	FetchCompetitorRecords(ctx context.Context) ([]CompetitorRecord, error)
}

// PipelineObserver receives outcomes of the matching and pricing steps
type PipelineObserver interface {
	ObserveMatch(line MatchedLine)
	ObservePricing(result *PricingResult, elapsed time.Duration)
}
