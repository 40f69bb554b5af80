package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpcalc/backend/internal/domain"
	"github.com/kpcalc/backend/internal/usecase"
)

const (
	serviceName    = "kpcalc-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	quotes *usecase.QuotationService
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(quotes *usecase.QuotationService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{quotes: quotes, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Match resolves request lines against the cost and competitor catalogs
func (h *Handler) Match(c *gin.Context) {
	var req MatchRequest
	if !h.bind(c, &req) {
		return
	}

	lines, err := h.quotes.Match(c.Request.Context(), req.Request, req.CostCatalog, req.Competitors)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MatchResponse{Lines: matchedViews(lines)})
}

// Price prices matched lines against the discount target
func (h *Handler) Price(c *gin.Context) {
	var req PriceRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.quotes.Price(req.Lines, req.Settings)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pricingResponse(result, ""))
}

// Summary derives the economics of a priced line set
func (h *Handler) Summary(c *gin.Context) {
	var req SummaryRequest
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Summary: usecase.Summarize(req.Lines),
		Details: usecase.Details(req.Lines),
	})
}

// Calculate runs matching, pricing and economics in one call
func (h *Handler) Calculate(c *gin.Context) {
	var req usecase.CalculateInput
	if !h.bind(c, &req) {
		return
	}

	out, err := h.quotes.Calculate(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := pricingResponse(out.Pricing, out.WorkspaceID)
	resp.Details = out.Details
	c.JSON(http.StatusOK, resp)
}

// ApplyEdits applies manual edits to a line set and optionally prices it again
func (h *Handler) ApplyEdits(c *gin.Context) {
	var req EditsRequest
	if !h.bind(c, &req) {
		return
	}

	lines, err := h.quotes.ApplyEdits(req.Lines, req.Edits)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.Reprice {
		result, err := h.quotes.Reprice(lines, req.Settings)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pricingResponse(result, ""))
		return
	}

	settings := h.quotes.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	c.JSON(http.StatusOK, pricingResponse(&domain.PricingResult{Lines: lines, Settings: settings}, ""))
}

// SaveWorkspace stores a line set under the ID from the path, or a new ID for POST
func (h *Handler) SaveWorkspace(c *gin.Context) {
	var req WorkspaceRequest
	if !h.bind(c, &req) {
		return
	}

	ws := &domain.Workspace{
		ID:        strings.TrimSpace(c.Param("id")),
		Settings:  h.quotes.DefaultSettings(),
		Lines:     req.Lines,
		Shortfall: req.Shortfall,
	}
	if req.Settings != nil {
		ws.Settings = *req.Settings
	}

	if err := h.quotes.SaveWorkspace(c.Request.Context(), ws); err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, WorkspaceResponse{Workspace: ws, Summary: usecase.Summarize(ws.Lines)})
}

// GetWorkspace restores a saved workspace
func (h *Handler) GetWorkspace(c *gin.Context) {
	ws, err := h.quotes.RestoreWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, WorkspaceResponse{Workspace: ws, Summary: usecase.Summarize(ws.Lines)})
}

// DeleteWorkspace removes a saved workspace
func (h *Handler) DeleteWorkspace(c *gin.Context) {
	if err := h.quotes.DeleteWorkspace(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyRequest),
		errors.Is(err, domain.ErrEmptyCostCatalog),
		errors.Is(err, domain.ErrEmptyCompetitorCatalog),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidEdit):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWorkspaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCatalogSourceFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrWorkspaceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func pricingResponse(result *domain.PricingResult, workspaceID string) PricingResponse {
	return PricingResponse{
		WorkspaceID:         workspaceID,
		Lines:               pricedViews(result.Lines),
		Settings:            result.Settings,
		CompetitorTotal:     result.CompetitorTotal,
		TargetTotal:         result.TargetTotal,
		OurCompetitiveTotal: result.OurCompetitiveTotal,
		Shortfall:           result.Shortfall,
		Summary:             usecase.Summarize(result.Lines),
	}
}
