package domain

import "errors"

var (
	// ErrEmptyRequest is returned when there are no request lines to price
	ErrEmptyRequest = errors.New("request has no lines")

	// ErrEmptyCostCatalog is returned when the cost catalog has no records
	ErrEmptyCostCatalog = errors.New("cost catalog is empty")

	// ErrEmptyCompetitorCatalog is returned when the competitor list has no records
	ErrEmptyCompetitorCatalog = errors.New("competitor catalog is empty")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidEdit is returned when a manual edit cannot be applied to a line set
	ErrInvalidEdit = errors.New("invalid line edit")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrWorkspaceNotFound is returned when a saved workspace does not exist or has expired
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWorkspaceUnavailable is returned when the workspace store cannot be reached
	ErrWorkspaceUnavailable = errors.New("workspace store unavailable")

	// ErrCatalogSourceFailure is returned when the remote catalog service request fails
	ErrCatalogSourceFailure = errors.New("catalog source request failed")
)
