package errors

import "net/http"

var (
	ErrInvalidRegion = New(
		"INVALID_REGION",
		"Region must be a point with padding or at least two corners",
		http.StatusBadRequest,
	)

	ErrUnknownTable = New(
		"UNKNOWN_TABLE",
		"Unknown metadata table",
		http.StatusBadRequest,
	)

	ErrInvalidEdge = New(
		"INVALID_EDGE",
		"Invalid edge id",
		http.StatusBadRequest,
	)

	ErrInvalidHeading = New(
		"INVALID_HEADING",
		"Heading must be in [0, 360)",
		http.StatusBadRequest,
	)

	ErrMetadataNotFound = New(
		"METADATA_NOT_FOUND",
		"No aggregation run has produced metadata yet",
		http.StatusNotFound,
	)

	ErrInvalidInput = New(
		"INVALID_INPUT",
		"Input files are missing required columns",
		http.StatusUnprocessableEntity,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrTooManyRequests = New(
		"TOO_MANY_REQUESTS",
		"Too many requests",
		http.StatusTooManyRequests,
	)

	ErrStreamUnavailable = New(
		"STREAM_UNAVAILABLE",
		"Asynchronous runs are not configured",
		http.StatusServiceUnavailable,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
