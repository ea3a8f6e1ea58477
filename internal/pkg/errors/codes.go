package errors

import "net/http"

var (
	ErrStationNotFound = New(
		"STATION_NOT_FOUND",
		"Station not found",
		http.StatusNotFound,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidLocation = New(
		"INVALID_LOCATION",
		"Location must have an id, a coordinate or a name",
		http.StatusBadRequest,
	)

	ErrInvalidContext = New(
		"INVALID_CONTEXT",
		"Invalid continuation context",
		http.StatusBadRequest,
	)

	ErrSessionExpired = New(
		"SESSION_EXPIRED",
		"Continuation context expired or already used",
		http.StatusGone,
	)

	ErrUpstreamUnavailable = New(
		"UPSTREAM_UNAVAILABLE",
		"Transit server is not reachable",
		http.StatusServiceUnavailable,
	)

	ErrUpstreamProtocol = New(
		"UPSTREAM_PROTOCOL_ERROR",
		"Transit server returned an unexpected payload",
		http.StatusBadGateway,
	)

	ErrUpstreamInvalidData = New(
		"UPSTREAM_INVALID_DATA",
		"Transit server returned invalid data",
		http.StatusBadGateway,
	)

	ErrUnknownLine = New(
		"UNKNOWN_LINE",
		"Transit server returned an unclassified line",
		http.StatusBadGateway,
	)

	ErrUnknownProvider = New(
		"UNKNOWN_PROVIDER",
		"Unknown transit provider",
		http.StatusBadRequest,
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

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
