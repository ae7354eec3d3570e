package domain

import "errors"

var (
	// ErrInvalidRequest indicates missing or malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnsupportedMedia indicates a file with an unsupported content type.
	ErrUnsupportedMedia = errors.New("unsupported file type")
	// ErrExtraction indicates a file that failed to decode.
	ErrExtraction = errors.New("file processing error")
	// ErrUpstreamUnavailable indicates the model API is not configured.
	ErrUpstreamUnavailable = errors.New("model api not configured")
	// ErrUpstream indicates a model API call failure.
	ErrUpstream = errors.New("model api error")
	// ErrStoreUnavailable indicates the persistence layer is down.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)
