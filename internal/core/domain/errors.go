package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates an expected, non-exceptional miss: no search hit,
	// sanity-check failure, zero vector matches, or a missing stored entity.
	// Ingestion and retrieval callers continue past it.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a library sync is already running for
	// the user. Syncs are serialised per user.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrNoCaption indicates the vision model returned no content.
	// This is a hard failure: there is no reasonable fallback caption.
	ErrNoCaption = errors.New("could not generate caption")

	// ErrSelectionUnmatched indicates none of the model's returned lines
	// could be matched back to a retrieved candidate. Distinct from
	// ErrNotFound (which means the candidate set itself was empty).
	ErrSelectionUnmatched = errors.New("selection did not match any candidate")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the language model service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// RateLimitedError reports a 429 from a provider. Callers feed it back
// into the provider's limiter so subsequent calls respect the backoff.
type RateLimitedError struct {
	// Provider names the API that pushed back.
	Provider string

	// RetryAfter is the provider's advertised delay in seconds, zero
	// when it gave none.
	RetryAfter int
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited, retry after %ds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

// IsRateLimited reports whether err is a provider rate-limit response
// and returns it if so.
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var re *RateLimitedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Rejection reasons for content-quality rejections.
const (
	RejectTooLong       = "raw content over length ceiling"
	RejectInstrumental  = "instrumental track"
	RejectTitleMismatch = "track title absent from lyrics"
	RejectProfaneTitle  = "profane track title"
	RejectEmpty         = "no content after cleaning"
	RejectTooFewLines   = "too few lines to index"
)

// RejectionError is a content-quality rejection: instrumental detection,
// length-ceiling breach, title/lyrics mismatch, profanity on the title.
// Callers treat it like ErrNotFound (skip and continue) but the reason is
// logged for diagnosis.
type RejectionError struct {
	// Reason is one of the Reject* constants.
	Reason string

	// TrackID identifies the rejected track when known.
	TrackID string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("rejected: %s", e.Reason)
	}
	return fmt.Sprintf("rejected %s: %s", e.TrackID, e.Reason)
}

// NewRejection creates a rejection error with the given reason.
func NewRejection(reason, trackID string) *RejectionError {
	return &RejectionError{Reason: reason, TrackID: trackID}
}

// IsRejection reports whether err is a content-quality rejection and
// returns it if so.
func IsRejection(err error) (*RejectionError, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
