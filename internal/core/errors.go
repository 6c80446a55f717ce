package core

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed caller input.
// It maps to a 4xx response at the HTTP surface.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// ProviderError reports a failed call to an external provider
// (embeddings, chat completion, or the vector search primitive).
// Requests degrade to an apology rather than crashing.
type ProviderError struct {
	Provider  string
	Operation string
	Status    int // HTTP status when available, 0 for transport errors
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Provider, e.Operation, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient. Only 5xx-equivalent
// and transport failures are worth retrying; 4xx responses will not
// improve on a second attempt.
func (e *ProviderError) Retryable() bool {
	return e.Status == 0 || e.Status >= 500
}

// PersistenceError reports a failed vector store write.
// Ingestion skips the affected chunk and continues.
type PersistenceError struct {
	DocumentName string
	ChunkIndex   int
	Err          error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist chunk %d of %q: %v", e.ChunkIndex, e.DocumentName, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProvider reports whether err wraps a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
