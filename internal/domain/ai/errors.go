package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout marks an attempt that ran past its deadline.
	ErrTimeout = errors.New("generation request timed out")
	// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
)

// StatusError is a non-200 answer from the generation service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation service returned status %d", e.Code)
	}
	return fmt.Sprintf("generation service returned status %d: %s", e.Code, e.Body)
}
