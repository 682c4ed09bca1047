package services

import (
	"errors"
	"fmt"

	"vidshelf-backend/internal/models"
)

// ErrVideoRejected means the provider answered and does not know the video.
var ErrVideoRejected = errors.New("video rejected by provider")

// UnavailableError means the provider could not be asked at all.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "validation unavailable"
	}
	return fmt.Sprintf("validation unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(err error) error { return &UnavailableError{Err: err} }

// Classify maps a Validator result onto a verdict. Errors that are neither
// ErrVideoRejected nor *UnavailableError count as unavailable.
func Classify(err error) models.Verdict {
	if err == nil {
		return models.VerdictValid
	}
	if errors.Is(err, ErrVideoRejected) {
		return models.VerdictRejected
	}
	return models.VerdictUnavailable
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }
