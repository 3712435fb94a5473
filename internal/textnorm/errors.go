package textnorm

import (
	"errors"
	"fmt"
)

// ErrNormalization is matched by every NormalizationError.
var ErrNormalization = errors.New("normalization model unavailable")

// NormalizationError reports that the normalization model itself cannot be
// used. Garbage input text is never a NormalizationError.
type NormalizationError struct {
	Message string
	Cause   error
}

func (e *NormalizationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("normalization: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("normalization: %s", e.Message)
}

func (e *NormalizationError) Unwrap() error {
	return e.Cause
}

func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}

func modelError(message string, cause error) error {
	return &NormalizationError{Message: message, Cause: cause}
}
