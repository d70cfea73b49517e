// internal/relay/errors.go
package relay

import (
	"errors"
	"fmt"

	"github.com/yishe-labs/relay/pkg/models"
)

// StageError tags an item-level failure with the pipeline stage that
// produced it, so operators can tell "we never got the bytes" from "we
// have the bytes but the catalog doesn't know".
type StageError struct {
	Stage      models.Stage
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Underlying
}

// Is matches StageErrors by stage
func (e *StageError) Is(target error) bool {
	if t, ok := target.(*StageError); ok {
		return e.Stage == t.Stage
	}
	return errors.Is(e.Underlying, target)
}

// NewStageError creates a new StageError
func NewStageError(stage models.Stage, message string, err error) *StageError {
	return &StageError{
		Stage:      stage,
		Message:    message,
		Underlying: err,
	}
}
