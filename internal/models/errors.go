package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrTeamNotFound     = errors.New("team not found")
	ErrInvalidID        = errors.New("invalid ID format")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDegenerateEnsemble signals that too few models voted for fusion
	// to produce a meaningful prediction.
	ErrDegenerateEnsemble = errors.New("degenerate ensemble: fewer than two active votes")
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	KindInputNotFound      ErrorKind = "INPUT_NOT_FOUND"
	KindValidationFailed   ErrorKind = "VALIDATION_FAILED"
	KindFreshnessDead      ErrorKind = "FRESHNESS_DEAD"
	KindModelError         ErrorKind = "MODEL_ERROR"
	KindEnsembleDegenerate ErrorKind = "ENSEMBLE_DEGENERATE"
	KindRobustnessFail     ErrorKind = "ROBUSTNESS_FAIL"
	KindStoreUnavailable   ErrorKind = "STORE_UNAVAILABLE"
	KindStoreConstraint    ErrorKind = "STORE_CONSTRAINT"
	KindTimeout            ErrorKind = "TIMEOUT"
)

// PipelineError is the structured user-visible failure record
type PipelineError struct {
	Code    string                 `json:"code"`
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"human_message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Code, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Code, e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a structured pipeline error
func NewPipelineError(code string, kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Kind: kind, Message: message, Err: err}
}
