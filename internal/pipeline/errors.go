package pipeline

import "errors"

// Sentinel errors for the run-level failure taxonomy of spec.md §7.
// Stage-level problems that don't abort the run (a dropped edge, a
// suppressed claim) are recorded as StageObservation entries instead.
// Run itself returns only ErrInputInvalid, ErrEmbeddingFailed and
// ErrStageTimeout; ErrMapperParseFailed, ErrInvariantViolation and
// ErrCancelled name failure modes that are recorded as observations.
var (
	ErrInputInvalid       = errors.New("input invalid")
	ErrEmbeddingFailed    = errors.New("embedding failed")
	ErrMapperParseFailed  = errors.New("mapper parse failed")
	ErrStageTimeout       = errors.New("stage timed out")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrCancelled          = errors.New("run cancelled")
)
