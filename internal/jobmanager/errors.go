package jobmanager

import (
	"fmt"
)

// InvalidStateError is returned when attempting an invalid Job state
// transition.
type InvalidStateError struct {
	from JobState
	to   JobState
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot go from %s to %s", e.from, e.to)
}

func NewInvalidStateError(from, to JobState) InvalidStateError {
	return InvalidStateError{from, to}
}

// StageError indicates the job failed to produce its private copy of the
// shared initial condition, e.g. the copy hit an I/O error. A missing shared
// artifact is reported as workspace.ErrMissingSharedState instead.
type StageError struct {
	err error
}

func (e StageError) Error() string {
	return fmt.Sprintf("failed to stage initial condition: %s", e.err)
}

func (e StageError) Unwrap() error {
	return e.err
}

// SimulationError indicates the main-phase collaborator exited non-zero or
// was killed, e.g. on timeout.
type SimulationError struct {
	ExitCode int
	err      error
}

func (e SimulationError) Error() string {
	return fmt.Sprintf("simulation failed with exit code %d: %s", e.ExitCode, e.err)
}

func (e SimulationError) Unwrap() error {
	return e.err
}
