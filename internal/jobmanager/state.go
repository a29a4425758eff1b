package jobmanager

import "sync/atomic"

type JobState int

const (
	// JobStateUnknown indicates the state of the job is unknown. It's used as
	// the zero value for functions that return a (possibly absent) JobState.
	JobStateUnknown JobState = iota

	// JobStatePending indicates the job has been created but not yet admitted
	// by the scheduler.
	JobStatePending

	// JobStateRunning indicates the job has been admitted and its subprocess
	// chain is executing.
	JobStateRunning

	// JobStateSucceeded indicates the job's subprocess chain completed with a
	// zero exit status. Terminal.
	JobStateSucceeded

	// JobStateFailed indicates the job failed in any phase: staging its
	// private copy of the initial condition, or a non-zero/interrupted
	// subprocess. Terminal.
	JobStateFailed
)

// NOTE: This slice needs to be kept in sync with any changes to the JobState
// values. Ideally, we'd only ever be 'adding' more states to maintain a
// consistent API.
var jobStates = []string{
	"Unknown",
	"Pending",
	"Running",
	"Succeeded",
	"Failed",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}

// Terminal returns whether the state is final. Jobs never transition out of a
// terminal state and are never retried.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// AtomicJobState is a wrapper around an atomic.Int32 to provide atomic
// operations on a JobState.
//  1. Simplifies validating state transitions with CompareAndSwap.
//  2. Reduces (maybe removes?) the
//     need for mutexes and explicit handling of locking on a Job.
type AtomicJobState struct {
	v atomic.Int32
}

// Load atomically loads the JobState value.
func (a *AtomicJobState) Load() JobState {
	return JobState(a.v.Load())
}

// Store attomically stores the JobState value.
func (a *AtomicJobState) Store(s JobState) {
	a.v.Store(int32(s))
}

// CompareAndSwap performs an atomic compare-and-swap operation with an old and
// new JobState.
func (a *AtomicJobState) CompareAndSwap(o, n JobState) bool {
	return a.v.CompareAndSwap(int32(o), int32(n))
}
