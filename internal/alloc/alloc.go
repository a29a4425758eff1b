// Package alloc computes the worker and per-worker thread budget for a run
// from the requested job count and the available CPU cores.
package alloc

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
)

// ConfigurationError indicates the run inputs cannot be resolved into a
// usable allocation, e.g. an undetectable core count.
type ConfigurationError struct {
	msg string
}

func (e ConfigurationError) Error() string {
	return e.msg
}

func NewConfigurationError(format string, args ...any) ConfigurationError {
	return ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// Allocation is the resolved resource budget for a run. It is computed once
// and read-only afterwards.
type Allocation struct {
	// Workers is the number of concurrently running job slots.
	Workers int

	// ThreadsPerWorker is the thread budget each job subprocess is allowed.
	ThreadsPerWorker int
}

// Cores returns the number of cores the allocation will actually occupy.
func (a Allocation) Cores() int {
	return a.Workers * a.ThreadsPerWorker
}

// DetectCores returns the host's logical CPU count. A count that cannot be
// detected, or that is not positive, is a ConfigurationError.
func DetectCores() (int, error) {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, NewConfigurationError("failed to detect cpu count: %v", err)
	}

	if n < 1 {
		return 0, NewConfigurationError("detected non-positive cpu count: %d", n)
	}

	return n, nil
}

// Allocate computes the worker count and per-worker thread budget.
//
// Workers = min(jobCount, cores). ThreadsPerWorker = cores/Workers using
// floor division, clamped to a minimum of 1, so Workers*ThreadsPerWorker
// never exceeds cores. When cores < jobCount the run oversubscribes over
// time rather than failing.
func Allocate(jobCount, cores int) (Allocation, error) {
	if jobCount < 1 {
		return Allocation{}, NewConfigurationError("job count must be at least 1, got %d", jobCount)
	}

	if cores < 1 {
		return Allocation{}, NewConfigurationError("core count must be at least 1, got %d", cores)
	}

	workers := min(jobCount, cores)

	threads := cores / workers
	if threads < 1 {
		threads = 1
	}

	return Allocation{
		Workers:          workers,
		ThreadsPerWorker: threads,
	}, nil
}
