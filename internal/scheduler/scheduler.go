// Package scheduler dispatches simulation jobs under a concurrency cap.
//
// Two interchangeable backends satisfy one contract: at most `workers` jobs
// run concurrently, job ids are admitted in ascending order, no job is
// retried, and the aggregate result is a failure if any job failed. The
// DelegatingBackend hands scheduling to GNU parallel when it is installed;
// the PoolBackend is the self-managed fallback.
package scheduler

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/nixpig/simrunner/internal/jobmanager"
)

// ToolName is the external fan-out tool probed for on PATH.
const ToolName = "parallel"

// Mode selects which backend schedules the run.
type Mode string

const (
	// ModeAuto probes for the external tool and falls back to the pool.
	ModeAuto Mode = "auto"

	// ModeParallel forces the delegating backend.
	ModeParallel Mode = "parallel"

	// ModePool forces the self-managed pool backend.
	ModePool Mode = "pool"
)

// Backend runs a set of jobs to their terminal states. Run returns an error
// if any job failed; job-local failures never stop sibling jobs.
type Backend interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Run blocks until every job has reached a terminal state.
	Run(ctx context.Context, jobs []*jobmanager.Job) error
}

// Select resolves the backend for the given mode once at startup.
//
// selfCommand is the argv used by the delegating backend to run a single job;
// the external tool substitutes its "{}" placeholder with the job id.
func Select(
	mode Mode,
	workers int,
	selfCommand []string,
	log logrus.FieldLogger,
) (Backend, error) {
	switch mode {
	case ModePool:
		return NewPoolBackend(workers, log)
	case ModeParallel:
		return NewDelegatingBackend(workers, selfCommand, log)
	case ModeAuto:
		if _, err := exec.LookPath(ToolName); err == nil {
			return NewDelegatingBackend(workers, selfCommand, log)
		}

		return NewPoolBackend(workers, log)
	default:
		return nil, fmt.Errorf("unknown scheduler mode: %q", mode)
	}
}
