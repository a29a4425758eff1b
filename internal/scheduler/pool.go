package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nixpig/simrunner/internal/jobmanager"
)

// PoolBackend runs jobs in-process under an admission limit. Jobs are
// admitted in ascending order as slots free up; completion order is
// unconstrained.
type PoolBackend struct {
	workers int
	log     logrus.FieldLogger
}

// NewPoolBackend creates a PoolBackend admitting at most workers jobs at
// once.
func NewPoolBackend(workers int, log logrus.FieldLogger) (*PoolBackend, error) {
	if workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &PoolBackend{workers: workers, log: log}, nil
}

// Name identifies the backend.
func (b *PoolBackend) Name() string {
	return "pool"
}

// Run blocks until every job has reached a terminal state. Job failures are
// collected, not short-circuited: a failed job never prevents the admission
// of remaining pending jobs.
func (b *PoolBackend) Run(ctx context.Context, jobs []*jobmanager.Job) error {
	var g errgroup.Group
	g.SetLimit(b.workers)

	var mu sync.Mutex
	var failures *multierror.Error

	// g.Go blocks while all slots are busy, so iterating the job slice in
	// order preserves ascending admission.
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := job.Run(ctx); err != nil {
				mu.Lock()
				failures = multierror.Append(failures, err)
				mu.Unlock()
			}

			return nil
		})
	}

	g.Wait()

	return failures.ErrorOrNil()
}
