package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/nixpig/simrunner/internal/jobmanager"
)

// DelegatingBackend hands the full job-id sequence and the admission cap to
// GNU parallel, which re-invokes this binary in single-job mode for each id.
// The in-process job handles stay Pending; per-id outcomes are recovered from
// the output artifacts by the aggregator.
type DelegatingBackend struct {
	tool        string
	workers     int
	selfCommand []string
	log         logrus.FieldLogger
}

// NewDelegatingBackend creates a DelegatingBackend, resolving the external
// tool on PATH. selfCommand is the single-job argv with the tool's "{}"
// placeholder standing in for the job id.
func NewDelegatingBackend(
	workers int,
	selfCommand []string,
	log logrus.FieldLogger,
) (*DelegatingBackend, error) {
	if workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}

	if len(selfCommand) == 0 {
		return nil, errors.New("self command cannot be empty")
	}

	tool, err := exec.LookPath(ToolName)
	if err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", ToolName, err)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &DelegatingBackend{
		tool:        tool,
		workers:     workers,
		selfCommand: selfCommand,
		log:         log,
	}, nil
}

// Name identifies the backend.
func (b *DelegatingBackend) Name() string {
	return ToolName
}

// Run blocks until the external tool reports completion of all jobs. The
// tool guarantees the admission cap and ascending admission; its exit code
// carries the number of failed slots, from which the aggregate result is
// derived.
func (b *DelegatingBackend) Run(ctx context.Context, jobs []*jobmanager.Job) error {
	// --quote stops the tool's shell from re-splitting command arguments
	// that contain spaces, e.g. a collaborator argv passed as one flag value.
	args := []string{
		"--jobs", strconv.Itoa(b.workers),
		"--halt", "never",
		"--quote",
	}
	args = append(args, b.selfCommand...)
	args = append(args, ":::")

	for _, job := range jobs {
		args = append(args, strconv.Itoa(job.ID()))
	}

	b.log.WithFields(logrus.Fields{
		"tool":    b.tool,
		"workers": b.workers,
		"jobs":    len(jobs),
	}).Info("delegating scheduling")

	cmd := exec.CommandContext(ctx, b.tool, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf(
				"%d of %d jobs failed",
				exitErr.ExitCode(),
				len(jobs),
			)
		}

		return fmt.Errorf("failed to run %s: %w", ToolName, err)
	}

	return nil
}
