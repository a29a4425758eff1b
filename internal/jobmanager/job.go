package jobmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nixpig/simrunner/internal/sim"
	"github.com/nixpig/simrunner/internal/workspace"
)

// execTimeoutBuffer is the grace period granted beyond the simulation's own
// duration bound before the subprocess is killed.
const execTimeoutBuffer = 5 * time.Minute

// Runner holds the run-wide collaborators shared by every Job: the workspace
// layout, the subprocess invoker, and the simulation durations. All jobs in a
// run share the same durations; the identifier is the only distinguishing
// input.
type Runner struct {
	ws             *workspace.Workspace
	invoker        *sim.Invoker
	simMinutes     int
	restartMinutes int
	log            logrus.FieldLogger
}

// NewRunner creates a Runner ready to create and run Jobs.
func NewRunner(
	ws *workspace.Workspace,
	invoker *sim.Invoker,
	simMinutes int,
	restartMinutes int,
	log logrus.FieldLogger,
) (*Runner, error) {
	if ws == nil {
		return nil, errors.New("workspace cannot be nil")
	}

	if invoker == nil {
		return nil, errors.New("invoker cannot be nil")
	}

	if simMinutes < 1 || restartMinutes < 1 {
		return nil, fmt.Errorf(
			"durations must be at least 1 minute, got sim=%d restart=%d",
			simMinutes,
			restartMinutes,
		)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Runner{
		ws:             ws,
		invoker:        invoker,
		simMinutes:     simMinutes,
		restartMinutes: restartMinutes,
		log:            log,
	}, nil
}

// NewJob creates a Job for the given identifier in JobStatePending.
func (r *Runner) NewJob(id int) *Job {
	j := &Job{
		id:      id,
		runner:  r,
		logPath: r.ws.LogPath(id),
	}

	j.state.Store(JobStatePending)

	return j
}

// Job represents one simulation run identified by an integer id. It stages a
// private copy of the shared initial condition, executes the main-phase
// collaborator, and records the outcome. A Job runs at most once; terminal
// states are final.
type Job struct {
	id      int
	runner  *Runner
	state   AtomicJobState
	logPath string
}

// JobStatus is a point-in-time snapshot of a Job.
type JobStatus struct {
	ID    int
	State JobState
}

// ID returns the identifier of the Job.
func (j *Job) ID() int {
	return j.id
}

// State returns the state of the Job.
func (j *Job) State() JobState {
	return j.state.Load()
}

// LogPath returns the path of the Job's log file.
func (j *Job) LogPath() string {
	return j.logPath
}

// Status returns the status of the Job.
func (j *Job) Status() JobStatus {
	return JobStatus{
		ID:    j.id,
		State: j.state.Load(),
	}
}

// Run executes the Job's phases: stage the private initial condition, then
// run the main-phase collaborator. Each phase short-circuits to
// JobStateFailed on error. Trying to run a Job that is not in JobStatePending
// returns an InvalidStateError.
//
// Errors are job-local: a failed Job never stops its siblings. Run returns
// workspace.ErrMissingSharedState, a StageError, or a SimulationError,
// wrapped with the job id.
func (j *Job) Run(ctx context.Context) error {
	if !j.state.CompareAndSwap(JobStatePending, JobStateRunning) {
		return NewInvalidStateError(j.state.Load(), JobStateRunning)
	}

	if err := j.run(ctx); err != nil {
		j.state.Store(JobStateFailed)

		j.runner.log.WithField("job", j.id).WithError(err).Error("job failed")

		return fmt.Errorf("job %d: %w", j.id, err)
	}

	j.state.Store(JobStateSucceeded)

	return nil
}

func (j *Job) run(ctx context.Context) error {
	log := j.runner.log.WithField("job", j.id)

	logFile, err := os.OpenFile(
		j.logPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return StageError{err}
	}
	defer logFile.Close()

	log.Info("staging shared initial condition")

	if err := j.runner.ws.Stage(j.id); err != nil {
		if errors.Is(err, workspace.ErrMissingSharedState) {
			return err
		}

		return StageError{err}
	}

	log.Info("starting simulation")

	// The collaborator bounds its own runtime via the -t flag; the context
	// timeout is a backstop against a hung subprocess.
	timeout := time.Duration(j.runner.simMinutes)*time.Minute + execTimeoutBuffer
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := j.runner.invoker.Main(
		execCtx,
		j.id,
		j.runner.simMinutes,
		j.runner.restartMinutes,
	)

	cmd.Stdout = logFile
	cmd.Stderr = logFile

	start := time.Now()

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}

		if ctxErr := execCtx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return SimulationError{ExitCode: exitCode, err: err}
	}

	log.WithField("runtime", time.Since(start).Round(time.Second)).
		Info("simulation completed")

	return nil
}
