// Package orchestrator wires the run pipeline: resource allocation, the
// shared initial-condition bootstrap, concurrency-bounded scheduling, result
// aggregation, and cleanup.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nixpig/simrunner/internal/alloc"
	"github.com/nixpig/simrunner/internal/jobmanager"
	"github.com/nixpig/simrunner/internal/report"
	"github.com/nixpig/simrunner/internal/scheduler"
	"github.com/nixpig/simrunner/internal/sim"
	"github.com/nixpig/simrunner/internal/threadenv"
	"github.com/nixpig/simrunner/internal/workspace"
)

// bootstrapTimeout bounds the initialization collaborator. The init phase is
// short by design; a run that cannot produce the shared initial condition
// within this window is not going to recover.
const bootstrapTimeout = 5 * time.Minute

// BootstrapError indicates the shared initial condition could not be
// produced. It is fatal: every job depends on the artifact, so the run aborts
// before any job is scheduled.
type BootstrapError struct {
	err error
}

func (e BootstrapError) Error() string {
	return fmt.Sprintf("failed to create shared initial condition: %s", e.err)
}

func (e BootstrapError) Unwrap() error {
	return e.err
}

// Config is the validated, immutable input for a run.
type Config struct {
	Jobs           int
	SimMinutes     int
	InitMinutes    int
	RestartMinutes int

	// Cores is the requested core budget; 0 means detect the host count.
	Cores int

	OutputDir string
	Backend   scheduler.Mode

	// InitCommand and MainCommand are the collaborator base argvs.
	InitCommand []string
	MainCommand []string

	// WorkDir is the working directory collaborators run in. Empty means the
	// orchestrator's own working directory.
	WorkDir string

	// SelfCommand is the single-job argv handed to the delegating backend,
	// with "{}" standing in for the job id.
	SelfCommand []string

	// Summary receives the final human-readable report. Defaults to stdout.
	Summary io.Writer

	Log *logrus.Logger
}

// Run executes the full pipeline and returns the consolidated report. A
// non-nil error means the run aborted before scheduling (configuration or
// bootstrap); job-local failures surface in the report, not the error.
func Run(ctx context.Context, cfg Config) (report.Report, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	summary := cfg.Summary
	if summary == nil {
		summary = os.Stdout
	}

	runLog := log.WithField("run", uuid.NewString())

	start := time.Now()

	cores := cfg.Cores
	if cores == 0 {
		detected, err := alloc.DetectCores()
		if err != nil {
			return report.Report{}, err
		}

		cores = detected
	}

	allocation, err := alloc.Allocate(cfg.Jobs, cores)
	if err != nil {
		return report.Report{}, err
	}

	runLog.WithFields(logrus.Fields{
		"jobs":    cfg.Jobs,
		"workers": allocation.Workers,
		"threads": allocation.ThreadsPerWorker,
		"cores":   cores,
	}).Info("resources allocated")

	ws, err := workspace.New(cfg.OutputDir)
	if err != nil {
		return report.Report{}, alloc.NewConfigurationError("%s", err)
	}

	invoker := &sim.Invoker{
		InitCommand: cfg.InitCommand,
		MainCommand: cfg.MainCommand,
		Dir:         cfg.WorkDir,
		Env:         threadenv.Limits(allocation.ThreadsPerWorker),
	}

	if err := bootstrap(ctx, ws, invoker, cfg.InitMinutes, runLog); err != nil {
		return report.Report{}, err
	}

	backend, err := scheduler.Select(
		cfg.Backend,
		allocation.Workers,
		cfg.SelfCommand,
		runLog,
	)
	if err != nil {
		return report.Report{}, alloc.NewConfigurationError("%s", err)
	}

	runLog.WithField("backend", backend.Name()).Info("starting simulations")

	runner, err := jobmanager.NewRunner(
		ws,
		invoker,
		cfg.SimMinutes,
		cfg.RestartMinutes,
		runLog,
	)
	if err != nil {
		return report.Report{}, alloc.NewConfigurationError("%s", err)
	}

	jobs := make([]*jobmanager.Job, 0, cfg.Jobs)
	for id := 1; id <= cfg.Jobs; id++ {
		jobs = append(jobs, runner.NewJob(id))
	}

	if err := backend.Run(ctx, jobs); err != nil {
		runLog.WithError(err).Error("run completed with failed jobs")
	}

	rep := report.Aggregate(ws, cfg.Jobs)

	// The delegating backend runs jobs out of process, so in-process handles
	// carry no terminal states to compare against.
	if _, ok := backend.(*scheduler.PoolBackend); ok {
		statuses := make([]jobmanager.JobStatus, 0, len(jobs))
		for _, job := range jobs {
			statuses = append(statuses, job.Status())
		}

		for _, id := range rep.Disagreements(statuses) {
			runLog.WithField("job", id).Warn(
				"job status disagrees with artifact verification",
			)
		}
	}

	cleanup(ws, runLog)

	if err := rep.WriteSummary(summary, time.Since(start)); err != nil {
		runLog.WithError(err).Warn("failed to write summary")
	}

	return rep, nil
}

// RunSingle executes exactly one job. It is invoked by the delegating
// backend's external tool, one subprocess per admitted id.
func RunSingle(ctx context.Context, cfg Config, id int) error {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	if id < 1 {
		return alloc.NewConfigurationError("job id must be at least 1, got %d", id)
	}

	cores := cfg.Cores
	if cores == 0 {
		detected, err := alloc.DetectCores()
		if err != nil {
			return err
		}

		cores = detected
	}

	allocation, err := alloc.Allocate(cfg.Jobs, cores)
	if err != nil {
		return err
	}

	ws, err := workspace.New(cfg.OutputDir)
	if err != nil {
		return alloc.NewConfigurationError("%s", err)
	}

	invoker := &sim.Invoker{
		InitCommand: cfg.InitCommand,
		MainCommand: cfg.MainCommand,
		Dir:         cfg.WorkDir,
		Env:         threadenv.Limits(allocation.ThreadsPerWorker),
	}

	runner, err := jobmanager.NewRunner(
		ws,
		invoker,
		cfg.SimMinutes,
		cfg.RestartMinutes,
		log,
	)
	if err != nil {
		return alloc.NewConfigurationError("%s", err)
	}

	return runner.NewJob(id).Run(ctx)
}

func bootstrap(
	ctx context.Context,
	ws *workspace.Workspace,
	invoker *sim.Invoker,
	initMinutes int,
	log logrus.FieldLogger,
) error {
	log.Info("creating shared initial condition")

	logFile, err := os.OpenFile(
		ws.LogPath(workspace.SharedID),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return BootstrapError{err}
	}
	defer logFile.Close()

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	cmd := invoker.Init(bootCtx, workspace.SharedID, initMinutes)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		log.WithError(err).Error("bootstrap failed")

		return BootstrapError{err}
	}

	// An exit status of zero is not trusted on its own: the artifact must
	// exist and be non-empty before any job is admitted.
	if err := ws.CheckShared(); err != nil {
		log.WithError(err).Error("bootstrap produced no artifact")

		return BootstrapError{err}
	}

	log.WithField("artifact", ws.SharedSnapshotPath()).
		Info("shared initial condition created")

	return nil
}

func cleanup(ws *workspace.Workspace, log logrus.FieldLogger) {
	if err := ws.RemoveShared(); err != nil {
		// Removal failure is logged, never fatal.
		log.WithError(err).Warn("failed to remove shared initial condition")
		return
	}

	log.Info("shared initial condition removed")
}

// ExitCode converts a run outcome into the orchestrator's process exit code:
// 0 iff every job id produced both expected artifacts.
func ExitCode(rep report.Report, err error) int {
	if err != nil || !rep.AllSucceeded() {
		return 1
	}

	return 0
}
