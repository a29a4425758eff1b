package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	// NOTE: cobra exposes its flag sets as pflag.FlagSet, so working with
	// pflag directly keeps the config file merge free of cobra specifics.
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nixpig/simrunner/internal/orchestrator"
	"github.com/nixpig/simrunner/internal/scheduler"
	"github.com/nixpig/simrunner/internal/sim"
)

var (
	defaultInitCommand = sim.DefaultInitCommand
	defaultMainCommand = sim.DefaultMainCommand
)

type config struct {
	jobs        int
	simTime     int
	initTime    int
	restartTime int
	cores       int
	outputDir   string
	workDir     string
	backend     string
	initCmd     string
	simCmd      string
	configFile  string
	debug       bool
}

func (c *config) registerFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&c.jobs, "jobs", "n", 10, "Number of simulations to run")
	flags.IntVarP(&c.simTime, "sim-time", "t", 20, "Simulation time in minutes")
	flags.IntVarP(&c.initTime, "init-time", "i", 1, "Initialization time in minutes")
	flags.IntVarP(
		&c.restartTime,
		"restart-time",
		"r",
		1,
		"Checkpoint/restart interval in minutes",
	)
	flags.IntVarP(
		&c.cores,
		"cores",
		"j",
		0,
		"Number of CPU cores to use (0 = auto-detect)",
	)
	flags.StringVar(
		&c.outputDir,
		"output-dir",
		"simulations",
		"Directory simulation artifacts are written to",
	)
	flags.StringVar(
		&c.workDir,
		"work-dir",
		"",
		"Working directory for simulation subprocesses",
	)
	flags.StringVar(
		&c.backend,
		"backend",
		string(scheduler.ModeAuto),
		"Scheduling backend: auto, parallel, or pool",
	)
	flags.StringVar(
		&c.initCmd,
		"init-cmd",
		strings.Join(defaultInitCommand, " "),
		"Initialization-phase command",
	)
	flags.StringVar(
		&c.simCmd,
		"sim-cmd",
		strings.Join(defaultMainCommand, " "),
		"Main-phase command",
	)
	flags.StringVar(&c.configFile, "config", "", "Path to YAML config file")
	flags.BoolVar(&c.debug, "debug", false, "Enable debug logs")
}

// mergeConfigFile overlays values from the YAML config file onto flags the
// user did not set explicitly. Flags always win over the file.
func (c *config) mergeConfigFile(flags *pflag.FlagSet) error {
	if c.configFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(c.configFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var mergeErr error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}

		if err := flags.Set(f.Name, v.GetString(f.Name)); err != nil && mergeErr == nil {
			mergeErr = fmt.Errorf("invalid config value for %q: %w", f.Name, err)
		}
	})

	return mergeErr
}

func (c *config) validate() error {
	if c.jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.jobs)
	}

	if c.simTime < 1 || c.initTime < 1 || c.restartTime < 1 {
		return errors.New("durations must be at least 1 minute")
	}

	if c.cores < 0 {
		return fmt.Errorf("cores cannot be negative, got %d", c.cores)
	}

	if c.outputDir == "" {
		return errors.New("output-dir cannot be empty")
	}

	switch scheduler.Mode(c.backend) {
	case scheduler.ModeAuto, scheduler.ModeParallel, scheduler.ModePool:
	default:
		return fmt.Errorf("unknown backend: %q", c.backend)
	}

	if len(strings.Fields(c.initCmd)) == 0 {
		return errors.New("init-cmd cannot be empty")
	}

	if len(strings.Fields(c.simCmd)) == 0 {
		return errors.New("sim-cmd cannot be empty")
	}

	return nil
}

// selfCommand builds the argv the delegating backend's external tool uses to
// re-invoke this binary in single-job mode, with "{}" standing in for the
// job id.
func (c *config) selfCommand(executable string) []string {
	return []string{
		executable,
		"job",
		"--id", "{}",
		"--jobs", strconv.Itoa(c.jobs),
		"--sim-time", strconv.Itoa(c.simTime),
		"--restart-time", strconv.Itoa(c.restartTime),
		"--cores", strconv.Itoa(c.cores),
		"--output-dir", c.outputDir,
		"--work-dir", c.workDir,
		"--init-cmd", c.initCmd,
		"--sim-cmd", c.simCmd,
	}
}

func (c *config) orchestratorConfig(
	log *logrus.Logger,
	selfCommand []string,
) orchestrator.Config {
	return orchestrator.Config{
		Jobs:           c.jobs,
		SimMinutes:     c.simTime,
		InitMinutes:    c.initTime,
		RestartMinutes: c.restartTime,
		Cores:          c.cores,
		OutputDir:      c.outputDir,
		WorkDir:        c.workDir,
		Backend:        scheduler.Mode(c.backend),
		InitCommand:    strings.Fields(c.initCmd),
		MainCommand:    strings.Fields(c.simCmd),
		SelfCommand:    selfCommand,
		Log:            log,
	}
}
