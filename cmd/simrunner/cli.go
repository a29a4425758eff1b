package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nixpig/simrunner/internal/orchestrator"
)

// TODO: Inject version at build time.
const version = "0.0.1"

func rootCmd() *cobra.Command {
	cfg := &config{}
	log := logrus.New()

	command := &cobra.Command{
		Use:   "simrunner",
		Short: "Run parallel minimal cell simulations with a shared initial condition",
		Example: `  # Run 10 simulations for 20 minutes using all available cores
  simrunner

  # Run 5 simulations for 60 minutes using 4 cores
  simrunner -n 5 -t 60 -j 4`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(log, cfg.debug)

			return cfg.mergeConfigFile(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to resolve own executable: %w", err)
			}

			rep, err := orchestrator.Run(
				cmd.Context(),
				cfg.orchestratorConfig(log, cfg.selfCommand(executable)),
			)
			if err != nil {
				return err
			}

			if !rep.AllSucceeded() {
				return fmt.Errorf(
					"%d of %d simulations failed",
					rep.Total-rep.Succeeded,
					rep.Total,
				)
			}

			return nil
		},
	}

	cfg.registerFlags(command.PersistentFlags())

	command.AddCommand(jobCmd(cfg, log))

	command.CompletionOptions.HiddenDefaultCmd = true

	return command
}

// jobCmd runs exactly one simulation job. It exists for the delegating
// backend: the external fan-out tool invokes it once per admitted id.
func jobCmd(cfg *config, log *logrus.Logger) *cobra.Command {
	var id int

	command := &cobra.Command{
		Use:    "job",
		Short:  "Run a single simulation job (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			return orchestrator.RunSingle(
				cmd.Context(),
				cfg.orchestratorConfig(log, nil),
				id,
			)
		},
	}

	command.Flags().IntVar(&id, "id", 0, "Job identifier")

	return command
}

func configureLogging(log *logrus.Logger, debug bool) {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
}
