package main

import (
	"github.com/spf13/cobra"

	"harvestguard/internal/config"
	"harvestguard/internal/container"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "harvestguard",
		Short:         "Counterfeit package detection from reconstruction-error scoring",
		Long:          "harvestguard scores photographed product packages against a learned model of normal appearance and flags likely counterfeits.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newScanCommand(),
		newCalibrateCommand(),
		newCurateCommand(),
	)
	return cmd
}

// buildContainer loads config and the model artifacts for one CLI run.
func buildContainer() (*container.Container, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	return container.NewContainer(cfg)
}
