package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate <reference-dir>",
		Short: "Recalibrate the anomaly threshold from a reference corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.ScanService().Calibrate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Samples:    %d\n", stats.SampleCount)
			fmt.Fprintf(out, "Mean error: %.6f\n", stats.MeanError)
			fmt.Fprintf(out, "Std dev:    %.6f\n", stats.StdError)
			fmt.Fprintf(out, "Threshold:  %.6f (mean + %.1f*std)\n", stats.Threshold, stats.Multiplier)
			fmt.Fprintf(out, "Written to: %s\n", c.Config().CalibrationPath)
			return nil
		},
	}
	return cmd
}
