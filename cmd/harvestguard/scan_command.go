package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"harvestguard/internal/batch"
	"harvestguard/internal/logger"
	"harvestguard/internal/service"
	"harvestguard/pkg/models"
)

func newScanCommand() *cobra.Command {
	var (
		threshold  float64
		userID     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scan <image|directory|archive.zip> [more paths...]",
		Short: "Score images and print accept/flag decisions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !jsonOutput {
				logger.SetQuiet()
			}

			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			opts := service.ScanOptions{UserID: userID}
			if cmd.Flags().Changed("threshold") {
				opts.ThresholdOverride = &threshold
			}

			var in batch.Input
			if len(args) == 1 {
				in = batch.FromPath(args[0])
			} else {
				in = batch.FromList(args)
			}

			summary, err := c.ScanService().ScanBatch(cmd.Context(), in, opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			renderSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "override the calibrated anomaly threshold for this run")
	cmd.Flags().StringVar(&userID, "user", "", "owning user recorded with each result")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full batch summary as JSON")
	return cmd
}

func renderSummary(cmd *cobra.Command, summary models.BatchSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Image", "Error", "Anomaly", "Decision", "Confidence"})
	for _, r := range summary.Results {
		if r.Failed() {
			t.AppendRow(table.Row{r.ImageIdentifier, "-", "-", r.Decision, "-"})
			continue
		}
		t.AppendRow(table.Row{
			r.ImageIdentifier,
			fmt.Sprintf("%.5f", r.ReconstructionError),
			r.IsAnomaly,
			r.Decision,
			fmt.Sprintf("%.4f", r.Confidence),
		})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d image(s): %d ok, %d failed\n",
		summary.TotalScanned, summary.Succeeded, summary.Failed)
	if summary.PersistenceError != "" {
		fmt.Fprintf(os.Stderr, "Warning: results computed but not persisted: %s\n", summary.PersistenceError)
	}
}
