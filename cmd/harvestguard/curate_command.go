package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvestguard/internal/curation"
)

func newCurateCommand() *cobra.Command {
	var maxPerGroup int

	cmd := &cobra.Command{
		Use:   "curate <candidate-dir> <reference-dir>",
		Short: "Build the reference corpus from a candidate image tree",
		Long:  "Walks candidate-dir (category/brand/image), rejects undersized and duplicate images, and writes accepted samples in canonical form to reference-dir.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			store, err := c.ReferenceStore(args[1])
			if err != nil {
				return err
			}

			opts := curation.DefaultOptions()
			opts.MinWidth = c.Config().MinImageWidth
			opts.MinHeight = c.Config().MinImageHeight
			opts.MaxPerGroup = maxPerGroup

			curator := curation.NewCurator(c.Normalizer(), store, opts)
			samples, summary, err := curator.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accepted:        %d\n", len(samples))
			fmt.Fprintf(out, "Skipped:         %d\n", summary.Skipped)
			fmt.Fprintf(out, "  low quality:   %d\n", summary.LowQuality)
			fmt.Fprintf(out, "  duplicates:    %d\n", summary.Duplicates)
			fmt.Fprintf(out, "  decode errors: %d\n", summary.DecodeFailures)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPerGroup, "max-per-group", 30, "cap on accepted samples per category/brand group (0 = no cap)")
	return cmd
}
