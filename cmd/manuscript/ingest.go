package main

import (
	"fmt"

	"github.com/siherrmann/manuscript/core/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	var minBlankLines int

	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Split a manuscript into chapters and sentences and print totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-blank-lines") {
				minBlankLines = a.cfg.Ingest.MinBlankLines
			}

			ingester := ingest.NewIngester(minBlankLines, ingest.NewSegmenter(a.cfg.Ingest.Segmenter), a.log)
			chapters, err := ingester.Ingest(args[0])
			if err != nil {
				return err
			}

			summary := ingest.Stats(chapters, 3)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chapters:   %d\n", summary.Chapters)
			fmt.Fprintf(out, "Characters: %d\n", summary.Characters)
			fmt.Fprintf(out, "Sentences:  %d\n", summary.Sentences)
			for _, title := range summary.Titles {
				fmt.Fprintf(out, "  %s\n", title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minBlankLines, "min-blank-lines", 1, "Blank lines that separate two chapters")
	return cmd
}
