package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/siherrmann/manuscript"
	"github.com/siherrmann/manuscript/helper"
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	var (
		out       string
		ner       string
		noCoref   bool
		store     bool
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "catalog <path>",
		Short: "Build the entity catalog of a manuscript and write it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("ner") {
				cfg.NER.Backend = ner
			}
			if noCoref {
				cfg.Coref.Enabled = false
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Cluster.SimilarityThreshold = threshold
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			store = store || cfg.Database.Enabled
			if !store {
				cfg.Database.EmbedNames = false
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			c, err := manuscript.NewCatalogerFromConfig(cfg, a.log)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.ProcessFile(ctx, args[0])
			if err != nil {
				return err
			}

			data, err := result.Catalog.Marshal()
			if err != nil {
				return fmt.Errorf("rendering catalog: %w", err)
			}

			if out == "" || out == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("writing catalog: %w", err)
			}

			stats := result.Stats
			fmt.Fprintf(cmd.ErrOrStderr(), "%d entities from %d mentions (%d skipped, %d unattached)\n",
				len(result.Catalog.Entities), stats.Mentions, stats.Skipped, stats.Unattached)

			if !store {
				return nil
			}

			dbConfig, err := helper.NewDatabaseConfiguration()
			if err != nil {
				return err
			}
			if err := c.ConnectDatabase(dbConfig); err != nil {
				return err
			}
			stored, err := c.StoreCatalog(ctx, args[0], result)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Stored as %s\n", stored.RID)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the catalog JSON to this file instead of stdout")
	cmd.Flags().StringVar(&ner, "ner", "hugot", "Recogniser backend: hugot or prose")
	cmd.Flags().BoolVar(&noCoref, "no-coref", false, "Disable pronoun coreference")
	cmd.Flags().BoolVar(&store, "store", false, "Persist the catalog to postgres (DATABASE_* environment variables)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.86, "Similarity threshold for fuzzy alias merges")
	return cmd
}
