package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/manuscript"
	"github.com/siherrmann/manuscript/core/pipeline"
	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
	"github.com/spf13/cobra"
)

// connect opens a cataloger that only talks to the database
func (a *app) connect() (*manuscript.Cataloger, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	c := manuscript.NewCataloger(nil, nil, a.cfg.ClusterConfig(), a.log)
	if err := c.ConnectDatabase(dbConfig); err != nil {
		return nil, err
	}
	return c, nil
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		kind      string
		limit     int
		similar   bool
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search stored entities by canonical name or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kindFilter *model.Kind
			if kind != "" {
				k := model.Kind(strings.ToUpper(kind))
				if !k.Valid() {
					return fmt.Errorf("unknown kind %q", kind)
				}
				kindFilter = &k
			}

			c, err := a.connect()
			if err != nil {
				return err
			}
			defer c.Close()

			var found []*model.StoredEntity
			if similar {
				embedder, err := pipeline.NewHugotEmbedder(a.cfg.Database.EmbedModel)
				if err != nil {
					return err
				}
				c.Embedder = embedder
				found, err = c.SearchSimilar(context.Background(), args[0], limit, threshold)
				if err != nil {
					return err
				}
			} else {
				found, err = c.Search(args[0], kindFilter, limit)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No entities found.")
				return nil
			}
			for _, e := range found {
				line := fmt.Sprintf("%s  %-4s %-12s %s", e.ManuscriptRID, e.ID, e.Kind, e.Canonical)
				if len(e.Aliases) > 0 {
					line += fmt.Sprintf(" (%s)", strings.Join(e.Aliases, ", "))
				}
				if e.Similarity != nil {
					line += fmt.Sprintf(" [%.3f]", *e.Similarity)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only return entities of this kind")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&similar, "similar", false, "Search by name embedding instead of substring")
	cmd.Flags().Float64Var(&threshold, "min-similarity", 0.7, "Minimum cosine similarity for --similar")
	return cmd
}
