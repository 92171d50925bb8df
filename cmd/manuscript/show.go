package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <manuscript-id>",
		Short: "Print a stored catalog as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rid, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid manuscript id: %w", err)
			}

			c, err := a.connect()
			if err != nil {
				return err
			}
			defer c.Close()

			stored, catalog, err := c.LoadCatalog(rid)
			if err != nil {
				return err
			}

			data, err := catalog.Marshal()
			if err != nil {
				return fmt.Errorf("rendering catalog: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s (%d chapters, stored %s)\n", stored.Title, stored.ChapterCount, stored.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
