package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newEventsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List events with a ticket catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app()
			if err != nil {
				return err
			}
			defer app.Close()

			events, err := app.Catalogs.ListEvents(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Event", "Venue", "Starts"})
			for _, e := range events {
				t.AppendRow(table.Row{e.ID, e.Name, e.Venue, e.StartsAt.Format("2006-01-02 15:04 MST")})
			}
			t.Render()
			return nil
		},
	}
}
