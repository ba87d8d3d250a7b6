package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ticket-checkout/internal/server"
	"ticket-checkout/internal/session"
	"ticket-checkout/internal/tui"
)

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Check out from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}

			// log lines would tear the alternate screen
			app, err := server.NewApp(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer app.Close()

			return tui.Run(tui.New(app.Checkout, app.Catalogs, app.Invoices, session.NewMemoryStore()))
		},
	}
}
