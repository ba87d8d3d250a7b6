package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/database"
	"ticket-checkout/internal/server"
)

var errNoDatabase = errors.New("no database configured; set DATABASE_URL or DATABASE_DRIVER")

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All migrations completed successfully!")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			defer db.Close()

			states, err := db.MigrationStatus()
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Version", "Name", "Tables", "Status", "Applied At"})
			for _, s := range states {
				status, at := "pending", ""
				if s.Applied {
					status = "applied"
					if !s.AppliedAt.IsZero() {
						at = s.AppliedAt.UTC().Format("2006-01-02 15:04")
					}
				}
				t.AppendRow(table.Row{s.Version, s.Name, strings.Join(s.Tables, ", "), status, at})
			}
			t.Render()

			tables, err := db.TableStatus()
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout())
			tt := table.NewWriter()
			tt.SetOutputMirror(cmd.OutOrStdout())
			tt.AppendHeader(table.Row{"Table", "Rows", "Sold / Capacity"})
			for _, ts := range tables {
				stock := ""
				if ts.Inventory {
					stock = fmt.Sprintf("%d / %d", ts.Sold, ts.Capacity)
				}
				tt.AppendRow(table.Row{ts.Name, ts.Rows, stock})
			}
			tt.Render()
			return nil
		},
	})

	return cmd
}

func (c *cli) connect() (*database.DB, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return connectConfigured(cfg.Database)
}

func connectConfigured(cfg config.DatabaseConfig) (*database.DB, error) {
	if cfg.Driver == "" {
		return nil, errNoDatabase
	}
	return server.Connect(cfg)
}
