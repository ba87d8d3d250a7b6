package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ticket-checkout/internal/repositories"
	"ticket-checkout/internal/server"
)

func newSeedCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load event catalogs into the database",
		Long:  `Replaces the catalogs of every event in the file (or the bundled demo catalog) in the configured database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			static := repositories.DemoCatalog()
			if file != "" {
				var err error
				if static, err = repositories.LoadStaticCatalogFile(file); err != nil {
					return err
				}
			}

			db, err := c.connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			n, err := server.SeedCatalogs(cmd.Context(), repositories.NewCatalogRepository(db.DB), static)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d event catalogs\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog JSON file (defaults to the demo catalog)")
	return cmd
}
