package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/logger"
	"ticket-checkout/internal/server"
)

// cli carries what every subcommand needs
type cli struct {
	logLevel   string
	loadConfig func() (*config.Config, error)
}

func main() {
	c := &cli{loadConfig: config.Load}
	if err := newRootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "checkoutctl",
		Short:         "Operate the ticket checkout",
		Long:          `Run migrations, seed catalogs, price selections, inspect orders and check out from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newEventsCmd(c),
		newQuoteCmd(c),
		newOrdersCmd(c),
		newTUICmd(c),
	)
	return root
}

func (c *cli) config() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Server.LogLevel = c.logLevel
	return cfg, nil
}

func (c *cli) logger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Server.Env, cfg.Server.LogLevel)
}

// app builds the checkout the same way the server does
func (c *cli) app() (*server.App, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	zl, err := c.logger(cfg)
	if err != nil {
		return nil, err
	}
	return server.NewApp(cfg, zl)
}
