package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobboard-gateway/internal/app"
	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/internal/logging/adapters"
)

// Builder creates the application the commands operate on
type Builder func(ctx context.Context, cfg *config.Config, logger logging.Logger, opts app.Options) (*app.App, error)

type cli struct {
	cfgFile  string
	backend  string
	noEnrich bool
	verbose  bool
	output   string

	build Builder
	app   *app.App
}

// Execute runs jobsctl against the real store
func Execute() {
	root := NewRootCmd(app.Build)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd assembles the command tree around build
func NewRootCmd(build Builder) *cobra.Command {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:   "jobsctl",
		Short: "Inspect and append to the job board store",
		Long: `jobsctl reads and writes the job collection directly through the
configured store backend, using the same retry and enrichment rules as
the gateway.`,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "configs/config.yaml", "configuration file")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "override store backend (github, spaces, redis, memory)")
	root.PersistentFlags().BoolVar(&c.noEnrich, "no-enrich", false, "skip company summary and spam classification")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "table", "output format (table, json)")

	root.AddCommand(c.listCmd(), c.getCmd(), c.addCmd(), c.healthCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.output != "table" && c.output != "json" {
		return fmt.Errorf("unsupported output format: %s", c.output)
	}

	cfg, err := config.LoadConfig(c.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
	}

	logger := logging.NewMultiLogger()
	if err := logger.AddAdapter(adapters.NewStdoutAdapter("stderr", adapters.StdoutConfig{
		Format: "text",
		Writer: cmd.ErrOrStderr(),
	})); err != nil {
		return err
	}
	logger.SetLevel(logging.WarnLevel)
	if c.verbose {
		logger.SetLevel(logging.DebugLevel)
	}

	c.app, err = c.build(cmd.Context(), cfg, logger, app.Options{DisableEnrichment: c.noEnrich})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	return nil
}
