// Package cli implements the astar command-line interface.
//
// # Commands
//
//   - maze: generate (or read) an ASCII maze and draw its shortest path
//   - route: shortest route between two stations of a CSV transit network
//   - tan: solve a journey given in the tan text format
//   - serve: run the HTTP visualizer and route API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports per-search statistics. Loggers are passed through context.Context.
//
// # Configuration
//
// --config points at a TOML file, see the config package. Flags override
// values from the file.
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pdrpinto/astar"
	"github.com/pdrpinto/astar/internal/config"
)

// CLI holds state shared by all commands.
type CLI struct {
	configPath string
	verbose    bool
	cfg        config.Config
}

// New returns a CLI with the default configuration.
func New() *CLI {
	return &CLI{cfg: config.Default()}
}

// Execute runs the command line with ctx, typically canceled on SIGINT.
func Execute(ctx context.Context) error {
	return New().RootCommand().ExecuteContext(ctx)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "astar",
		Short:             "A* path finding on mazes, grids and transit networks",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML configuration file")

	root.AddCommand(c.mazeCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.tanCommand())
	root.AddCommand(c.serveCommand())
	return root
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.cfg = cfg
	cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
	return nil
}

// searchOptions applies the [search] section and reports statistics of each
// search to the context logger.
func (c *CLI) searchOptions(ctx context.Context, source string) []astar.Option {
	return append(c.cfg.Search.Options(), astar.WithObserver(logObserver(loggerFromContext(ctx), source)))
}
