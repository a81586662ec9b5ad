// Package cli implements the flowset command-line interface.
//
// Commands: layout, render, preview, serve, cache, version and completion.
// Every command accepts --verbose (-v), which lowers the log level to debug
// and reports engine, pipeline and cache events through the logger. The
// logger travels through the command context; see loggerFromContext.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/buildinfo"
	"github.com/matzehuels/flowset/pkg/cache"
	"github.com/matzehuels/flowset/pkg/observability"
	"github.com/matzehuels/flowset/pkg/pipeline"
)

// appName names the binary, the log prefix and the cache directory.
const appName = "flowset"

const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds the state shared by all commands.
type CLI struct {
	Logger  *log.Logger
	verbose bool
}

// New returns a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel changes the level of the shared logger.
func (c *CLI) SetLogLevel(level log.Level) { c.Logger.SetLevel(level) }

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowset lays out flowing content into pages and columns",
		Long: `Flowset distributes paragraphs, blocks, floats and footnotes over a
sequence of regions, breaking content across pages and columns.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.before,
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output and pipeline events")

	root.AddCommand(
		c.layoutCommand(),
		c.renderCommand(),
		c.previewCommand(),
		c.serveCommand(),
		c.cacheCommand(),
		c.versionCommand(),
		c.completionCommand(),
	)
	return root
}

// before runs ahead of every command, once flags are parsed.
func (c *CLI) before(cmd *cobra.Command, _ []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		observability.InstallLogHooks(c.Logger)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// versionCommand prints build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(buildinfo.String())
		},
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
