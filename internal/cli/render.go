package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/pipeline"
	"github.com/matzehuels/flowset/pkg/render"
)

// renderOpts holds the render-specific command-line flags.
type renderOpts struct {
	output  string   // output file (single format) or base path
	formats []string // svg, png, pdf, json, dot, tree
	scale   float64  // PNG scale factor
	debug   bool     // draw introspection tags
	tags    bool     // include tags in JSON and DOT
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		formatsStr string
	)
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render a document to SVG, PNG, PDF, JSON, DOT or a frame tree",
		Long: `Render a document to one or more output formats.

  svg   stacked pages
  png   stacked pages, rasterized
  pdf   stacked pages (needs rsvg-convert)
  json  positioned items per page
  dot   the frame tree in Graphviz DOT
  tree  the frame tree rendered to SVG by Graphviz

Rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], flags, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot, tree (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "draw introspection tags")
	cmd.Flags().BoolVar(&opts.tags, "tags", false, "include tags in JSON and DOT output")
	flags.register(cmd)

	return cmd
}

// runRender renders input to the requested formats and writes one file per
// format.
func (c *CLI) runRender(ctx context.Context, input string, flags layoutFlags, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	if slices.Contains(opts.formats, pipeline.FormatPDF) && !render.ConverterAvailable() {
		return fmt.Errorf("pdf output needs rsvg-convert: brew install librsvg (macOS), apt install librsvg2-bin (Linux)")
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := flags.options()
	popts.Formats = opts.formats
	popts.Scale = opts.scale
	popts.Debug = opts.debug
	popts.Tags = opts.tags

	logger.Debugf("Rendering %s", input)
	res, err := runner.Execute(ctx, pipeline.Source{Name: input, Data: data}, popts)
	if err != nil {
		return err
	}

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := base + "." + pipeline.Extension(format)
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(res)
	for _, w := range res.Warnings {
		printWarning("%s", w.Message)
	}
	return nil
}
