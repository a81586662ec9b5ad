package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		tags   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document...]",
		Short: "Lay out documents and write their JSON layout",
		Long: `Lay out one or more documents and write their JSON layout.

A document is a TOML or JSON file describing the page regions, flow settings
and content. For every input, the layout is written next to it as
<input>.layout.json unless --output is given (single input only).

Multiple documents are laid out in parallel.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output requires a single input")
			}
			opts := flags.options()
			opts.Formats = []string{pipeline.FormatJSON}
			opts.Tags = tags
			return c.runLayout(cmd.Context(), args, opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&tags, "tags", false, "include introspection tags")
	flags.register(cmd)

	return cmd
}

// runLayout lays out all inputs and writes one layout file per input.
func (c *CLI) runLayout(ctx context.Context, inputs []string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srcs := make([]pipeline.Source, len(inputs))
	for i, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return fmt.Errorf("read %s: %w", in, err)
		}
		srcs[i] = pipeline.Source{Name: in, Data: data}
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d document(s)...", len(srcs)))
	spinner.Start()

	results, err := runner.ExecuteAll(ctx, srcs, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	for _, res := range results {
		path := output
		if path == "" {
			path = basePath("", res.Source) + ".layout.json"
		}
		if err := os.WriteFile(path, res.Artifacts[pipeline.FormatJSON], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
		printStats(res)
	}
	prog.done(fmt.Sprintf("Laid out %d document(s)", len(results)))

	if len(results) == 1 {
		printNewline()
		printNextStep("Browse", appName+" preview "+results[0].Source)
	}
	return nil
}
