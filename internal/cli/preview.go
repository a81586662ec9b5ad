package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/pipeline"
)

// previewCommand creates the interactive page browser.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		flags layoutFlags
		tags  bool
	)

	cmd := &cobra.Command{
		Use:   "preview [document]",
		Short: "Browse the laid-out pages of a document in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], flags, tags)
		},
	}

	cmd.Flags().BoolVar(&tags, "tags", false, "list introspection tags")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input string, flags layoutFlags, tags bool) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	parsed, err := runner.Parse(ctx, pipeline.Source{Name: input, Data: data})
	if err != nil {
		return err
	}
	frag, warnings, err := runner.Layout(ctx, parsed, flags.options())
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printWarning("%s", w.Message)
	}

	model := newPageListModel(input, summarizePages(frag, tags))
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}
