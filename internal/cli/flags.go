package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/pipeline"
)

// layoutFlags are the engine overrides shared by layout, render and preview.
type layoutFlags struct {
	columns int
	gutter  float64
	balance string
	noCache bool
	refresh bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.columns, "columns", 0, "override the document's column count")
	cmd.Flags().Float64Var(&f.gutter, "gutter", 0, "gutter between columns in pt (with --columns)")
	cmd.Flags().StringVar(&f.balance, "balance", "", "column balancing: pack, balance")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

func (f *layoutFlags) options() pipeline.Options {
	return pipeline.Options{
		Columns: f.columns,
		Gutter:  f.gutter,
		Balance: f.balance,
		Refresh: f.refresh,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
