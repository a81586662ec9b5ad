package flow

import (
	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
)

// Balance selects how content is spread over columns.
type Balance uint8

const (
	// BalancePack fills each column before starting the next.
	BalancePack Balance = iota
	// BalanceEven shortens the columns of a region that holds the end of
	// the flow so that they come out about equally tall.
	BalanceEven
)

func (b Balance) String() string {
	if b == BalanceEven {
		return "balance"
	}
	return "pack"
}

// ParseBalance parses "pack" or "balance".
func ParseBalance(s string) (Balance, bool) {
	switch s {
	case "", "pack":
		return BalancePack, true
	case "balance", "even":
		return BalanceEven, true
	}
	return BalancePack, false
}

// Options configure one flow invocation.
type Options struct {
	// Columns is the requested column count. Zero means one.
	Columns int
	// Gutter between columns, relative to the region width.
	Gutter layout.Rel
	// Balance mode for multi-column layout.
	Balance Balance
	// Root marks the top-level flow of a page sequence. Only root flows
	// handle footnotes and line numbers.
	Root bool
	// Style is the shared style of the flow. A zero style selects
	// content.DefaultStyle().
	Style content.Style
	// Locator derives locations for elements that lack one.
	Locator content.Locator
}

type columnConfig struct {
	count  int
	width  layout.Abs
	gutter layout.Abs
	dir    layout.Dir
}

type footnoteConfig struct {
	separator content.Separator
	clearance layout.Abs
	gap       layout.Abs
	expand    bool
}

type lineNumberConfig struct {
	scope            content.NumberScope
	defaultClearance layout.Abs
}

// config is computed once per invocation and read-only afterwards.
type config struct {
	root        bool
	style       content.Style
	locator     content.Locator
	balance     Balance
	columns     columnConfig
	footnote    footnoteConfig
	lineNumbers *lineNumberConfig
}

func newConfig(opts Options, regions layout.Regions) *config {
	style := opts.Style
	if style.FontSize == 0 {
		style = content.DefaultStyle()
	}

	count := opts.Columns
	if count < 1 || !regions.Size.X.IsFinite() {
		count = 1
	}
	gutter := opts.Gutter.RelativeTo(regions.Base().X)
	if count == 1 {
		gutter = 0
	}
	width := regions.Size.X
	if count > 1 {
		width = (regions.Size.X - gutter*layout.Abs(count-1)) / layout.Abs(count)
	}

	cfg := &config{
		root:    opts.Root,
		style:   style,
		locator: opts.Locator,
		balance: opts.Balance,
		columns: columnConfig{count: count, width: width, gutter: gutter, dir: style.Dir},
		footnote: footnoteConfig{
			separator: style.Footnote.Separator,
			clearance: style.Footnote.Clearance,
			gap:       style.Footnote.Gap,
			expand:    regions.Expand.X,
		},
	}
	if opts.Root {
		scope := content.NumberDocument
		if style.Numbering != nil {
			scope = style.Numbering.Scope
		}
		cfg.lineNumbers = &lineNumberConfig{
			scope:            scope,
			defaultClearance: (style.PageWidth * 0.026).Clamp(style.Em(0.75), style.Em(2.5)),
		}
	}
	return cfg
}
