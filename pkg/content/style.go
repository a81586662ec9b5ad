package content

import "github.com/matzehuels/flowset/pkg/layout"

// Costs weigh paragraph breaking decisions. A positive cost enables the
// corresponding prevention.
type Costs struct {
	Widow  float64
	Orphan float64
}

// NumberScope controls when line numbers restart.
type NumberScope uint8

const (
	NumberDocument NumberScope = iota
	NumberPage
)

// LineNumbering enables numbers in the margin next to paragraph lines.
type LineNumbering struct {
	// Format is one of "1", "a", "A", "i" or "I".
	Format string
	Margin layout.Align
	// Clearance between column and number. Nil selects a default derived
	// from the page width.
	Clearance *layout.Abs
	// Align of numbers within the number column. Nil aligns them towards
	// the text.
	Align *layout.Align
	Scope NumberScope
}

// Separator is the rule drawn above a column's footnotes.
type Separator struct {
	Width  layout.Rel
	Stroke layout.Abs
}

// FootnoteStyle controls footnote presentation.
type FootnoteStyle struct {
	Clearance layout.Abs
	Gap       layout.Abs
	Separator Separator
}

// Style is a resolved style snapshot.
type Style struct {
	FontSize     layout.Abs
	Leading      layout.Abs
	ParSpacing   layout.Abs
	BlockSpacing layout.Abs
	Align        layout.Axes[layout.Align]
	Dir          layout.Dir
	Costs        Costs
	Numbering    *LineNumbering
	Footnote     FootnoteStyle
	// PageWidth feeds defaults that scale with the page.
	PageWidth layout.Abs
}

// Em converts an em value at the style's font size.
func (s Style) Em(v float64) layout.Abs { return layout.Abs(v) * s.FontSize }

// DefaultStyle returns the style used when a document does not override it.
func DefaultStyle() Style {
	const size = 11
	s := Style{
		FontSize:     size,
		Leading:      0.65 * size,
		ParSpacing:   1.2 * size,
		BlockSpacing: 1.2 * size,
		Costs:        Costs{Widow: 1, Orphan: 1},
		PageWidth:    595.28,
	}
	s.Footnote = FootnoteStyle{
		Clearance: s.Em(1),
		Gap:       s.Em(0.5),
		Separator: Separator{Width: layout.Ratio(0.3), Stroke: 0.5},
	}
	return s
}
