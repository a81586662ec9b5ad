package flow

import (
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
)

// lineMarker tags a numbered paragraph line.
type lineMarker struct {
	loc       layout.Location
	numbering content.LineNumbering
}

func (m *lineMarker) Location() layout.Location { return m.loc }

// layoutLineNumbers places line numbers next to the marked lines of a
// finished column. Lines closer together than a number's height share one
// number.
func (c *composer) layoutLineNumbers(output *layout.Frame) {
	cfg := c.cfg.lineNumbers
	if c.column == 0 && cfg.scope == content.NumberPage {
		c.work.lineNumber = 0
	}

	markers := layout.FindStarts[*lineMarker](*output)
	if len(markers) == 0 {
		return
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].Y < markers[j].Y })

	style := c.cfg.style
	metrics := c.env.measurer.Metrics(style.FontSize)

	type number struct {
		y      layout.Abs
		marker *lineMarker
		frame  layout.Frame
	}
	var numbers []number
	var maxWidth layout.Abs
	prevBottom, hasPrev := layout.Abs(0), false

	for _, m := range markers {
		if hasPrev && m.Y < prevBottom {
			continue
		}
		c.work.lineNumber++
		label := formatLineNumber(m.Elem.numbering.Format, c.work.lineNumber)
		width := c.env.measurer.Advance(label, style.FontSize)

		frame := layout.NewFrame(layout.Size{X: width, Y: metrics.Height()})
		frame.Push(layout.Point{}, layout.TextRun{
			Text:     label,
			FontSize: style.FontSize,
			Width:    width,
			Ascent:   metrics.Ascent,
		})

		prevBottom, hasPrev = m.Y+frame.Height().Max(layout.Pt), true
		maxWidth = maxWidth.Max(width)
		numbers = append(numbers, number{y: m.Y, marker: m.Elem, frame: frame})
	}

	for _, n := range numbers {
		margin := n.marker.numbering.Margin
		if c.cfg.columns.count >= 2 && c.column+1 == c.cfg.columns.count {
			margin = layout.End
		}
		if margin == layout.Center {
			margin = layout.Start
		}

		clearance := cfg.defaultClearance
		if n.marker.numbering.Clearance != nil {
			clearance = *n.marker.numbering.Clearance
		}

		x := output.Width() + clearance
		if margin == layout.Start {
			x = -maxWidth - clearance
		}

		align := margin.Inv()
		if n.marker.numbering.Align != nil {
			align = *n.marker.numbering.Align
		}
		shift := align.Position(maxWidth - n.frame.Width())

		output.PushFrame(layout.Point{X: x + shift, Y: n.y}, n.frame)
	}
}

// formatLineNumber renders n in one of the numbering formats "1", "a",
// "A", "i" and "I".
func formatLineNumber(format string, n int) string {
	switch format {
	case "a":
		return alphabetic(n)
	case "A":
		return strings.ToUpper(alphabetic(n))
	case "i":
		return roman(n)
	case "I":
		return strings.ToUpper(roman(n))
	}
	return strconv.Itoa(n)
}

func alphabetic(n int) string {
	if n <= 0 {
		return "-"
	}
	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('a'+n%26))
		n /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func roman(n int) string {
	if n <= 0 {
		return "-"
	}
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}
