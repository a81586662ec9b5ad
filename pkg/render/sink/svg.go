package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/flowset/pkg/layout"
)

const pageCSS = `
    .page { fill: white; stroke: #bbb; stroke-width: 0.5; }
    .box { fill: #e8eef7; stroke: #4a6fa5; stroke-width: 0.75; }
    .box.slice { stroke-dasharray: 3 2; }
    .box-label { font-family: sans-serif; fill: #2d3e50; dominant-baseline: middle; text-anchor: middle; }
    .run { font-family: sans-serif; fill: #222; }
    .rule { fill: #222; }
    .tag { fill: #d9534f; }
    .region { fill: none; stroke: #d9534f; stroke-width: 0.5; stroke-dasharray: 2 2; }`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	gap    float64
	margin float64
	debug  bool
}

// WithGap sets the vertical space between pages (default 20).
func WithGap(g float64) SVGOption { return func(r *svgRenderer) { r.gap = g } }

// WithMargin sets the space around the page stack (default 40). Line
// numbers are placed outside the frames and need some margin to be visible.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// WithDebug outlines nested frames and marks introspection tags.
func WithDebug() SVGOption { return func(r *svgRenderer) { r.debug = true } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{gap: 20, margin: 40}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws the frames of frag stacked top to bottom.
func RenderSVG(frag layout.Fragment, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	var width, height float64
	for i, f := range frag {
		width = max(width, f.Width().Pt())
		height += f.Height().Pt()
		if i > 0 {
			height += r.gap
		}
	}
	width += 2 * r.margin
	height += 2 * r.margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", pageCSS)

	y := r.margin
	for i, f := range frag {
		fmt.Fprintf(&buf, `  <g id="page-%d" transform="translate(%.2f,%.2f)">`+"\n", i+1, r.margin, y)
		fmt.Fprintf(&buf, `    <rect class="page" width="%.2f" height="%.2f"/>`+"\n", f.Width().Pt(), f.Height().Pt())
		r.frame(&buf, f, layout.Point{})
		buf.WriteString("  </g>\n")
		y += f.Height().Pt() + r.gap
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) frame(buf *bytes.Buffer, f layout.Frame, off layout.Point) {
	for _, p := range f.Items() {
		pos := off.Add(p.Pos)
		switch it := p.Item.(type) {
		case layout.Group:
			if r.debug {
				fmt.Fprintf(buf, `    <rect class="region" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
					pos.X.Pt(), pos.Y.Pt(), it.Frame.Width().Pt(), it.Frame.Height().Pt())
			}
			r.frame(buf, it.Frame, pos)
		case layout.Box:
			renderBox(buf, it, pos)
		case layout.TextRun:
			fmt.Fprintf(buf, `    <text class="run" x="%.2f" y="%.2f" font-size="%.2f">%s</text>`+"\n",
				pos.X.Pt(), (pos.Y + it.Ascent).Pt(), it.FontSize.Pt(), html.EscapeString(it.Text))
		case layout.Rule:
			fmt.Fprintf(buf, `    <rect class="rule" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
				pos.X.Pt(), pos.Y.Pt(), it.Size.X.Pt(), it.Size.Y.Pt())
		case layout.TagItem:
			if r.debug && it.Tag.Kind == layout.TagStart {
				fmt.Fprintf(buf, `    <circle class="tag" cx="%.2f" cy="%.2f" r="1.5"><title>%s</title></circle>`+"\n",
					pos.X.Pt(), pos.Y.Pt(), html.EscapeString(describe(it.Tag.Elem).Kind))
			}
		}
	}
}

func renderBox(buf *bytes.Buffer, b layout.Box, pos layout.Point) {
	// Continuations of broken content are dashed.
	class := "box"
	if b.From > 0 {
		class += " slice"
	}
	fmt.Fprintf(buf, `    <rect class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
		class, pos.X.Pt(), pos.Y.Pt(), b.Size.X.Pt(), b.Size.Y.Pt())
	if b.Label == "" || b.Size.Y < 6 {
		return
	}
	size := min(10, b.Size.Y.Pt()*0.6)
	fmt.Fprintf(buf, `    <text class="box-label" x="%.2f" y="%.2f" font-size="%.1f">%s</text>`+"\n",
		(pos.X + b.Size.X/2).Pt(), (pos.Y + b.Size.Y/2).Pt(), size, html.EscapeString(b.Label))
}
