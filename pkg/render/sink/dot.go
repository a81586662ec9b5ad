package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/layout"
)

// DOTOptions configures frame tree rendering.
type DOTOptions struct {
	// Detailed includes positions and sizes in node labels.
	Detailed bool
	// Tags includes introspection tags as nodes.
	Tags bool
}

// ToDOT converts the frame tree of frag to Graphviz DOT format. Every page
// becomes a cluster; groups and leaf items become nodes below their parent
// frame. The result can be rendered with [RenderDOT].
func ToDOT(frag layout.Fragment, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")

	for i, f := range frag {
		id := fmt.Sprintf("p%d", i+1)
		fmt.Fprintf(&buf, "\n  subgraph cluster_%s {\n", id)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("page %d", i+1))
		fmt.Fprintf(&buf, "    %s [label=%q, fillcolor=lightgrey];\n", id, fmtFrameLabel("frame", f, layout.Point{}, opts.Detailed))
		w := dotWriter{buf: &buf, opts: opts}
		w.frame(id, f)
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf  *bytes.Buffer
	opts DOTOptions
	n    int
}

func (w *dotWriter) frame(parent string, f layout.Frame) {
	for _, p := range f.Items() {
		var label string
		var attrs []string
		switch it := p.Item.(type) {
		case layout.Group:
			label = fmtFrameLabel("group", it.Frame, p.Pos, w.opts.Detailed)
		case layout.Box:
			label = it.Label
			if label == "" {
				label = "box"
			}
			if w.opts.Detailed {
				label += fmt.Sprintf("\n%v..%v", it.From, it.To)
			}
			attrs = append(attrs, "fillcolor=\"#e8eef7\"")
			if it.From > 0 {
				attrs = append(attrs, "style=\"rounded,filled,dashed\"")
			}
		case layout.TextRun:
			label = strconv.Quote(truncate(it.Text, 24))
			attrs = append(attrs, "shape=plaintext")
		case layout.Rule:
			label = "rule"
			attrs = append(attrs, "shape=underline")
		case layout.TagItem:
			if !w.opts.Tags {
				continue
			}
			e := describe(it.Tag.Elem)
			label = e.Kind
			if it.Tag.Kind == layout.TagEnd {
				label += " end"
			}
			attrs = append(attrs, "shape=point", "xlabel="+strconv.Quote(label))
		default:
			continue
		}

		w.n++
		id := fmt.Sprintf("%s_%d", parent, w.n)
		attrs = append([]string{fmt.Sprintf("label=%q", label)}, attrs...)
		fmt.Fprintf(w.buf, "    %s [%s];\n", id, strings.Join(attrs, ", "))
		fmt.Fprintf(w.buf, "    %s -> %s;\n", parent, id)

		if g, ok := p.Item.(layout.Group); ok {
			w.frame(id, g.Frame)
		}
	}
}

func fmtFrameLabel(kind string, f layout.Frame, pos layout.Point, detailed bool) string {
	if !detailed {
		return kind
	}
	return fmt.Sprintf("%s\n%v x %v\nat %v, %v", kind, f.Width(), f.Height(), pos.X, pos.Y)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderDOT renders a DOT graph to SVG using Graphviz.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element so that the drawing
// scales like the other sinks.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
