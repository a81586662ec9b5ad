package flow

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/text"
)

// monoMeasurer gives every rune half an em.
type monoMeasurer struct{}

func (monoMeasurer) Advance(s string, size layout.Abs) layout.Abs {
	return layout.Abs(utf8.RuneCountInString(s)) * size / 2
}

func (monoMeasurer) Metrics(size layout.Abs) text.Metrics {
	return text.Metrics{Ascent: size * 0.8, Descent: size * 0.2}
}

// plainStyle has no spacing, no costs and no footnote decoration, so that
// tests can reason about exact positions.
func plainStyle() content.Style {
	return content.Style{FontSize: 10, PageWidth: 100}
}

func leaf(label string, height layout.Abs) *content.Block {
	return &content.Block{Leaf: &content.Leaf{Label: label, Height: height}}
}

func breakableLeaf(label string, height layout.Abs) *content.Block {
	b := leaf(label, height)
	b.Breakable = true
	return b
}

func seq(elems ...content.Content) []content.Pair {
	return content.Sequence(plainStyle(), elems...)
}

func repeat(w, h layout.Abs) layout.Regions {
	return layout.Repeat(layout.Size{X: w, Y: h}, layout.Axes[bool]{X: true})
}

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithMeasurer(monoMeasurer{})}, opts...)...)
}

func mustLayout(t *testing.T, pairs []content.Pair, regions layout.Regions, opts Options) layout.Fragment {
	t.Helper()
	if opts.Style.FontSize == 0 {
		opts.Style = plainStyle()
	}
	frag, err := newTestEngine().Layout(context.Background(), pairs, regions, opts)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	return frag
}

type boxAt struct {
	label    string
	pos      layout.Point
	from, to layout.Abs
}

// boxes lists the leaf slices of a frame with absolute positions.
func boxes(f layout.Frame) []boxAt {
	var out []boxAt
	f.Walk(func(pos layout.Point, it layout.Item) {
		if b, ok := it.(layout.Box); ok {
			out = append(out, boxAt{label: b.Label, pos: pos, from: b.From, to: b.To})
		}
	})
	return out
}

func labels(f layout.Frame) []string {
	var out []string
	for _, b := range boxes(f) {
		out = append(out, b.label)
	}
	return out
}

func findBox(t *testing.T, f layout.Frame, label string) boxAt {
	t.Helper()
	for _, b := range boxes(f) {
		if b.label == label {
			return b
		}
	}
	t.Fatalf("box %q not found in frame (have %v)", label, labels(f))
	return boxAt{}
}

func testEnv(e *Engine) env {
	return env{Engine: e, ctx: context.Background()}
}

type ruleAt struct {
	pos  layout.Point
	size layout.Size
}

// rules lists the rules of a frame with absolute positions.
func rules(f layout.Frame) []ruleAt {
	var out []ruleAt
	f.Walk(func(pos layout.Point, it layout.Item) {
		if r, ok := it.(layout.Rule); ok {
			out = append(out, ruleAt{pos: pos, size: r.Size})
		}
	})
	return out
}
