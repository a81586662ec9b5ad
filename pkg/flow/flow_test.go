package flow

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/layout"
)

func TestUnbreakableOverflow(t *testing.T) {
	frag := mustLayout(t, seq(leaf("a", 60), leaf("b", 60)), repeat(100, 100), Options{})

	if len(frag) != 2 {
		t.Fatalf("got %d frames, want 2", len(frag))
	}
	if got := frag[0].Height(); got != 60 {
		t.Errorf("frame 0 height = %v, want 60", got)
	}
	if got := labels(frag[0]); !slices.Equal(got, []string{"a"}) {
		t.Errorf("frame 0 = %v, want [a]", got)
	}
	if got := labels(frag[1]); !slices.Equal(got, []string{"b"}) {
		t.Errorf("frame 1 = %v, want [b]", got)
	}
}

func TestBreakableSpill(t *testing.T) {
	frag := mustLayout(t, seq(breakableLeaf("m", 250)), repeat(100, 100), Options{})

	want := []struct{ height, from, to layout.Abs }{
		{100, 0, 100},
		{100, 100, 200},
		{50, 200, 250},
	}
	if len(frag) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frag), len(want))
	}
	for i, w := range want {
		if got := frag[i].Height(); got != w.height {
			t.Errorf("frame %d height = %v, want %v", i, got, w.height)
		}
		b := findBox(t, frag[i], "m")
		if b.from != w.from || b.to != w.to {
			t.Errorf("frame %d slice = [%v, %v), want [%v, %v)", i, b.from, b.to, w.from, w.to)
		}
		if b.pos.Y != 0 {
			t.Errorf("frame %d slice at y=%v, want 0", i, b.pos.Y)
		}
	}
}

func TestParentFloat(t *testing.T) {
	tests := []struct {
		name        string
		height      layout.Abs
		wantHeights []layout.Abs
		wantFrames  [][]string
		wantFloatY  layout.Abs
		floatFrame  int
	}{
		{
			name:        "fits",
			height:      30,
			wantHeights: []layout.Abs{70, 40},
			wantFrames:  [][]string{{"a", "f"}, {"b"}},
			floatFrame:  0,
			wantFloatY:  40,
		},
		{
			name:        "deferred",
			height:      80,
			wantHeights: []layout.Abs{80, 80},
			wantFrames:  [][]string{{"a", "b"}, {"f"}},
			floatFrame:  1,
			wantFloatY:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := seq(
				leaf("a", 40),
				leaf("b", 40),
				&content.Place{Loc: 99, Float: true, Scope: content.ScopeParent, Body: leaf("f", tt.height)},
			)
			frag := mustLayout(t, pairs, repeat(100, 100), Options{})

			if len(frag) != len(tt.wantHeights) {
				t.Fatalf("got %d frames, want %d", len(frag), len(tt.wantHeights))
			}
			for i := range frag {
				if got := frag[i].Height(); got != tt.wantHeights[i] {
					t.Errorf("frame %d height = %v, want %v", i, got, tt.wantHeights[i])
				}
				got := labels(frag[i])
				slices.Sort(got)
				if !slices.Equal(got, tt.wantFrames[i]) {
					t.Errorf("frame %d = %v, want %v", i, got, tt.wantFrames[i])
				}
			}
			if f := findBox(t, frag[tt.floatFrame], "f"); f.pos.Y != tt.wantFloatY {
				t.Errorf("float at y=%v, want %v", f.pos.Y, tt.wantFloatY)
			}
		})
	}
}

func TestFootnoteFillsRegionExactly(t *testing.T) {
	note := &content.Footnote{Loc: 7, Body: seq(leaf("n", 10))}
	b := leaf("b", 20)
	b.Leaf.Marks = []content.Mark{{Y: 10, Elem: note}}

	frag := mustLayout(t, seq(leaf("a", 20), b, leaf("c", 20)), repeat(100, 50), Options{Root: true})

	if len(frag) != 2 {
		t.Fatalf("got %d frames, want 2", len(frag))
	}
	if got := frag[0].Height(); got != 50 {
		t.Errorf("frame 0 height = %v, want 50", got)
	}
	if got := labels(frag[0]); !slices.Equal(got, []string{"a", "b", "n"}) {
		t.Errorf("frame 0 = %v, want [a b n]", got)
	}
	if n := findBox(t, frag[0], "n"); n.pos.Y != 40 {
		t.Errorf("footnote at y=%v, want 40", n.pos.Y)
	}
	if got := labels(frag[1]); !slices.Equal(got, []string{"c"}) {
		t.Errorf("frame 1 = %v, want [c]", got)
	}
}

func TestFootnoteMigratesMarker(t *testing.T) {
	note := &content.Footnote{Loc: 8, Body: seq(leaf("n", 20))}
	b := leaf("b", 10)
	b.Leaf.Marks = []content.Mark{{Y: 5, Elem: note}}

	frag := mustLayout(t, seq(leaf("a", 35), b), repeat(100, 50), Options{Root: true})

	if len(frag) != 2 {
		t.Fatalf("got %d frames, want 2", len(frag))
	}
	if got := labels(frag[0]); !slices.Equal(got, []string{"a"}) {
		t.Errorf("frame 0 = %v, want [a]", got)
	}
	if got := labels(frag[1]); !slices.Equal(got, []string{"b", "n"}) {
		t.Errorf("frame 1 = %v, want [b n]", got)
	}
	if n := findBox(t, frag[1], "n"); n.pos.Y != 10 {
		t.Errorf("footnote at y=%v, want 10", n.pos.Y)
	}
}

func TestTrailingFootnote(t *testing.T) {
	tests := []struct {
		name       string
		after      []content.Content
		wantFrames [][]string
		wantNoteY  layout.Abs
		wantHeight layout.Abs
	}{
		{
			name:       "end of flow",
			wantFrames: [][]string{{"a", "n"}},
			wantNoteY:  10,
			wantHeight: 20,
		},
		{
			name:       "spacing after",
			after:      []content.Content{&content.Space{Amount: layout.Absolute(5)}},
			wantFrames: [][]string{{"a", "n"}},
			wantNoteY:  15,
			wantHeight: 25,
		},
		{
			name:       "weak spacing after",
			after:      []content.Content{&content.Space{Amount: layout.Absolute(5), Weak: true}},
			wantFrames: [][]string{{"a", "n"}},
			wantNoteY:  10,
			wantHeight: 20,
		},
		{
			name:       "page break after",
			after:      []content.Content{&content.Pagebreak{}, leaf("b", 10)},
			wantFrames: [][]string{{"a", "n"}, {"b"}},
			wantNoteY:  10,
			wantHeight: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := &content.Footnote{Loc: 5, Body: seq(leaf("n", 10))}
			elems := append([]content.Content{leaf("a", 10), note}, tt.after...)

			frag := mustLayout(t, seq(elems...), repeat(100, 100), Options{Root: true})

			if len(frag) != len(tt.wantFrames) {
				t.Fatalf("got %d frames, want %d", len(frag), len(tt.wantFrames))
			}
			for i, want := range tt.wantFrames {
				if got := labels(frag[i]); !slices.Equal(got, want) {
					t.Errorf("frame %d = %v, want %v", i, got, want)
				}
			}
			if n := findBox(t, frag[0], "n"); n.pos.Y != tt.wantNoteY {
				t.Errorf("footnote at y=%v, want %v", n.pos.Y, tt.wantNoteY)
			}
			if got := frag[0].Height(); got != tt.wantHeight {
				t.Errorf("frame 0 height = %v, want %v", got, tt.wantHeight)
			}
		})
	}
}

func TestOnlyFootnote(t *testing.T) {
	note := &content.Footnote{Loc: 6, Body: seq(leaf("n", 10))}
	frag := mustLayout(t, seq(note), repeat(100, 100), Options{Root: true})

	if len(frag) != 1 {
		t.Fatalf("got %d frames, want 1", len(frag))
	}
	if n := findBox(t, frag[0], "n"); n.pos.Y != 0 {
		t.Errorf("footnote at y=%v, want 0", n.pos.Y)
	}
}

func TestFootnoteSeparatorBoundary(t *testing.T) {
	style := plainStyle()
	style.Footnote = content.FootnoteStyle{
		Clearance: 4,
		Gap:       2,
		Separator: content.Separator{Width: layout.Ratio(0.5), Stroke: 1},
	}

	// The entry costs clearance 4 + stroke 1 + gap 2 + body 10 = 17.
	tests := []struct {
		name       string
		height     layout.Abs
		wantFrames [][]string
		noteFrame  int
		wantRuleY  layout.Abs
		wantNoteY  layout.Abs
	}{
		{
			name:       "exact fit",
			height:     13,
			wantFrames: [][]string{{"a", "b", "n"}, {"c"}},
			noteFrame:  0,
			wantRuleY:  37,
			wantNoteY:  40,
		},
		{
			name:       "one point over",
			height:     14,
			wantFrames: [][]string{{"a"}, {"b", "c", "n"}},
			noteFrame:  1,
			wantRuleY:  28,
			wantNoteY:  31,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := &content.Footnote{Loc: 12, Body: seq(leaf("n", 10))}
			b := leaf("b", tt.height)
			b.Leaf.Marks = []content.Mark{{Y: 5, Elem: note}}

			frag := mustLayout(t, seq(leaf("a", 20), b, leaf("c", 10)), repeat(100, 50), Options{Root: true, Style: style})

			if len(frag) != len(tt.wantFrames) {
				t.Fatalf("got %d frames, want %d", len(frag), len(tt.wantFrames))
			}
			for i, want := range tt.wantFrames {
				if got := labels(frag[i]); !slices.Equal(got, want) {
					t.Errorf("frame %d = %v, want %v", i, got, want)
				}
				if got := frag[i].Height(); !(layout.Abs(50)).Fits(got) {
					t.Errorf("frame %d height = %v, exceeds region", i, got)
				}
			}

			f := frag[tt.noteFrame]
			rs := rules(f)
			if len(rs) != 1 {
				t.Fatalf("got %d separator rules, want 1", len(rs))
			}
			if rs[0].pos.Y != tt.wantRuleY || rs[0].size != (layout.Size{X: 50, Y: 1}) {
				t.Errorf("separator = %+v, want 50x1 at y=%v", rs[0], tt.wantRuleY)
			}
			if n := findBox(t, f, "n"); n.pos.Y != tt.wantNoteY {
				t.Errorf("footnote at y=%v, want %v", n.pos.Y, tt.wantNoteY)
			}
			for i := range frag {
				if i != tt.noteFrame && len(rules(frag[i])) != 0 {
					t.Errorf("frame %d has a separator without footnotes", i)
				}
			}
		})
	}
}

func TestFootnoteSpill(t *testing.T) {
	tests := []struct {
		name   string
		height layout.Abs
		want   []struct{ from, to layout.Abs }
	}{
		{
			name:   "two regions",
			height: 80,
			want:   []struct{ from, to layout.Abs }{{0, 40}, {40, 80}},
		},
		{
			name:   "three regions",
			height: 130,
			want:   []struct{ from, to layout.Abs }{{0, 40}, {40, 90}, {90, 130}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := &content.Footnote{Loc: 13, Body: seq(breakableLeaf("n", tt.height))}
			a := leaf("a", 10)
			a.Leaf.Marks = []content.Mark{{Y: 0, Elem: note}}

			frag := mustLayout(t, seq(a), repeat(100, 50), Options{Root: true})

			if len(frag) != len(tt.want) {
				t.Fatalf("got %d frames, want %d", len(frag), len(tt.want))
			}
			var total layout.Abs
			for i, w := range tt.want {
				var parts []boxAt
				for _, b := range boxes(frag[i]) {
					if b.label == "n" {
						parts = append(parts, b)
					}
				}
				if len(parts) != 1 {
					t.Fatalf("frame %d has %d footnote slices, want 1", i, len(parts))
				}
				if s := parts[0]; s.from != w.from || s.to != w.to {
					t.Errorf("frame %d slice = [%v, %v), want [%v, %v)", i, s.from, s.to, w.from, w.to)
				}
				total += parts[0].to - parts[0].from
			}
			if total != tt.height {
				t.Errorf("slices sum to %v, want %v", total, tt.height)
			}
			if n := findBox(t, frag[0], "n"); n.pos.Y != 10 {
				t.Errorf("first slice at y=%v, want 10", n.pos.Y)
			}
			for i := 1; i < len(frag); i++ {
				if n := findBox(t, frag[i], "n"); n.pos.Y != 0 {
					t.Errorf("frame %d continuation at y=%v, want 0", i, n.pos.Y)
				}
			}
		})
	}
}

func TestFootnotesIgnoredOutsideRoot(t *testing.T) {
	note := &content.Footnote{Loc: 9, Body: seq(leaf("n", 10))}
	b := leaf("b", 20)
	b.Leaf.Marks = []content.Mark{{Y: 0, Elem: note}}

	frag := mustLayout(t, seq(b), repeat(100, 50), Options{})
	if got := labels(frag[0]); !slices.Equal(got, []string{"b"}) {
		t.Errorf("frame 0 = %v, want [b]", got)
	}
}

func TestColumnClamp(t *testing.T) {
	regions := layout.One(layout.Size{X: layout.Inf(), Y: 100}, layout.Axes[bool]{})
	cfg := newConfig(Options{Columns: 3}, regions)
	if cfg.columns.count != 1 {
		t.Errorf("columns = %d, want 1", cfg.columns.count)
	}

	frag := mustLayout(t, seq(leaf("a", 10)), regions, Options{Columns: 3})
	if len(frag) != 1 {
		t.Errorf("got %d frames, want 1", len(frag))
	}
}

func TestDeterminism(t *testing.T) {
	note := &content.Footnote{Loc: 11, Body: seq(leaf("n", 10))}
	marked := breakableLeaf("m", 120)
	marked.Leaf.Marks = []content.Mark{{Y: 30, Elem: note}}

	style := plainStyle()
	style.BlockSpacing = 4
	style.Numbering = &content.LineNumbering{Format: "1"}
	pairs := content.Sequence(style,
		&content.Par{Text: "a paragraph that is long enough to wrap over several lines"},
		leaf("a", 30),
		&content.Place{Loc: 12, Float: true, Body: leaf("f", 20)},
		marked,
		&content.Colbreak{},
		leaf("b", 40),
	)
	regions := repeat(200, 100)
	opts := Options{Root: true, Columns: 2, Gutter: layout.Absolute(10), Style: style}

	first := mustLayout(t, pairs, regions, opts)
	second := mustLayout(t, pairs, regions, opts)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(layout.Frame{}, lineMarker{})); diff != "" {
		t.Errorf("layout is not deterministic (-first +second):\n%s", diff)
	}
}

func TestMonotonicity(t *testing.T) {
	last := layout.Abs(100)
	var prev layout.Abs
	for _, h := range []layout.Abs{20, 50, 80, 120, 300} {
		regions := layout.Regions{
			Size: layout.Size{X: 100, Y: h},
			Full: h,
			Last: &last,
		}
		frag := mustLayout(t, seq(breakableLeaf("m", 250)), regions, Options{})
		var placed layout.Abs
		for _, b := range boxes(frag[0]) {
			placed += b.to - b.from
		}
		if placed < prev {
			t.Errorf("height %v placed %v, less than %v with a smaller region", h, placed, prev)
		}
		prev = placed
	}
}

func TestBacklogTerminates(t *testing.T) {
	var elems []content.Content
	for i := range 10 {
		elems = append(elems, leaf(string(rune('a'+i)), 30))
	}
	regions := layout.Regions{
		Size:    layout.Size{X: 100, Y: 50},
		Full:    50,
		Backlog: []layout.Abs{50, 50},
	}

	frag := mustLayout(t, seq(elems...), regions, Options{})
	if len(frag) > len(elems) {
		t.Errorf("got %d frames for %d children", len(frag), len(elems))
	}

	var seen []string
	for _, f := range frag {
		seen = append(seen, labels(f)...)
	}
	if len(seen) != len(elems) {
		t.Errorf("placed %d children, want %d: %v", len(seen), len(elems), seen)
	}
}

func TestWeakSpacing(t *testing.T) {
	style := plainStyle()
	style.BlockSpacing = 10
	pairs := content.Sequence(style, leaf("a", 20), leaf("b", 20))

	frag := mustLayout(t, pairs, layout.One(layout.Size{X: 100, Y: 100}, layout.Axes[bool]{X: true}), Options{Style: style})

	if got := frag[0].Height(); got != 50 {
		t.Errorf("height = %v, want 50", got)
	}
	if a := findBox(t, frag[0], "a"); a.pos.Y != 0 {
		t.Errorf("a at y=%v, want 0", a.pos.Y)
	}
	if b := findBox(t, frag[0], "b"); b.pos.Y != 30 {
		t.Errorf("b at y=%v, want 30", b.pos.Y)
	}
}

func TestWeakSpacingCollapse(t *testing.T) {
	d := &distributor{regions: layout.One(layout.Size{X: 100, Y: 100}, layout.Axes[bool]{})}
	d.items = append(d.items, item{kind: itemFrame, frame: layout.NewFrame(layout.Size{Y: 10})})

	d.rel(layout.Absolute(5), 4)
	d.rel(layout.Absolute(8), 4)
	d.rel(layout.Absolute(2), 3)

	if len(d.items) != 2 {
		t.Fatalf("got %d items, want 2", len(d.items))
	}
	if got := d.items[1]; got.amount != 2 || got.weakness != 3 {
		t.Errorf("spacing = %v (weakness %d), want 2 (weakness 3)", got.amount, got.weakness)
	}
	if got := d.regions.Size.Y; got != 98 {
		t.Errorf("remaining = %v, want 98", got)
	}

	d.trimSpacing()
	if len(d.items) != 1 || d.regions.Size.Y != 100 {
		t.Errorf("after trim: %d items, remaining %v", len(d.items), d.regions.Size.Y)
	}
}

func TestStickyBlockMovesWithNext(t *testing.T) {
	heading := leaf("h", 20)
	heading.Sticky = true

	frag := mustLayout(t, seq(leaf("a", 60), heading, leaf("b", 30)), repeat(100, 100), Options{})

	if len(frag) != 2 {
		t.Fatalf("got %d frames, want 2", len(frag))
	}
	if got := labels(frag[0]); !slices.Equal(got, []string{"a"}) {
		t.Errorf("frame 0 = %v, want [a]", got)
	}
	if got := labels(frag[1]); !slices.Equal(got, []string{"h", "b"}) {
		t.Errorf("frame 1 = %v, want [h b]", got)
	}
	if b := findBox(t, frag[1], "b"); b.pos.Y != 20 {
		t.Errorf("b at y=%v, want 20", b.pos.Y)
	}
}

func TestFractional(t *testing.T) {
	filler := &content.Block{Height: content.Fraction(1), Leaf: &content.Leaf{Label: "fr"}}
	tests := []struct {
		name  string
		pairs []content.Pair
		check func(t *testing.T, f layout.Frame)
	}{
		{
			name:  "spacing",
			pairs: seq(leaf("a", 20), &content.Space{Fr: 1}, leaf("b", 20)),
			check: func(t *testing.T, f layout.Frame) {
				if b := findBox(t, f, "b"); b.pos.Y != 80 {
					t.Errorf("b at y=%v, want 80", b.pos.Y)
				}
			},
		},
		{
			name:  "block",
			pairs: seq(leaf("a", 20), filler, leaf("b", 20)),
			check: func(t *testing.T, f layout.Frame) {
				fr := findBox(t, f, "fr")
				if fr.pos.Y != 20 || fr.to != 60 {
					t.Errorf("fr block at y=%v with height %v, want y=20 height 60", fr.pos.Y, fr.to)
				}
				if b := findBox(t, f, "b"); b.pos.Y != 80 {
					t.Errorf("b at y=%v, want 80", b.pos.Y)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions := layout.One(layout.Size{X: 100, Y: 100}, layout.Splat(true))
			frag := mustLayout(t, tt.pairs, regions, Options{})
			if got := frag[0].Height(); got != 100 {
				t.Errorf("height = %v, want 100", got)
			}
			tt.check(t, frag[0])
		})
	}
}

func TestColumns(t *testing.T) {
	regions := layout.One(layout.Size{X: 210, Y: 100}, layout.Axes[bool]{X: true})

	t.Run("colbreak", func(t *testing.T) {
		frag := mustLayout(t, seq(leaf("a", 20), &content.Colbreak{}, leaf("b", 20)), regions,
			Options{Columns: 2, Gutter: layout.Absolute(10)})
		if len(frag) != 1 {
			t.Fatalf("got %d frames, want 1", len(frag))
		}
		if b := findBox(t, frag[0], "b"); b.pos.X != 110 || b.pos.Y != 0 {
			t.Errorf("b at %v, want (110, 0)", b.pos)
		}
	})

	t.Run("weak break at start", func(t *testing.T) {
		frag := mustLayout(t, seq(&content.Colbreak{Weak: true}, leaf("a", 20)), regions,
			Options{Columns: 2, Gutter: layout.Absolute(10)})
		if a := findBox(t, frag[0], "a"); a.pos.X != 0 {
			t.Errorf("a at x=%v, want 0", a.pos.X)
		}
	})

	t.Run("rtl", func(t *testing.T) {
		style := plainStyle()
		style.Dir = layout.RTL
		pairs := content.Sequence(style, leaf("a", 20), &content.Colbreak{}, leaf("b", 20))
		frag := mustLayout(t, pairs, regions, Options{Columns: 2, Gutter: layout.Absolute(10), Style: style})
		if a := findBox(t, frag[0], "a"); a.pos.X != 110 {
			t.Errorf("a at x=%v, want 110", a.pos.X)
		}
		if b := findBox(t, frag[0], "b"); b.pos.X != 0 {
			t.Errorf("b at x=%v, want 0", b.pos.X)
		}
	})

	t.Run("pagebreak skips columns", func(t *testing.T) {
		frag := mustLayout(t, seq(leaf("a", 20), &content.Pagebreak{}, leaf("b", 20)), repeat(210, 100),
			Options{Root: true, Columns: 2, Gutter: layout.Absolute(10)})
		if len(frag) != 2 {
			t.Fatalf("got %d frames, want 2", len(frag))
		}
		if b := findBox(t, frag[1], "b"); b.pos.X != 0 {
			t.Errorf("b at x=%v, want 0", b.pos.X)
		}
	})
}

func TestBalancedColumns(t *testing.T) {
	var elems []content.Content
	for i := range 6 {
		elems = append(elems, leaf(string(rune('a'+i)), 20))
	}
	regions := repeat(210, 100)

	tests := []struct {
		balance     Balance
		wantSecond  int
		wantHeight  layout.Abs
		heightSlack layout.Abs
	}{
		{BalancePack, 1, 100, 0},
		{BalanceEven, 3, 60, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.balance.String(), func(t *testing.T) {
			frag := mustLayout(t, seq(elems...), regions,
				Options{Columns: 2, Gutter: layout.Absolute(10), Balance: tt.balance})
			if len(frag) != 1 {
				t.Fatalf("got %d frames, want 1", len(frag))
			}
			second := 0
			for _, b := range boxes(frag[0]) {
				if b.pos.X >= 110 {
					second++
				}
			}
			if second != tt.wantSecond {
				t.Errorf("second column holds %d blocks, want %d", second, tt.wantSecond)
			}
			if got := frag[0].Height(); got < tt.wantHeight || got > tt.wantHeight+tt.heightSlack {
				t.Errorf("height = %v, want %v", got, tt.wantHeight)
			}
		})
	}
}

func TestLineNumbers(t *testing.T) {
	clearance := layout.Abs(5)
	style := plainStyle()
	style.Numbering = &content.LineNumbering{Format: "1", Margin: layout.Start, Clearance: &clearance}
	par := &content.Par{Lines: []content.Line{
		{Text: "one", Height: 10},
		{Text: "two", Height: 10},
		{Text: "three", Height: 10},
	}}

	frag := mustLayout(t, content.Sequence(style, par), repeat(100, 100), Options{Root: true, Style: style})

	type number struct {
		text string
		pos  layout.Point
	}
	var got []number
	frag[0].Walk(func(pos layout.Point, it layout.Item) {
		if run, ok := it.(layout.TextRun); ok && strings.ContainsAny(run.Text, "0123456789") {
			got = append(got, number{run.Text, pos})
		}
	})

	want := []number{
		{"1", layout.Point{X: -10, Y: 0}},
		{"2", layout.Point{X: -10, Y: 10}},
		{"3", layout.Point{X: -10, Y: 20}},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(number{})); diff != "" {
		t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLineNumber(t *testing.T) {
	tests := []struct {
		format string
		n      int
		want   string
	}{
		{"1", 12, "12"},
		{"a", 1, "a"},
		{"a", 27, "aa"},
		{"A", 28, "AB"},
		{"i", 1994, "mcmxciv"},
		{"I", 4, "IV"},
		{"", 3, "3"},
	}
	for _, tt := range tests {
		if got := formatLineNumber(tt.format, tt.n); got != tt.want {
			t.Errorf("formatLineNumber(%q, %d) = %q, want %q", tt.format, tt.n, got, tt.want)
		}
	}
}

func TestPlacedAbsolute(t *testing.T) {
	body := &content.Block{Leaf: &content.Leaf{Label: "p", Width: 10, Height: 10}}
	pairs := seq(
		leaf("a", 20),
		&content.Place{AlignX: layout.End, AlignY: content.VEnd, Body: body},
	)
	frag := mustLayout(t, pairs, layout.One(layout.Size{X: 100, Y: 100}, layout.Splat(true)), Options{})

	if p := findBox(t, frag[0], "p"); p.pos != (layout.Point{X: 90, Y: 90}) {
		t.Errorf("placed at %v, want (90, 90)", p.pos)
	}
}

func TestTagsFollowContent(t *testing.T) {
	anchor := &content.Anchor{Loc: 5, Name: "target"}
	frag := mustLayout(t, seq(leaf("a", 60), anchor, leaf("b", 60)), repeat(100, 100), Options{})

	if len(frag) != 2 {
		t.Fatalf("got %d frames, want 2", len(frag))
	}
	if got := layout.FindStarts[*content.Anchor](frag[0]); len(got) != 0 {
		t.Errorf("frame 0 has %d anchors, want 0", len(got))
	}
	got := layout.FindStarts[*content.Anchor](frag[1])
	if len(got) != 1 || got[0].Elem != anchor || got[0].Y != 0 {
		t.Errorf("frame 1 anchors = %+v, want one at y=0", got)
	}
}

func TestTrailingTagsKept(t *testing.T) {
	anchor := &content.Anchor{Loc: 6}
	frag := mustLayout(t, seq(leaf("a", 10), anchor), repeat(100, 100), Options{})
	if got := layout.FindStarts[*content.Anchor](frag[len(frag)-1]); len(got) != 1 {
		t.Errorf("got %d anchors in the last frame, want 1", len(got))
	}
}

func TestUnknownWarns(t *testing.T) {
	e := newTestEngine()
	_, err := e.Layout(context.Background(), seq(leaf("a", 10), &content.Unknown{Name: "image"}),
		repeat(100, 100), Options{Style: plainStyle()})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	warnings := e.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if want := "image was ignored during flow layout"; warnings[0].Message != want {
		t.Errorf("warning = %q, want %q", warnings[0].Message, want)
	}
}

func TestOversizedChildWarns(t *testing.T) {
	e := newTestEngine()
	frag, err := e.Layout(context.Background(), seq(leaf("a", 80), leaf("b", 10)), repeat(100, 50), Options{Style: plainStyle()})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if len(frag) != 2 {
		t.Fatalf("got %d frames, want 2", len(frag))
	}
	if got := labels(frag[0]); !slices.Equal(got, []string{"a"}) {
		t.Errorf("frame 0 = %v, want [a]", got)
	}
	if got := frag[0].Height(); got != 50 {
		t.Errorf("frame 0 height = %v, want 50", got)
	}
	if got := labels(frag[1]); !slices.Equal(got, []string{"b"}) {
		t.Errorf("frame 1 = %v, want [b]", got)
	}

	warnings := e.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if want := "content overflows the last region by 30pt"; warnings[0].Message != want {
		t.Errorf("warning = %q, want %q", warnings[0].Message, want)
	}
}

func TestNestedBlock(t *testing.T) {
	outer := &content.Block{Children: seq(leaf("x", 15), leaf("y", 15))}
	frag := mustLayout(t, seq(outer), repeat(100, 100), Options{})

	if got := frag[0].Height(); got != 30 {
		t.Errorf("height = %v, want 30", got)
	}
	if y := findBox(t, frag[0], "y"); y.pos.Y != 15 {
		t.Errorf("y at y=%v, want 15", y.pos.Y)
	}
}

func TestLayoutErrors(t *testing.T) {
	nest := func(depth int) content.Content {
		var c content.Content = leaf("deep", 10)
		for range depth {
			c = &content.Block{Children: seq(c)}
		}
		return c
	}
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		pairs   []content.Pair
		regions layout.Regions
		opts    Options
		want    errors.Code
	}{
		{
			name:    "infinite width",
			pairs:   seq(leaf("a", 10)),
			regions: layout.One(layout.Size{X: layout.Inf(), Y: 100}, layout.Axes[bool]{X: true}),
			want:    errors.ErrCodeInfiniteExpansion,
		},
		{
			name:    "infinite height",
			pairs:   seq(leaf("a", 10)),
			regions: layout.One(layout.Size{X: 100, Y: layout.Inf()}, layout.Axes[bool]{Y: true}),
			want:    errors.ErrCodeInfiniteExpansion,
		},
		{
			name:    "depth",
			pairs:   seq(nest(3)),
			regions: repeat(100, 100),
			want:    errors.ErrCodeMaxDepth,
		},
		{
			name:    "centered float",
			pairs:   seq(&content.Place{Float: true, AlignY: content.VCenter, Body: leaf("f", 10)}),
			regions: repeat(100, 100),
			want:    errors.ErrCodeInvalidPlacement,
		},
		{
			name:    "automatic non-float",
			pairs:   seq(&content.Place{AlignY: content.VAuto, Body: leaf("p", 10)}),
			regions: repeat(100, 100),
			want:    errors.ErrCodeInvalidPlacement,
		},
		{
			name:    "parent non-float",
			pairs:   seq(&content.Place{Scope: content.ScopeParent, AlignY: content.VStart, Body: leaf("p", 10)}),
			regions: repeat(100, 100),
			want:    errors.ErrCodeInvalidPlacement,
		},
		{
			name:    "nested pagebreak",
			pairs:   seq(&content.Block{Children: seq(&content.Pagebreak{})}),
			regions: repeat(100, 100),
			opts:    Options{Root: true},
			want:    errors.ErrCodeInvalidBreak,
		},
		{
			name:    "cancelled",
			ctx:     cancelled,
			pairs:   seq(leaf("a", 10)),
			regions: repeat(100, 100),
			want:    errors.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			opts := tt.opts
			opts.Style = plainStyle()
			_, err := newTestEngine(WithMaxDepth(2)).Layout(ctx, tt.pairs, tt.regions, opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Layout() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestLayoutFrame(t *testing.T) {
	e := newTestEngine()
	frame, err := e.LayoutFrame(context.Background(), seq(leaf("a", 10), leaf("b", 10)),
		layout.NewRegion(layout.Size{X: 50, Y: 100}, layout.Axes[bool]{X: true}), Options{Style: plainStyle()})
	if err != nil {
		t.Fatalf("LayoutFrame() error = %v", err)
	}
	if frame.Size() != (layout.Size{X: 50, Y: 20}) {
		t.Errorf("size = %v, want 50x20", frame.Size())
	}
}

func TestLayoutColumnsValidates(t *testing.T) {
	_, err := newTestEngine().LayoutColumns(context.Background(), seq(leaf("a", 10)), repeat(100, 100), 0, layout.Rel{}, Options{})
	if err == nil {
		t.Error("LayoutColumns(0) should fail")
	}
}
