package document

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/flow"
	"github.com/matzehuels/flowset/pkg/layout"
)

const sample = `
[page]
width = 200
height = 100
backlog = [80, 60]
repeat = true

[flow]
columns = 2
gutter = 10
balance = "balance"

[style]
font_size = 10
block_spacing = 4
dir = "rtl"

[numbering]
format = "i"
margin = "end"

[[content]]
kind = "v"
amount = 5
weak = true

[[content]]
kind = "block"
label = "a"
height = 30
breakable = true

[[content.marks]]
y = 10
name = "first"

[[content.marks.note]]
kind = "block"
label = "note"
height = 8

[[content]]
kind = "footnote"
ref = "first"

[[content]]
kind = "place"
float = true
scope = "parent"

[content.body]
label = "fig"
height = 20

[[content]]
kind = "image"
`

func TestParseTOML(t *testing.T) {
	doc, err := Parse([]byte(sample), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Content) != 5 {
		t.Fatalf("got %d nodes, want 5", len(doc.Content))
	}
	if got := doc.Content[1].Marks[0].Note[0].Label; got != "note" {
		t.Errorf("mark note label = %q, want note", got)
	}
	if doc.Content[3].Body == nil || doc.Content[3].Body.Label != "fig" {
		t.Errorf("place body = %+v", doc.Content[3].Body)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"toml", "[page]\nwidth = 10\nwidht = 20\n", FormatTOML},
		{"json", `{"page": {"width": 10, "widht": 20}}`, FormatJSON},
		{"malformed", "[page\n", FormatTOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("Parse() error = %v, want %s", err, errors.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	doc, err := Parse([]byte(sample), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	c, err := Compile(doc, "sample")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	r := c.Regions
	if r.Size != (layout.Size{X: 200, Y: 100}) || r.Full != 100 {
		t.Errorf("first region = %v (full %v)", r.Size, r.Full)
	}
	if !cmp.Equal(r.Backlog, []layout.Abs{80}) || r.Last == nil || *r.Last != 60 {
		t.Errorf("backlog = %v, last = %v", r.Backlog, r.Last)
	}
	if !r.Expand.X || r.Expand.Y {
		t.Errorf("expand = %+v", r.Expand)
	}

	o := c.Options
	if o.Columns != 2 || o.Gutter != layout.Absolute(10) || o.Balance != flow.BalanceEven || !o.Root {
		t.Errorf("options = %+v", o)
	}
	if o.Style.Dir != layout.RTL || o.Style.BlockSpacing != 4 || o.Style.FontSize != 10 {
		t.Errorf("style = %+v", o.Style)
	}
	if n := o.Style.Numbering; n == nil || n.Format != "i" || n.Margin != layout.End {
		t.Errorf("numbering = %+v", n)
	}

	space, ok := c.Pairs[0].Content.(*content.Space)
	if !ok || !space.Weak || space.Amount.Abs != 5 {
		t.Errorf("pair 0 = %#v", c.Pairs[0].Content)
	}

	block := c.Pairs[1].Content.(*content.Block)
	note := block.Leaf.Marks[0].Elem.(*content.Footnote)
	ref := c.Pairs[2].Content.(*content.Footnote)
	if !ref.IsRef() || ref.RefTo != note.Loc {
		t.Errorf("reference points to %v, want %v", ref.RefTo, note.Loc)
	}
	if ref.Loc == note.Loc {
		t.Error("reference shares the location of its target")
	}

	place := c.Pairs[3].Content.(*content.Place)
	if place.Scope != content.ScopeParent || place.AlignY != content.VAuto || place.Loc == 0 {
		t.Errorf("place = %+v", place)
	}

	if u, ok := c.Pairs[4].Content.(*content.Unknown); !ok || u.Name != "image" {
		t.Errorf("pair 4 = %#v", c.Pairs[4].Content)
	}
}

func TestCompileDeterministicLocations(t *testing.T) {
	doc, err := Parse([]byte(sample), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	locs := func(seed string) []layout.Location {
		c, err := Compile(doc, seed)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		return []layout.Location{
			c.Pairs[1].Content.(*content.Block).Leaf.Marks[0].Elem.Location(),
			c.Pairs[3].Content.(*content.Place).Loc,
		}
	}

	if diff := cmp.Diff(locs("x"), locs("x")); diff != "" {
		t.Errorf("locations differ between compilations (-first +second):\n%s", diff)
	}
	if cmp.Equal(locs("x"), locs("y")) {
		t.Error("different seeds produced the same locations")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing width", "[page]\nheight = 10\n"},
		{"negative height", "[page]\nwidth = 10\nheight = -1\n"},
		{"columns", "[page]\nwidth = 10\n[flow]\ncolumns = 1000\n"},
		{"balance", "[page]\nwidth = 10\n[flow]\nbalance = \"even-ish\"\n"},
		{"expand infinite", "[page]\nwidth = 10\nexpand_y = true\n"},
		{"no kind", "[page]\nwidth = 10\n[[content]]\nlabel = \"a\"\n"},
		{"unknown ref", "[page]\nwidth = 10\n[[content]]\nkind = \"footnote\"\nref = \"nope\"\n"},
		{"place without body", "[page]\nwidth = 10\n[[content]]\nkind = \"place\"\n"},
		{"bad align", "[page]\nwidth = 10\n[[content]]\nkind = \"place\"\nalign_x = \"up\"\n[content.body]\nheight = 1\n"},
		{"text and lines", "[page]\nwidth = 10\n[[content]]\nkind = \"par\"\ntext = \"x\"\n[[content.lines]]\ntext = \"y\"\n"},
		{"bare mark", "[page]\nwidth = 10\n[[content]]\nkind = \"block\"\n[[content.marks]]\ny = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc), FormatTOML)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := Compile(doc, "t"); !errors.Is(err, errors.ErrCodeInvalidDocument) {
				t.Errorf("Compile() error = %v, want %s", err, errors.ErrCodeInvalidDocument)
			}
		})
	}
}

func TestWriteRead(t *testing.T) {
	doc, err := Parse([]byte(sample), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, format := range []Format{FormatJSON, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, doc, format); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			back, err := Read(&buf, format)
			if err != nil {
				t.Fatalf("Read() error = %v\n%s", err, buf.String())
			}
			if diff := cmp.Diff(doc, back); diff != "" {
				t.Errorf("document changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"doc.json": FormatJSON,
		"DOC.JSON": FormatJSON,
		"doc.toml": FormatTOML,
		"doc":      FormatTOML,
	} {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no examples")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			doc, _, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			c, err := Compile(doc, path)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			e := flow.NewEngine()
			frag, err := e.Layout(context.Background(), c.Pairs, c.Regions, c.Options)
			if err != nil {
				t.Fatalf("Layout() error = %v", err)
			}
			if len(frag) == 0 {
				t.Error("no frames")
			}
			for _, w := range e.Warnings() {
				if !strings.Contains(w.Message, "ignored") {
					t.Errorf("unexpected warning: %s", w.Message)
				}
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}
