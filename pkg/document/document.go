package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowset/pkg/errors"
)

// Format is a document encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding by file extension. Unknown extensions
// are read as TOML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatTOML
}

// Document is a decoded flow document.
type Document struct {
	Page      Page       `toml:"page" json:"page"`
	Flow      Flow       `toml:"flow" json:"flow"`
	Style     Style      `toml:"style" json:"style"`
	Footnote  Footnote   `toml:"footnote" json:"footnote"`
	Numbering *Numbering `toml:"numbering,omitempty" json:"numbering,omitempty"`
	Content   []Node     `toml:"content" json:"content"`
}

// Page describes the regions.
type Page struct {
	Width   float64   `toml:"width" json:"width"`
	Height  float64   `toml:"height" json:"height"`
	Backlog []float64 `toml:"backlog,omitempty" json:"backlog,omitempty"`
	Repeat  bool      `toml:"repeat,omitempty" json:"repeat,omitempty"`
	ExpandX *bool     `toml:"expand_x,omitempty" json:"expand_x,omitempty"`
	ExpandY bool      `toml:"expand_y,omitempty" json:"expand_y,omitempty"`
}

// Flow holds the options of the top-level flow.
type Flow struct {
	Columns     int     `toml:"columns,omitempty" json:"columns,omitempty"`
	Gutter      float64 `toml:"gutter,omitempty" json:"gutter,omitempty"`
	GutterRatio float64 `toml:"gutter_ratio,omitempty" json:"gutter_ratio,omitempty"`
	Balance     string  `toml:"balance,omitempty" json:"balance,omitempty"`
	Root        *bool   `toml:"root,omitempty" json:"root,omitempty"`
}

// Style overrides the default style. Zero values keep the default.
type Style struct {
	FontSize     float64  `toml:"font_size,omitempty" json:"font_size,omitempty"`
	Leading      *float64 `toml:"leading,omitempty" json:"leading,omitempty"`
	ParSpacing   *float64 `toml:"par_spacing,omitempty" json:"par_spacing,omitempty"`
	BlockSpacing *float64 `toml:"block_spacing,omitempty" json:"block_spacing,omitempty"`
	AlignX       string   `toml:"align_x,omitempty" json:"align_x,omitempty"`
	AlignY       string   `toml:"align_y,omitempty" json:"align_y,omitempty"`
	Dir          string   `toml:"dir,omitempty" json:"dir,omitempty"`
	Widow        *float64 `toml:"widow,omitempty" json:"widow,omitempty"`
	Orphan       *float64 `toml:"orphan,omitempty" json:"orphan,omitempty"`
}

// Footnote configures the footnote area.
type Footnote struct {
	Clearance      *float64 `toml:"clearance,omitempty" json:"clearance,omitempty"`
	Gap            *float64 `toml:"gap,omitempty" json:"gap,omitempty"`
	SeparatorWidth *float64 `toml:"separator_width,omitempty" json:"separator_width,omitempty"`
	SeparatorRatio *float64 `toml:"separator_ratio,omitempty" json:"separator_ratio,omitempty"`
	SeparatorLine  *float64 `toml:"separator_stroke,omitempty" json:"separator_stroke,omitempty"`
}

// Numbering enables line numbers.
type Numbering struct {
	Format    string   `toml:"format,omitempty" json:"format,omitempty"`
	Margin    string   `toml:"margin,omitempty" json:"margin,omitempty"`
	Clearance *float64 `toml:"clearance,omitempty" json:"clearance,omitempty"`
	Align     string   `toml:"align,omitempty" json:"align,omitempty"`
	Scope     string   `toml:"scope,omitempty" json:"scope,omitempty"`
}

// Node is one content element. Which fields apply depends on Kind.
type Node struct {
	Kind string `toml:"kind" json:"kind"`

	// v
	Amount float64 `toml:"amount,omitempty" json:"amount,omitempty"`
	Ratio  float64 `toml:"ratio,omitempty" json:"ratio,omitempty"`
	Fr     float64 `toml:"fr,omitempty" json:"fr,omitempty"`
	Weak   bool    `toml:"weak,omitempty" json:"weak,omitempty"`

	// par
	Text  string    `toml:"text,omitempty" json:"text,omitempty"`
	Lines []Line    `toml:"lines,omitempty" json:"lines,omitempty"`
	Notes []NoteRef `toml:"notes,omitempty" json:"notes,omitempty"`

	// block
	Label       string   `toml:"label,omitempty" json:"label,omitempty"`
	Width       *float64 `toml:"width,omitempty" json:"width,omitempty"`
	WidthRatio  float64  `toml:"width_ratio,omitempty" json:"width_ratio,omitempty"`
	Height      *float64 `toml:"height,omitempty" json:"height,omitempty"`
	HeightRatio float64  `toml:"height_ratio,omitempty" json:"height_ratio,omitempty"`
	HeightFr    float64  `toml:"height_fr,omitempty" json:"height_fr,omitempty"`
	Breakable   bool     `toml:"breakable,omitempty" json:"breakable,omitempty"`
	Sticky      bool     `toml:"sticky,omitempty" json:"sticky,omitempty"`
	Above       *float64 `toml:"above,omitempty" json:"above,omitempty"`
	Below       *float64 `toml:"below,omitempty" json:"below,omitempty"`
	Marks       []Mark   `toml:"marks,omitempty" json:"marks,omitempty"`
	Children    []Node   `toml:"children,omitempty" json:"children,omitempty"`

	// place
	Float     bool    `toml:"float,omitempty" json:"float,omitempty"`
	Scope     string  `toml:"scope,omitempty" json:"scope,omitempty"`
	AlignX    string  `toml:"align_x,omitempty" json:"align_x,omitempty"`
	AlignY    string  `toml:"align_y,omitempty" json:"align_y,omitempty"`
	Clearance float64 `toml:"clearance,omitempty" json:"clearance,omitempty"`
	Dx        float64 `toml:"dx,omitempty" json:"dx,omitempty"`
	Dy        float64 `toml:"dy,omitempty" json:"dy,omitempty"`
	Body      *Node   `toml:"body,omitempty" json:"body,omitempty"`

	// footnote and anchor
	Name string `toml:"name,omitempty" json:"name,omitempty"`
	Ref  string `toml:"ref,omitempty" json:"ref,omitempty"`
	Note []Node `toml:"note,omitempty" json:"note,omitempty"`
}

// Line is a pre-broken paragraph line.
type Line struct {
	Text   string   `toml:"text" json:"text"`
	Height float64  `toml:"height,omitempty" json:"height,omitempty"`
	Notes  []NoteRef `toml:"notes,omitempty" json:"notes,omitempty"`
}

// NoteRef attaches a footnote to a character offset of a paragraph text.
// Inside an explicit line the offset is ignored.
type NoteRef struct {
	Offset int    `toml:"offset" json:"offset"`
	Name   string `toml:"name,omitempty" json:"name,omitempty"`
	Note   []Node `toml:"note" json:"note"`
}

// Mark places a footnote or an anchor inside an opaque block.
type Mark struct {
	Y      float64 `toml:"y" json:"y"`
	Anchor string  `toml:"anchor,omitempty" json:"anchor,omitempty"`
	Name   string  `toml:"name,omitempty" json:"name,omitempty"`
	Note   []Node  `toml:"note,omitempty" json:"note,omitempty"`
}

// Read decodes a document from r.
//
// TOML documents with keys that match no field are rejected, as are JSON
// documents with unknown fields. Read does not close r.
func Read(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
	}
	return Parse(data, format)
}

// Parse decodes a document from data.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML, "":
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			slices.Sort(keys)
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document format %q", format)
	}
	return &doc, nil
}

// Load reads the document at path, choosing the format by extension.
func Load(path string) (*Document, []byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, data, nil
}

// Write encodes doc to w. JSON output is indented.
func Write(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatTOML, "":
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported document format %q", format)
}
