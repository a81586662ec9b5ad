package content

import "github.com/matzehuels/flowset/pkg/layout"

// Content is one realized element.
type Content interface {
	// Kind names the element for diagnostics.
	Kind() string
}

// Pair is an element together with the style it was realized with.
type Pair struct {
	Content Content
	Style   Style
}

// Sequence is a convenience for building pairs that share one style.
func Sequence(style Style, elems ...Content) []Pair {
	out := make([]Pair, len(elems))
	for i, e := range elems {
		out[i] = Pair{Content: e, Style: style}
	}
	return out
}

// TagElem emits an introspection tag into the flow.
type TagElem struct {
	Tag layout.Tag
}

// Space is vertical spacing. A non-zero Fr takes precedence over Amount.
type Space struct {
	Amount layout.Rel
	Fr     layout.Fr
	Weak   bool
}

// Line is a pre-broken paragraph line.
type Line struct {
	Text   string
	Width  layout.Abs
	Height layout.Abs
	// Notes are footnotes whose markers sit on this line.
	Notes []*Footnote
}

// NoteRef anchors a footnote at a rune offset of a paragraph's text.
type NoteRef struct {
	Offset int
	Note   *Footnote
}

// Par is a paragraph. Either Lines is set, or Text is broken into lines
// with the engine's measurer.
type Par struct {
	Lines []Line
	Text  string
	Notes []NoteRef
}

// SizingKind selects how a block dimension is determined.
type SizingKind uint8

const (
	SizeAuto SizingKind = iota
	SizeRel
	SizeFr
)

// Sizing is a block width or height.
type Sizing struct {
	Kind SizingKind
	Rel  layout.Rel
	Fr   layout.Fr
}

// Auto returns automatic sizing.
func Auto() Sizing { return Sizing{} }

// Fixed returns an absolute size.
func Fixed(a layout.Abs) Sizing { return Sizing{Kind: SizeRel, Rel: layout.Absolute(a)} }

// Relative returns a size relative to the region.
func Relative(r layout.Rel) Sizing { return Sizing{Kind: SizeRel, Rel: r} }

// Fraction returns a fractional size.
func Fraction(fr layout.Fr) Sizing { return Sizing{Kind: SizeFr, Fr: fr} }

// Mark is an element tagged at a vertical offset inside a leaf body.
type Mark struct {
	Y    layout.Abs
	Elem layout.Element
}

// Leaf is an opaque block body of known natural size. Breakable leaves are
// sliced continuously at region boundaries.
type Leaf struct {
	Label  string
	Width  layout.Abs
	Height layout.Abs
	Marks  []Mark
}

// Block is a block-level container. Its body is either a Leaf or a nested
// sequence of children laid out as a flow of its own.
type Block struct {
	Width     Sizing
	Height    Sizing
	Breakable bool
	Sticky    bool
	// Above and Below override the style's block spacing when set.
	Above *Space
	Below *Space

	Leaf     *Leaf
	Children []Pair
}

// Scope is the area a placed element is positioned in.
type Scope uint8

const (
	ScopeColumn Scope = iota
	ScopeParent
)

func (s Scope) String() string {
	if s == ScopeParent {
		return "parent"
	}
	return "column"
}

// VAlign is the vertical alignment of a placed element.
type VAlign uint8

const (
	// VAuto picks top or bottom automatically. Floats only.
	VAuto VAlign = iota
	// VNone keeps a non-floating element at its in-flow position.
	VNone
	VStart
	VCenter
	VEnd
)

// Place removes its body from normal flow.
type Place struct {
	Loc       layout.Location
	Float     bool
	Scope     Scope
	AlignX    layout.Align
	AlignY    VAlign
	Clearance layout.Abs
	Dx, Dy    layout.Rel
	Body      *Block
}

// Flush forces all queued floats out before further content.
type Flush struct{}

// Colbreak ends the current column. Weak breaks are ignored at the start of
// a column.
type Colbreak struct {
	Weak bool
}

// Pagebreak ends the current page. It is only valid in a root flow.
type Pagebreak struct {
	Weak bool
}

// Footnote is a note whose body goes to the bottom of the column that holds
// its marker. A footnote with RefTo set only repeats another note's marker.
type Footnote struct {
	Loc   layout.Location
	RefTo layout.Location
	Body  []Pair
}

// Location implements layout.Element.
func (f *Footnote) Location() layout.Location { return f.Loc }

// IsRef reports whether the footnote merely references another note.
func (f *Footnote) IsRef() bool { return f.RefTo != 0 }

// Anchor is a named, locatable point such as a heading or label.
type Anchor struct {
	Loc  layout.Location
	Name string
}

// Location implements layout.Element.
func (a *Anchor) Location() layout.Location { return a.Loc }

// Unknown is an element flow layout does not handle.
type Unknown struct {
	Name string
}

func (*TagElem) Kind() string   { return "tag" }
func (*Space) Kind() string     { return "v" }
func (*Par) Kind() string       { return "par" }
func (*Block) Kind() string     { return "block" }
func (*Place) Kind() string     { return "place" }
func (*Flush) Kind() string     { return "flush" }
func (*Colbreak) Kind() string  { return "colbreak" }
func (*Pagebreak) Kind() string { return "pagebreak" }
func (*Footnote) Kind() string  { return "footnote" }
func (*Anchor) Kind() string    { return "anchor" }
func (u *Unknown) Kind() string { return u.Name }
