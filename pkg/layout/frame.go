package layout

import "fmt"

// Location identifies one element instance across layout attempts.
type Location uint64

func (l Location) String() string { return fmt.Sprintf("%016x", uint64(l)) }

// Element is anything that can be the subject of an introspection tag.
type Element interface {
	Location() Location
}

// TagKind distinguishes the start and end markers of an element.
type TagKind uint8

const (
	TagStart TagKind = iota
	TagEnd
)

// Tag marks where an element starts or ends in the output.
type Tag struct {
	Kind TagKind
	Elem Element
}

// Item is something that can be placed in a frame.
type Item interface {
	item()
}

// Group is a nested frame.
type Group struct {
	Frame Frame
}

// TextRun is a line of shaped text. The position of the run is the top of
// its line box.
type TextRun struct {
	Text     string
	FontSize Abs
	Width    Abs
	Ascent   Abs
}

// Box is an opaque piece of content, or a vertical slice of one when the
// content was broken across regions.
type Box struct {
	Label string
	Size  Size
	// From and To locate the slice within the unbroken content.
	From, To Abs
}

// Rule is a filled rectangle, used for separators.
type Rule struct {
	Size Size
}

// TagItem places an introspection tag.
type TagItem struct {
	Tag Tag
}

func (Group) item()   {}
func (TextRun) item() {}
func (Box) item()     {}
func (Rule) item()    {}
func (TagItem) item() {}

// Positioned is an item at a position.
type Positioned struct {
	Pos  Point
	Item Item
}

// Frame is a finished piece of layout. Frames are built by pushing items and
// treated as immutable once handed to another owner.
type Frame struct {
	size  Size
	items []Positioned
}

// NewFrame creates an empty frame of the given size.
func NewFrame(size Size) Frame { return Frame{size: size} }

// Size returns the frame's size.
func (f Frame) Size() Size { return f.size }

// Width returns the frame's width.
func (f Frame) Width() Abs { return f.size.X }

// Height returns the frame's height.
func (f Frame) Height() Abs { return f.size.Y }

// SetSize changes the frame's size without moving its items.
func (f *Frame) SetSize(s Size) { f.size = s }

// Items returns the frame's items in paint order.
func (f Frame) Items() []Positioned { return f.items }

// IsEmpty reports whether the frame has no items.
func (f Frame) IsEmpty() bool { return len(f.items) == 0 }

// Push adds an item at a position.
func (f *Frame) Push(pos Point, it Item) {
	f.items = append(f.items, Positioned{Pos: pos, Item: it})
}

// PushFrame adds a nested frame at a position. Empty zero-sized frames are
// dropped.
func (f *Frame) PushFrame(pos Point, child Frame) {
	if child.IsEmpty() && child.size.IsZero() {
		return
	}
	f.Push(pos, Group{Frame: child})
}

// Translate moves every item by d.
func (f *Frame) Translate(d Point) {
	if d == (Point{}) {
		return
	}
	items := make([]Positioned, len(f.items))
	for i, p := range f.items {
		items[i] = Positioned{Pos: p.Pos.Add(d), Item: p.Item}
	}
	f.items = items
}

// Clone returns a copy of f whose item list can be extended independently.
func (f Frame) Clone() Frame {
	items := make([]Positioned, len(f.items))
	copy(items, f.items)
	return Frame{size: f.size, items: items}
}

// Walk calls fn for every non-group item with its absolute position,
// descending into groups depth-first in paint order.
func (f Frame) Walk(fn func(pos Point, it Item)) {
	f.walk(Point{}, fn)
}

func (f Frame) walk(off Point, fn func(Point, Item)) {
	for _, p := range f.items {
		pos := off.Add(p.Pos)
		if g, ok := p.Item.(Group); ok {
			g.Frame.walk(pos, fn)
			continue
		}
		fn(pos, p.Item)
	}
}

// Found is an element discovered in a frame, with its vertical offset from
// the top of the searched frame.
type Found[T Element] struct {
	Y    Abs
	Elem T
}

// FindStarts returns all elements of type T whose start tag occurs in f,
// in paint order.
func FindStarts[T Element](f Frame) []Found[T] {
	var out []Found[T]
	f.Walk(func(pos Point, it Item) {
		ti, ok := it.(TagItem)
		if !ok || ti.Tag.Kind != TagStart {
			return
		}
		if e, ok := ti.Tag.Elem.(T); ok {
			out = append(out, Found[T]{Y: pos.Y, Elem: e})
		}
	})
	return out
}

// Fragment is the list of frames produced for one piece of content, one per
// region it occupied.
type Fragment []Frame

// Len returns the number of frames.
func (fr Fragment) Len() int { return len(fr) }

// IntoFrame returns the only frame, or the first one if there are several.
func (fr Fragment) IntoFrame() Frame {
	if len(fr) == 0 {
		return Frame{}
	}
	return fr[0]
}
