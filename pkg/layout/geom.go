package layout

// Size is a two-dimensional extent.
type Size struct {
	X Abs `json:"x"`
	Y Abs `json:"y"`
}

// Add returns the component-wise sum.
func (s Size) Add(o Size) Size { return Size{s.X + o.X, s.Y + o.Y} }

// Min returns the component-wise minimum.
func (s Size) Min(o Size) Size { return Size{s.X.Min(o.X), s.Y.Min(o.Y)} }

// IsZero reports whether both components are zero.
func (s Size) IsZero() bool { return s.X.IsZero() && s.Y.IsZero() }

// Point is a position relative to a frame's top-left corner.
type Point struct {
	X Abs `json:"x"`
	Y Abs `json:"y"`
}

// Add returns the sum of two points.
func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

// Axes holds one value per axis.
type Axes[T any] struct {
	X T `json:"x"`
	Y T `json:"y"`
}

// Splat returns Axes with the same value on both axes.
func Splat[T any](v T) Axes[T] { return Axes[T]{X: v, Y: v} }

// SelectSize returns a's component where expand is set and b's otherwise.
func SelectSize(expand Axes[bool], a, b Size) Size {
	out := b
	if expand.X {
		out.X = a.X
	}
	if expand.Y {
		out.Y = a.Y
	}
	return out
}

// Align is a fixed alignment along one axis.
type Align uint8

const (
	Start Align = iota
	Center
	End
)

// Position returns the offset at which content is placed within free space.
func (a Align) Position(free Abs) Abs {
	switch a {
	case Center:
		return free / 2
	case End:
		return free
	default:
		return 0
	}
}

// Max returns the later of two alignments.
func (a Align) Max(b Align) Align {
	if b > a {
		return b
	}
	return a
}

// Inv returns the opposite alignment.
func (a Align) Inv() Align {
	switch a {
	case Start:
		return End
	case End:
		return Start
	}
	return Center
}

func (a Align) String() string {
	switch a {
	case Center:
		return "center"
	case End:
		return "end"
	}
	return "start"
}

// ParseAlign parses "start", "center" or "end" (and the aliases left/top,
// right/bottom).
func ParseAlign(s string) (Align, bool) {
	switch s {
	case "", "start", "left", "top":
		return Start, true
	case "center", "horizon":
		return Center, true
	case "end", "right", "bottom":
		return End, true
	}
	return Start, false
}

// Dir is a horizontal text direction.
type Dir uint8

const (
	LTR Dir = iota
	RTL
)

func (d Dir) String() string {
	if d == RTL {
		return "rtl"
	}
	return "ltr"
}
