package layout

// Region is a single area into which content is laid out.
type Region struct {
	Size   Size
	Expand Axes[bool]
}

// NewRegion creates a region.
func NewRegion(size Size, expand Axes[bool]) Region {
	return Region{Size: size, Expand: expand}
}

// Regions is a sequence of regions: the current one, a backlog of heights for
// the following ones and optionally a height that repeats indefinitely.
//
// Regions is a value type. The backlog slice is shared between copies and is
// never modified in place.
type Regions struct {
	// Size of the current region. Size.Y shrinks as content is placed.
	Size Size
	// Full is the height of the current region before anything was placed.
	Full Abs
	// Backlog holds heights of subsequent regions, consumed first to last.
	Backlog []Abs
	// Last, when set, is the height of every region after the backlog.
	Last *Abs
	// Expand reports per axis whether frames should fill the region.
	Expand Axes[bool]
}

// One returns regions consisting of exactly one region.
func One(size Size, expand Axes[bool]) Regions {
	return Regions{Size: size, Full: size.Y, Expand: expand}
}

// Repeat returns regions that repeat size indefinitely.
func Repeat(size Size, expand Axes[bool]) Regions {
	last := size.Y
	return Regions{Size: size, Full: size.Y, Last: &last, Expand: expand}
}

// FromRegion converts a single region.
func FromRegion(r Region) Regions { return One(r.Size, r.Expand) }

// First returns the current region.
func (r Regions) First() Region { return Region{Size: r.Size, Expand: r.Expand} }

// Base is the size relative lengths resolve against.
func (r Regions) Base() Size { return Size{X: r.Size.X, Y: r.Full} }

// IsFull reports whether the current region is exhausted while a later one
// could still take content.
func (r Regions) IsFull() bool {
	return Abs(0).Fits(r.Size.Y) && r.MayProgress()
}

// MayBreak reports whether there is any region after the current one.
func (r Regions) MayBreak() bool {
	return len(r.Backlog) > 0 || r.Last != nil
}

// MayProgress reports whether moving on to the next region could yield a
// region that differs from the current one. When false, deferring content
// cannot help and it is placed here regardless of fit.
func (r Regions) MayProgress() bool {
	return len(r.Backlog) > 0 || (r.Last != nil && !r.Size.Y.Approx(*r.Last))
}

// Next advances to the next region. It is a no-op when nothing follows.
func (r *Regions) Next() {
	var h Abs
	switch {
	case len(r.Backlog) > 0:
		h = r.Backlog[0]
		r.Backlog = r.Backlog[1:]
	case r.Last != nil:
		h = *r.Last
	default:
		return
	}
	r.Size.Y = h
	r.Full = h
}

// Iter returns up to n region heights starting with the current one.
func (r Regions) Iter(n int) []Abs {
	out := make([]Abs, 0, n)
	if n <= 0 {
		return out
	}
	out = append(out, r.Size.Y)
	for _, h := range r.Backlog {
		if len(out) == n {
			return out
		}
		out = append(out, h)
	}
	for r.Last != nil && len(out) < n {
		out = append(out, *r.Last)
	}
	return out
}

// Nth returns the height of the i-th region (0 is the current one).
func (r Regions) Nth(i int) (Abs, bool) {
	hs := r.Iter(i + 1)
	if len(hs) <= i {
		return 0, false
	}
	return hs[i], true
}

// WithBacklog returns a copy of r that uses the given backlog.
func (r Regions) WithBacklog(backlog []Abs) Regions {
	r.Backlog = backlog
	return r
}
