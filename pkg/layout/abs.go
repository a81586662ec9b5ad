package layout

import (
	"fmt"
	"math"
)

// Abs is an absolute length in points.
type Abs float64

// tolerance absorbs floating-point error in fit decisions.
const tolerance = 1e-4

// Unit conversions to points.
const (
	Pt Abs = 1
	Mm Abs = 72 / 25.4
	Cm Abs = 72 / 2.54
	In Abs = 72
)

// Inf returns an infinite length.
func Inf() Abs { return Abs(math.Inf(1)) }

// IsFinite reports whether a is neither infinite nor NaN.
func (a Abs) IsFinite() bool {
	return !math.IsInf(float64(a), 0) && !math.IsNaN(float64(a))
}

// IsZero reports whether a is zero within tolerance.
func (a Abs) IsZero() bool { return math.Abs(float64(a)) < tolerance }

// Fits reports whether b fits into a, allowing for rounding error.
func (a Abs) Fits(b Abs) bool { return float64(a)+tolerance >= float64(b) }

// Approx reports whether a and b are equal within tolerance.
func (a Abs) Approx(b Abs) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return a == b
	}
	return math.Abs(float64(a-b)) < tolerance
}

// Max returns the larger of a and b.
func (a Abs) Max(b Abs) Abs {
	if b > a {
		return b
	}
	return a
}

// Min returns the smaller of a and b.
func (a Abs) Min(b Abs) Abs {
	if b < a {
		return b
	}
	return a
}

// Clamp restricts a to [lo, hi].
func (a Abs) Clamp(lo, hi Abs) Abs { return a.Max(lo).Min(hi) }

// Pt returns the length as a plain number of points.
func (a Abs) Pt() float64 { return float64(a) }

func (a Abs) String() string {
	if !a.IsFinite() {
		return "inf"
	}
	return fmt.Sprintf("%gpt", math.Round(float64(a)*1000)/1000)
}

// Fr is a fractional share of leftover space.
type Fr float64

// Share returns the part of space that this fraction claims out of total.
func (f Fr) Share(total Fr, space Abs) Abs {
	if total <= 0 || !space.IsFinite() {
		return 0
	}
	share := Abs(float64(f) / float64(total) * float64(space))
	if share < 0 {
		return 0
	}
	return share
}

// Rel is a length relative to some base plus an absolute offset.
type Rel struct {
	Ratio float64 `json:"ratio,omitempty" toml:"ratio"`
	Abs   Abs     `json:"abs,omitempty" toml:"abs"`
}

// Absolute returns a Rel without a relative component.
func Absolute(a Abs) Rel { return Rel{Abs: a} }

// Ratio returns a Rel without an absolute component.
func Ratio(r float64) Rel { return Rel{Ratio: r} }

// RelativeTo resolves r against base.
func (r Rel) RelativeTo(base Abs) Abs {
	if r.Ratio == 0 {
		return r.Abs
	}
	return Abs(r.Ratio)*base + r.Abs
}

// IsZero reports whether r resolves to zero for every base.
func (r Rel) IsZero() bool { return r.Ratio == 0 && r.Abs.IsZero() }
