package text

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/flowset/pkg/layout"
)

// Metrics are vertical font metrics at a given size.
type Metrics struct {
	Ascent  layout.Abs
	Descent layout.Abs
}

// Height is the height of a line box.
func (m Metrics) Height() layout.Abs { return m.Ascent + m.Descent }

// Measurer measures text. Implementations must be safe for concurrent use.
type Measurer interface {
	Advance(s string, size layout.Abs) layout.Abs
	Metrics(size layout.Abs) Metrics
}

// FontMeasurer measures text with an OpenType font.
type FontMeasurer struct {
	font *opentype.Font
	name string
}

// NewFontMeasurer parses TrueType or OpenType font data.
func NewFontMeasurer(data []byte) (*FontMeasurer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: failed to parse font: %w", err)
	}
	name, _ := f.Name(nil, sfnt.NameIDFamily)
	return &FontMeasurer{font: f, name: name}, nil
}

var (
	defaultMeasurer     *FontMeasurer
	defaultMeasurerOnce sync.Once
)

// Default returns a measurer for the embedded Go Regular font.
func Default() *FontMeasurer {
	defaultMeasurerOnce.Do(func() {
		m, err := NewFontMeasurer(goregular.TTF)
		if err != nil {
			panic(err)
		}
		defaultMeasurer = m
	})
	return defaultMeasurer
}

// Family returns the font family name.
func (m *FontMeasurer) Family() string { return m.name }

// Advance returns the horizontal advance of s at the given size, including
// kerning.
func (m *FontMeasurer) Advance(s string, size layout.Abs) layout.Abs {
	var buf sfnt.Buffer
	ppem := toFixed(size)
	var total fixed.Int26_6
	prev, hasPrev := sfnt.GlyphIndex(0), false
	for _, r := range s {
		idx, err := m.font.GlyphIndex(&buf, r)
		if err != nil {
			continue
		}
		if hasPrev {
			if k, err := m.font.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				total += k
			}
		}
		adv, err := m.font.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		total += adv
		prev, hasPrev = idx, true
	}
	return fromFixed(total)
}

// Metrics returns ascent and descent at the given size.
func (m *FontMeasurer) Metrics(size layout.Abs) Metrics {
	var buf sfnt.Buffer
	fm, err := m.font.Metrics(&buf, toFixed(size), font.HintingNone)
	if err != nil {
		return Metrics{Ascent: size * 0.8, Descent: size * 0.2}
	}
	return Metrics{Ascent: fromFixed(fm.Ascent), Descent: fromFixed(fm.Descent)}
}

// Face returns a drawable face at size points rendered at 72 DPI. Callers
// close it when done.
func (m *FontMeasurer) Face(size float64) (font.Face, error) {
	return opentype.NewFace(m.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

func toFixed(a layout.Abs) fixed.Int26_6 { return fixed.Int26_6(float64(a) * 64) }

func fromFixed(x fixed.Int26_6) layout.Abs { return layout.Abs(float64(x) / 64) }
