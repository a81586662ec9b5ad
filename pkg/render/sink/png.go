package sink

import (
	"bytes"
	"context"
	"image/png"

	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/render"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svgOpts []SVGOption
	scale   float64
	native  bool
}

// WithPNGSVGOptions sets the page geometry and debug options, shared with
// the SVG renderer.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) { r.svgOpts = opts }
}

// WithScale sets pixels per point (default 2).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithNativeRaster skips rsvg-convert even when it is installed.
func WithNativeRaster() PNGOption {
	return func(r *pngRenderer) { r.native = true }
}

// RenderPNG renders frag as a PNG. With rsvg-convert on the PATH the SVG
// rendering is converted; otherwise the pages are painted directly.
func RenderPNG(ctx context.Context, frag layout.Fragment, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		r.scale = 2
	}
	if !r.native && render.ConverterAvailable() {
		return render.ToPNG(ctx, RenderSVG(frag, r.svgOpts...), r.scale)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rasterize(frag, newSVGRenderer(r.svgOpts...), r.scale)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
