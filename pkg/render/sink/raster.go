package sink

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/text"
)

// Colours mirror the SVG stylesheet.
var (
	rgbPage       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	rgbPageStroke = color.RGBA{0xbb, 0xbb, 0xbb, 0xff}
	rgbBox        = color.RGBA{0xe8, 0xee, 0xf7, 0xff}
	rgbBoxStroke  = color.RGBA{0x4a, 0x6f, 0xa5, 0xff}
	rgbLabel      = color.RGBA{0x2d, 0x3e, 0x50, 0xff}
	rgbInk        = color.RGBA{0x22, 0x22, 0x22, 0xff}
	rgbDebug      = color.RGBA{0xd9, 0x53, 0x4f, 0xff}
	rgbBackground = color.RGBA{0xf4, 0xf4, 0xf4, 0xff}
)

// rasterizer paints frames straight into an RGBA image, for PNG output on
// machines without rsvg-convert. Text uses the embedded Go Regular font.
type rasterizer struct {
	img   *image.RGBA
	scale float64
	debug bool
	font  *text.FontMeasurer
	faces map[float64]font.Face
}

// rasterize lays out the pages of frag like RenderSVG and paints them at
// scale pixels per point.
func rasterize(frag layout.Fragment, svg svgRenderer, scale float64) *image.RGBA {
	var width, height float64
	for i, f := range frag {
		width = max(width, f.Width().Pt())
		height += f.Height().Pt()
		if i > 0 {
			height += svg.gap
		}
	}
	width += 2 * svg.margin
	height += 2 * svg.margin

	r := &rasterizer{
		img:   image.NewRGBA(image.Rect(0, 0, int(math.Ceil(width*scale)), int(math.Ceil(height*scale)))),
		scale: scale,
		debug: svg.debug,
		font:  text.Default(),
		faces: make(map[float64]font.Face),
	}
	defer r.closeFaces()

	xdraw.Draw(r.img, r.img.Bounds(), image.NewUniform(rgbBackground), image.Point{}, xdraw.Src)
	y := svg.margin
	for _, f := range frag {
		origin := layout.Point{X: layout.Abs(svg.margin), Y: layout.Abs(y)}
		r.fill(origin, f.Size(), rgbPage)
		r.stroke(origin, f.Size(), rgbPageStroke)
		r.frame(f, origin)
		y += f.Height().Pt() + svg.gap
	}
	return r.img
}

func (r *rasterizer) frame(f layout.Frame, off layout.Point) {
	for _, p := range f.Items() {
		pos := off.Add(p.Pos)
		switch it := p.Item.(type) {
		case layout.Group:
			if r.debug {
				r.stroke(pos, it.Frame.Size(), rgbDebug)
			}
			r.frame(it.Frame, pos)
		case layout.Box:
			r.fill(pos, it.Size, rgbBox)
			r.stroke(pos, it.Size, rgbBoxStroke)
			if it.Label != "" && it.Size.Y >= 6 {
				size := min(10, it.Size.Y.Pt()*0.6)
				center := pos.Add(layout.Point{X: it.Size.X / 2, Y: it.Size.Y / 2})
				r.text(it.Label, size, center, true, rgbLabel)
			}
		case layout.TextRun:
			r.text(it.Text, it.FontSize.Pt(), pos.Add(layout.Point{Y: it.Ascent}), false, rgbInk)
		case layout.Rule:
			r.fill(pos, it.Size, rgbInk)
		case layout.TagItem:
			if r.debug && it.Tag.Kind == layout.TagStart {
				r.fill(pos.Add(layout.Point{X: -1.5, Y: -1.5}), layout.Size{X: 3, Y: 3}, rgbDebug)
			}
		}
	}
}

// px converts points to device pixels.
func (r *rasterizer) px(v layout.Abs) int { return int(math.Round(v.Pt() * r.scale)) }

func (r *rasterizer) rect(pos layout.Point, size layout.Size) image.Rectangle {
	return image.Rect(r.px(pos.X), r.px(pos.Y), r.px(pos.X+size.X), r.px(pos.Y+size.Y))
}

func (r *rasterizer) fill(pos layout.Point, size layout.Size, c color.RGBA) {
	rect := r.rect(pos, size)
	// Hairlines still cover one pixel.
	if rect.Dy() == 0 && size.Y > 0 {
		rect.Max.Y++
	}
	if rect.Dx() == 0 && size.X > 0 {
		rect.Max.X++
	}
	xdraw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, xdraw.Over)
}

func (r *rasterizer) stroke(pos layout.Point, size layout.Size, c color.RGBA) {
	outer := r.rect(pos, size)
	w := max(1, int(math.Round(0.75*r.scale)))
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		{Min: outer.Min, Max: image.Pt(outer.Max.X, outer.Min.Y+w)},
		{Min: image.Pt(outer.Min.X, outer.Max.Y-w), Max: outer.Max},
		{Min: outer.Min, Max: image.Pt(outer.Min.X+w, outer.Max.Y)},
		{Min: image.Pt(outer.Max.X-w, outer.Min.Y), Max: outer.Max},
	} {
		xdraw.Draw(r.img, edge.Intersect(outer), src, image.Point{}, xdraw.Over)
	}
}

// text draws s with its baseline at pos, or centred on pos when centred is
// set.
func (r *rasterizer) text(s string, size float64, pos layout.Point, centred bool, c color.RGBA) {
	face := r.face(size * r.scale)
	if face == nil {
		return
	}
	d := &font.Drawer{Dst: r.img, Src: image.NewUniform(c), Face: face}
	x := fixed.Int26_6(pos.X.Pt() * r.scale * 64)
	y := fixed.Int26_6(pos.Y.Pt() * r.scale * 64)
	if centred {
		m := face.Metrics()
		x -= d.MeasureString(s) / 2
		y += (m.Ascent - m.Descent) / 2
	}
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(s)
}

func (r *rasterizer) face(px float64) font.Face {
	px = math.Round(px*4) / 4
	if f, ok := r.faces[px]; ok {
		return f
	}
	f, err := r.font.Face(px)
	if err != nil {
		return nil
	}
	r.faces[px] = f
	return f
}

func (r *rasterizer) closeFaces() {
	for _, f := range r.faces {
		_ = f.Close()
	}
}
