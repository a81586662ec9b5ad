package flow

import (
	"github.com/matzehuels/flowset/pkg/layout"
)

type placedFrame struct {
	placed *placedChild
	frame  layout.Frame
}

// insertions collects the out-of-flow areas at the top and bottom of a
// column or page: floats, the footnote separator and footnote entries.
type insertions struct {
	topFloats    []placedFrame
	bottomFloats []placedFrame
	footnotes    []layout.Frame
	separator    *layout.Frame
	topSize      layout.Abs
	bottomSize   layout.Abs
	width        layout.Abs
	// skips are the locations resolved by this area. They become permanent
	// only when the area is finalized.
	skips []layout.Location
}

func (ins *insertions) pushFloat(p *placedChild, frame layout.Frame, top bool) {
	ins.width = ins.width.Max(frame.Width())
	amount := frame.Height() + p.clearance
	pf := placedFrame{placed: p, frame: frame}
	if top {
		ins.topSize += amount
		ins.topFloats = append(ins.topFloats, pf)
		return
	}
	ins.bottomSize += amount
	ins.bottomFloats = append(ins.bottomFloats, pf)
}

func (ins *insertions) pushFootnote(cfg *config, frame layout.Frame) {
	ins.width = ins.width.Max(frame.Width())
	ins.bottomSize += cfg.footnote.gap + frame.Height()
	ins.footnotes = append(ins.footnotes, frame)
}

func (ins *insertions) pushSeparator(cfg *config, frame layout.Frame) {
	ins.width = ins.width.Max(frame.Width())
	ins.bottomSize += cfg.footnote.clearance + frame.Height()
	ins.separator = &frame
}

// height is the space taken from the region, clearances included.
func (ins *insertions) height() layout.Abs {
	return ins.topSize + ins.bottomSize
}

func (ins *insertions) skipped(loc layout.Location) bool {
	for _, s := range ins.skips {
		if s == loc {
			return true
		}
	}
	return false
}

func (ins *insertions) empty() bool {
	return len(ins.topFloats) == 0 &&
		len(ins.bottomFloats) == 0 &&
		ins.separator == nil &&
		len(ins.footnotes) == 0
}

// finalize commits the area's skips and wraps inner with the insertions.
// Bottom floats come before the footnotes.
func (ins *insertions) finalize(w *work, cfg *config, inner layout.Frame) layout.Frame {
	w.extendSkips(ins.skips)
	if ins.empty() {
		return inner
	}

	size := inner.Size().Add(layout.Size{Y: ins.height()})
	output := layout.NewFrame(size)
	offsetTop := layout.Abs(0)
	offsetBottom := size.Y - ins.bottomSize

	for _, pf := range ins.topFloats {
		pos := layout.Point{X: pf.placed.alignX.Position(size.X - pf.frame.Width()), Y: offsetTop}
		offsetTop += pf.frame.Height() + pf.placed.clearance
		output.PushFrame(pos.Add(pf.placed.offset(size)), pf.frame)
	}

	output.PushFrame(layout.Point{Y: ins.topSize}, inner)

	for _, pf := range ins.bottomFloats {
		offsetBottom += pf.placed.clearance
		pos := layout.Point{X: pf.placed.alignX.Position(size.X - pf.frame.Width()), Y: offsetBottom}
		offsetBottom += pf.frame.Height()
		output.PushFrame(pos.Add(pf.placed.offset(size)), pf.frame)
	}

	if ins.separator != nil {
		offsetBottom += cfg.footnote.clearance
		output.PushFrame(layout.Point{Y: offsetBottom}, *ins.separator)
		offsetBottom += ins.separator.Height()
	}

	for _, frame := range ins.footnotes {
		offsetBottom += cfg.footnote.gap
		output.PushFrame(layout.Point{Y: offsetBottom}, frame)
		offsetBottom += frame.Height()
	}

	return output
}
