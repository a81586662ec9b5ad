package flow

import (
	"slices"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
)

// blockWidth resolves the width of a block in a region of the given width.
// fixed is false when the block takes its natural width.
func blockWidth(b *content.Block, avail layout.Abs) (width layout.Abs, fixed bool) {
	switch b.Width.Kind {
	case content.SizeRel:
		if b.Width.Rel.Ratio != 0 && !avail.IsFinite() {
			break
		}
		return b.Width.Rel.RelativeTo(avail), true
	default:
		if b.Leaf != nil && b.Leaf.Width > 0 && b.Width.Kind == content.SizeAuto {
			return b.Leaf.Width, true
		}
		if avail.IsFinite() {
			return avail, true
		}
	}
	if b.Leaf != nil {
		return b.Leaf.Width, true
	}
	return layout.Inf(), false
}

// layoutSingleBlock lays out an unbreakable block into one frame.
func layoutSingleBlock(e env, b *content.Block, style content.Style, loc content.Locator, region layout.Region) (layout.Frame, error) {
	width, fixedW := blockWidth(b, region.Size.X)

	height, fixedH := layout.Abs(0), true
	switch b.Height.Kind {
	case content.SizeRel:
		height = b.Height.Rel.RelativeTo(region.Size.Y)
	case content.SizeFr:
		height = region.Size.Y
		if !height.IsFinite() {
			height, fixedH = 0, b.Leaf == nil
		}
	default:
		fixedH = false
	}

	if b.Leaf != nil {
		if !fixedH {
			height = b.Leaf.Height
		}
		return leafSlice(b.Leaf, layout.Size{X: width, Y: height}, 0, height, true), nil
	}

	podHeight := layout.Inf()
	if fixedH {
		podHeight = height
	}
	pod := layout.One(layout.Size{X: width, Y: podHeight}, layout.Axes[bool]{X: fixedW, Y: fixedH})
	frag, err := layoutFlow(e.nested(), b.Children, pod, Options{Columns: 1, Style: style, Locator: loc})
	if err != nil {
		return layout.Frame{}, err
	}
	frame := frag.IntoFrame()
	size := frame.Size()
	if fixedW {
		size.X = width
	}
	if fixedH {
		size.Y = height
	}
	frame.SetSize(size)
	return frame, nil
}

// layoutMultiBlock lays out a breakable block, producing one frame per
// region it occupies.
func layoutMultiBlock(e env, b *content.Block, style content.Style, loc content.Locator, regions layout.Regions) (layout.Fragment, error) {
	width, fixedW := blockWidth(b, regions.Size.X)

	total, fixedH := layout.Abs(0), false
	if b.Height.Kind == content.SizeRel {
		total, fixedH = b.Height.Rel.RelativeTo(regions.Base().Y), true
	}

	if b.Leaf != nil {
		if !fixedH {
			total = b.Leaf.Height
		}
		heights := regionHeights(regions)
		parts := sliceHeights(heights, regions, total)
		out := make(layout.Fragment, len(parts))
		var from layout.Abs
		for i, h := range parts {
			size := layout.Size{X: width, Y: h}
			if regions.Expand.Y && i < len(heights) && heights[i].IsFinite() {
				size.Y = heights[i].Max(h)
			}
			out[i] = leafSlice(b.Leaf, size, from, from+h, i == len(parts)-1)
			from += h
		}
		return out, nil
	}

	pod := regions
	pod.Size.X = width
	pod.Expand.X = fixedW
	if fixedH {
		hs := sliceHeights(regionHeights(regions), regions, total)
		pod = layout.Regions{
			Size:    layout.Size{X: width, Y: hs[0]},
			Full:    hs[0],
			Backlog: hs[1:],
			Expand:  layout.Axes[bool]{X: fixedW, Y: true},
		}
	}
	return layoutFlow(e.nested(), b.Children, pod, Options{Columns: 1, Style: style, Locator: loc})
}

// regionHeights lists the current height followed by the backlog.
func regionHeights(regions layout.Regions) []layout.Abs {
	return append([]layout.Abs{regions.Size.Y}, regions.Backlog...)
}

// sliceHeights splits total over the regions. The final slice takes the
// whole remainder, even if it overflows its region.
func sliceHeights(heights []layout.Abs, regions layout.Regions, total layout.Abs) []layout.Abs {
	var out []layout.Abs
	rest := total
	for i := 0; ; i++ {
		var h layout.Abs
		more := true
		switch {
		case i < len(heights):
			h = heights[i]
			more = i+1 < len(heights) || (regions.Last != nil && *regions.Last > 0)
		default:
			h = *regions.Last
		}
		h = h.Max(0)
		if !more || h.Fits(rest) {
			return append(out, rest.Max(0))
		}
		out = append(out, h)
		rest -= h
	}
}

// leafSlice produces the frame showing [from, to) of a leaf body. Marks at
// the very end belong to the last slice.
func leafSlice(leaf *content.Leaf, size layout.Size, from, to layout.Abs, last bool) layout.Frame {
	frame := layout.NewFrame(size)
	frame.Push(layout.Point{}, layout.Box{
		Label: leaf.Label,
		Size:  layout.Size{X: size.X, Y: to - from},
		From:  from,
		To:    to,
	})
	for _, m := range leaf.Marks {
		if m.Y < from || m.Y > to || (m.Y == to && !last) {
			continue
		}
		frame.Push(layout.Point{Y: m.Y - from}, layout.TagItem{Tag: layout.Tag{Kind: layout.TagStart, Elem: m.Elem}})
	}
	return frame
}

func (m *multiChild) layout(e env, regions layout.Regions) (layout.Frame, *multiSpill, error) {
	frames, err := m.layoutFull(e, regions)
	if err != nil {
		return layout.Frame{}, nil, err
	}
	if len(frames) == 0 {
		return layout.NewFrame(layout.Size{X: regions.Size.X}), nil, nil
	}
	var spill *multiSpill
	if len(frames) > 1 {
		spill = &multiSpill{
			multi:      m,
			first:      regions.Size.Y,
			full:       regions.Full,
			minBacklog: len(regions.Backlog),
		}
	}
	return frames[0], spill, nil
}

func (m *multiChild) layoutFull(e env, regions layout.Regions) (layout.Fragment, error) {
	regions.Expand.Y = regions.Expand.Y && m.alone
	return layoutMultiBlock(e, m.block, m.style, m.loc, regions)
}

// multiSpill is the unplaced remainder of a breakable block. The block is
// always laid out in full; regions it has already been placed in are kept
// in backlog so that earlier slices stay where they are.
type multiSpill struct {
	multi *multiChild
	// first is the height of the region the block started in.
	first layout.Abs
	full  layout.Abs
	// backlog holds the committed heights of subsequent regions.
	backlog    []layout.Abs
	minBacklog int
}

func (s multiSpill) align() layout.Axes[layout.Align] { return s.multi.align }

func (s multiSpill) layout(e env, regions layout.Regions) (layout.Frame, *multiSpill, error) {
	s.backlog = append(slices.Clone(s.backlog), regions.Size.Y)

	backlog := append(slices.Clone(s.backlog), regions.Backlog...)
	for len(backlog) > s.minBacklog && regions.Last != nil && backlog[len(backlog)-1] == *regions.Last {
		backlog = backlog[:len(backlog)-1]
	}

	pod := layout.Regions{
		Size:    layout.Size{X: regions.Size.X, Y: s.first},
		Full:    s.full,
		Backlog: backlog,
		Last:    regions.Last,
		Expand:  regions.Expand,
	}
	frames, err := s.multi.layoutFull(e, pod)
	if err != nil {
		return layout.Frame{}, nil, err
	}
	s.minBacklog = max(s.minBacklog, len(backlog))

	skip := len(s.backlog)
	if skip >= len(frames) {
		return layout.NewFrame(layout.Size{X: regions.Size.X}), nil, nil
	}
	if skip+1 < len(frames) {
		return frames[skip], &s, nil
	}
	return frames[skip], nil, nil
}
