package flow

import (
	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/observability"
)

// composer lays out one region: a page (or container) made of one or more
// columns, each wrapped in its insertion areas. Page and column loops rerun
// from a checkpoint whenever a float or footnote changes the space available
// to in-flow content.
type composer struct {
	env  env
	work *work
	cfg  *config

	pageBase         layout.Size
	column           int
	pageInsertions   insertions
	columnInsertions insertions

	// Footnote state that must survive column relayouts.
	footnoteSpill []layout.Frame
	footnoteQueue []*content.Footnote

	// pageAvail is the in-flow height of the page, lead the height of the
	// first frame committed on it. Together they bound parent-scoped floats.
	pageAvail layout.Abs
	lead      layout.Abs
	hasLead   bool

	// balanced is the column height chosen by the balancer, or zero.
	balanced layout.Abs
}

func newComposer(e env, w *work, cfg *config, regions layout.Regions) *composer {
	return &composer{env: e, work: w, cfg: cfg, pageBase: regions.Base()}
}

// compose produces the frame of one region.
func compose(e env, w *work, cfg *config, regions layout.Regions) (layout.Frame, error) {
	c := newComposer(e, w, cfg, regions)
	if cfg.balance == BalanceEven && cfg.columns.count > 1 {
		c.balanced = balance(e, w, cfg, regions)
	}
	return c.page(regions)
}

func (c *composer) page(regions layout.Regions) (layout.Frame, error) {
	checkpoint := c.work.clone()
	attempts := -1

	var output layout.Frame
	for {
		pod := regions
		pod.Size.Y -= c.pageInsertions.height()

		frame, err := c.pageContents(pod)
		if err == nil {
			output = frame
			break
		}
		if !isRelayout(err, content.ScopeParent) {
			return layout.Frame{}, err
		}
		if err := c.guard(&attempts, c.pageInsertions.skips, content.ScopeParent); err != nil {
			return layout.Frame{}, err
		}
		*c.work = checkpoint.clone()
		c.footnoteSpill = nil
		c.footnoteQueue = nil
	}

	return c.pageInsertions.finalize(c.work, c.cfg, output), nil
}

// guard rejects a relayout that did not resolve anything new since the
// previous attempt of the same scope.
func (c *composer) guard(attempts *int, skips []layout.Location, scope content.Scope) error {
	if len(skips) <= *attempts {
		return errors.New(errors.ErrCodeRelayoutLoop, "%s relayout made no progress", scope)
	}
	*attempts = len(skips)
	c.env.debug("relayout", "scope", scope.String(), "resolved", len(skips))
	if !c.env.muted {
		observability.Flow().OnRelayout(c.env.ctx, scope.String())
	}
	return nil
}

func (c *composer) pageContents(regions layout.Regions) (layout.Frame, error) {
	c.pageAvail = regions.Size.Y
	c.hasLead = false
	defer func() { c.work.pageBreak = false }()

	count := c.cfg.columns.count
	if count == 1 {
		c.column = 0
		return c.layoutColumn(regions)
	}

	columnHeight := regions.Size.Y
	if c.balanced > 0 {
		columnHeight = columnHeight.Min(c.balanced)
	}

	// Every page height is repeated once per column.
	var backlog []layout.Abs
	for i, h := range append([]layout.Abs{columnHeight}, regions.Backlog...) {
		for j := range count {
			if i == 0 && j == 0 {
				continue
			}
			backlog = append(backlog, h)
		}
	}

	inner := layout.Regions{
		Size:    layout.Size{X: c.cfg.columns.width, Y: columnHeight},
		Full:    regions.Full,
		Backlog: backlog,
		Last:    regions.Last,
		Expand:  layout.Axes[bool]{X: true, Y: regions.Expand.Y},
	}

	size := layout.Size{X: regions.Size.X}
	if regions.Expand.Y {
		size.Y = regions.Size.Y
	}
	output := layout.NewFrame(size)
	var offset layout.Abs

	for i := range count {
		c.column = i
		frame, err := c.layoutColumn(inner)
		if err != nil {
			return layout.Frame{}, err
		}
		if !regions.Expand.Y {
			size.Y = size.Y.Max(frame.Height())
			output.SetSize(size)
		}

		width := frame.Width()
		x := offset
		if c.cfg.columns.dir == layout.RTL {
			x = regions.Size.X - offset - width
		}
		offset += width + c.cfg.columns.gutter

		output.PushFrame(layout.Point{X: x}, frame)
		inner.Next()

		if c.work.pageBreak {
			break
		}
	}

	return output, nil
}

func (c *composer) layoutColumn(regions layout.Regions) (layout.Frame, error) {
	c.columnInsertions = insertions{}

	if spill := c.work.footnoteSpill; len(spill) > 0 {
		c.work.footnoteSpill = nil
		c.footnoteSpillInto(spill, regions.Base())
	}

	checkpoint := c.work.clone()
	attempts := -1

	var inner layout.Frame
	for {
		pod := regions
		pod.Size.Y -= c.columnInsertions.height()
		if c.column == 0 {
			c.hasLead = false
		}

		frame, err := c.columnContents(pod)
		if err == nil {
			inner = frame
			break
		}
		if !isRelayout(err, content.ScopeColumn) {
			return layout.Frame{}, err
		}
		if err := c.guard(&attempts, c.columnInsertions.skips, content.ScopeColumn); err != nil {
			return layout.Frame{}, err
		}
		*c.work = checkpoint.clone()
	}

	c.work.footnotes = append(c.work.footnotes, c.footnoteQueue...)
	c.footnoteQueue = nil
	if len(c.footnoteSpill) > 0 {
		c.work.footnoteSpill = c.footnoteSpill
		c.footnoteSpill = nil
	}

	ins := c.columnInsertions
	c.columnInsertions = insertions{}
	output := ins.finalize(c.work, c.cfg, inner)

	if c.cfg.lineNumbers != nil {
		c.layoutLineNumbers(&output)
	}
	return output, nil
}

func (c *composer) columnContents(regions layout.Regions) (layout.Frame, error) {
	notes := c.work.footnotes
	c.work.footnotes = nil
	for _, note := range notes {
		pod := regions
		if err := c.footnote(note, &pod, 0, false); err != nil {
			return layout.Frame{}, err
		}
	}

	floats := c.work.floats
	c.work.floats = nil
	for _, p := range floats {
		if err := c.float(p, regions, false); err != nil {
			return layout.Frame{}, err
		}
	}

	return distribute(c, regions)
}

// float places a floating element into its scope's insertion area and
// requests a relayout of that scope, or queues it when it does not fit.
func (c *composer) float(p *placedChild, regions layout.Regions, clearance bool) error {
	if c.skipped(p.loc) {
		return nil
	}
	// Keep queued floats in order.
	if len(c.work.floats) > 0 {
		c.work.floats = append(c.work.floats, p)
		return nil
	}

	base := regions.Base()
	if p.scope == content.ScopeParent {
		base = c.pageBase
	}

	frame, err := p.layout(c.env, base)
	if err != nil {
		return err
	}

	remaining := c.remaining(p.scope, regions)

	need := frame.Height()
	if clearance {
		need += p.clearance
	}

	if !remaining.Fits(need) && regions.MayProgress() {
		c.work.floats = append(c.work.floats, p)
		return nil
	}

	if err := c.footnotes(regions, frame, need, false, false); err != nil {
		return err
	}

	area := &c.columnInsertions
	if p.scope == content.ScopeParent {
		area = &c.pageInsertions
	}
	area.pushFloat(p, frame, c.floatAtTop(p, base, remaining, need))
	area.skips = append(area.skips, p.loc)

	return relayout(p.scope)
}

// remaining is the space left for a float in its scope. It is exact for
// column floats. For parent floats it is the page budget minus the leading
// frame of the page, or for later columns the mean of the column heights
// still to come.
func (c *composer) remaining(scope content.Scope, regions layout.Regions) layout.Abs {
	if scope == content.ScopeColumn {
		return regions.Size.Y
	}
	count := c.cfg.columns.count
	if c.column == 0 {
		remaining := c.pageAvail
		if c.hasLead {
			remaining -= c.lead
		}
		return remaining
	}
	var sum layout.Abs
	for _, h := range regions.Iter(count - c.column) {
		sum += h
	}
	return sum / layout.Abs(count)
}

// floatAtTop picks the insertion area. Automatic placement goes to the top
// when the float's midpoint would sit in the upper half of the scope if it
// were laid out in flow.
func (c *composer) floatAtTop(p *placedChild, base layout.Size, remaining, need layout.Abs) bool {
	switch p.alignY {
	case content.VStart:
		return true
	case content.VEnd:
		return false
	}
	if !base.Y.IsFinite() || base.Y <= 0 {
		return true
	}
	used := base.Y - remaining
	ratio := (used + need/2) / base.Y
	return ratio <= 0.5
}

// footnotes handles the footnote markers in frame and in the pending tags.
// breakable reports whether the frame's element may be split, in which case
// the marker position counts as the in-flow need.
func (c *composer) footnotes(regions layout.Regions, frame layout.Frame, flowNeed layout.Abs, breakable, migratable bool) error {
	if !c.cfg.root {
		return nil
	}

	var notes []layout.Found[*content.Footnote]
	for _, tag := range c.work.tags {
		if tag.Kind != layout.TagStart {
			continue
		}
		if note, ok := tag.Elem.(*content.Footnote); ok {
			notes = append(notes, layout.Found[*content.Footnote]{Elem: note})
		}
	}
	notes = append(notes, layout.FindStarts[*content.Footnote](frame)...)
	if len(notes) == 0 {
		return nil
	}

	needRelayout := false
	migratable = migratable && !breakable && regions.MayProgress()

	for _, n := range notes {
		need := flowNeed
		if breakable {
			need = n.Y
		}
		err := c.footnote(n.Elem, &regions, need, migratable)
		switch {
		case err == nil:
		case isRelayout(err, content.ScopeColumn):
			needRelayout = true
		default:
			return err
		}
		// Only the first note may move its origin.
		migratable = false
	}

	if needRelayout {
		return relayout(content.ScopeColumn)
	}
	return nil
}

// footnote lays out one note entry at the bottom of the current column.
func (c *composer) footnote(note *content.Footnote, regions *layout.Regions, flowNeed layout.Abs, migratable bool) error {
	if note.IsRef() || c.skipped(note.Loc) {
		return nil
	}
	if len(c.footnoteSpill) > 0 || len(c.footnoteQueue) > 0 {
		c.queueFootnote(note)
		return nil
	}

	area := &c.columnInsertions

	var separator *layout.Frame
	var separatorNeed layout.Abs
	if len(area.footnotes) == 0 {
		frame := c.separator(regions.Base())
		separatorNeed = c.cfg.footnote.clearance + frame.Height()
		separator = &frame
	}

	pod := *regions
	pod.Expand.Y = false
	pod.Size.Y -= flowNeed + separatorNeed + c.cfg.footnote.gap

	frames, err := c.layoutFootnote(note, pod)
	if err != nil {
		return err
	}

	var nested []layout.Found[*content.Footnote]
	nonEmpty := false
	for _, f := range frames {
		nested = append(nested, layout.FindStarts[*content.Footnote](f)...)
		nonEmpty = nonEmpty || !f.IsEmpty()
	}

	first := frames[0]
	noteNeed := c.cfg.footnote.gap + first.Height()

	// Nothing of the entry fit. Move the marker along if possible so that
	// marker and entry stay together.
	if first.IsEmpty() && nonEmpty {
		if migratable {
			return finish(false)
		}
		c.queueFootnote(note)
		return nil
	}

	if separator != nil {
		area.pushSeparator(c.cfg, *separator)
		regions.Size.Y -= separatorNeed
	}
	area.pushFootnote(c.cfg, first)
	area.skips = append(area.skips, note.Loc)
	regions.Size.Y -= noteNeed

	if len(frames) > 1 {
		c.footnoteSpill = frames[1:]
	}

	for _, n := range nested {
		err := c.footnote(n.Elem, regions, flowNeed, false)
		if err != nil && !isRelayout(err, content.ScopeColumn) {
			return err
		}
	}

	return relayout(content.ScopeColumn)
}

func (c *composer) queueFootnote(note *content.Footnote) {
	for _, q := range c.footnoteQueue {
		if q.Loc == note.Loc {
			return
		}
	}
	c.footnoteQueue = append(c.footnoteQueue, note)
}

// footnoteSpillInto continues a broken footnote entry at the top of the
// column's footnote area.
func (c *composer) footnoteSpillInto(spill []layout.Frame, base layout.Size) {
	area := &c.columnInsertions
	area.pushSeparator(c.cfg, c.separator(base))
	area.pushFootnote(c.cfg, spill[0])
	if len(spill) > 1 {
		c.footnoteSpill = spill[1:]
	}
}

func (c *composer) skipped(loc layout.Location) bool {
	return c.work.skips.has(loc) ||
		c.pageInsertions.skipped(loc) ||
		c.columnInsertions.skipped(loc)
}

// insertionWidth is the width needed by the insertion areas.
func (c *composer) insertionWidth() layout.Abs {
	return c.columnInsertions.width.Max(c.pageInsertions.width)
}

// separator builds the rule above the footnotes.
func (c *composer) separator(base layout.Size) layout.Frame {
	sep := c.cfg.footnote.separator
	width := sep.Width.RelativeTo(base.X)
	if !width.IsFinite() {
		width = 0
	}
	frameWidth := width
	if c.cfg.footnote.expand && base.X.IsFinite() {
		frameWidth = base.X
	}
	frame := layout.NewFrame(layout.Size{X: frameWidth, Y: sep.Stroke})
	if sep.Stroke > 0 && width > 0 {
		frame.Push(layout.Point{}, layout.Rule{Size: layout.Size{X: width, Y: sep.Stroke}})
	}
	return frame
}

// layoutFootnote lays out a note body as a nested flow.
func (c *composer) layoutFootnote(note *content.Footnote, pod layout.Regions) (layout.Fragment, error) {
	frag, err := layoutFlow(c.env.nested(), note.Body, pod, Options{
		Columns: 1,
		Style:   c.cfg.style,
		Locator: c.cfg.locator.Named("footnote/" + note.Loc.String()),
	})
	if err != nil {
		return nil, err
	}
	if len(frag) == 0 {
		frag = layout.Fragment{layout.NewFrame(layout.Size{})}
	}
	return frag, nil
}
