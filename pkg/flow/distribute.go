package flow

import (
	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
)

type itemKind uint8

const (
	itemTag itemKind = iota
	itemAbs
	itemFr
	itemFrame
	itemPlaced
)

// item is a piece of distributed content awaiting final positioning.
type item struct {
	kind     itemKind
	tag      layout.Tag
	amount   layout.Abs
	weakness uint8
	fr       layout.Fr
	// single is set for fractionally sized blocks.
	single *singleChild
	frame  layout.Frame
	align  layout.Axes[layout.Align]
	placed *placedChild
}

// migratable reports whether the item could move to the next region
// without leaving anything visible behind.
func (it item) migratable() bool {
	switch it.kind {
	case itemTag:
		return true
	case itemFrame:
		if !it.frame.Size().IsZero() {
			return false
		}
		for _, p := range it.frame.Items() {
			if _, ok := p.Item.(layout.TagItem); !ok {
				return false
			}
		}
		return true
	case itemPlaced:
		return !it.placed.float
	}
	return false
}

type snapshot struct {
	work  work
	items int
}

// distributor lays out in-flow children into a single column region.
type distributor struct {
	c       *composer
	regions layout.Regions
	items   []item
	// sticky is the state before a run of sticky blocks.
	sticky    *snapshot
	stickable *bool
}

func distribute(c *composer, regions layout.Regions) (layout.Frame, error) {
	d := &distributor{c: c, regions: regions}
	init := d.snapshot()

	var forced bool
	err := d.run()
	s, ok := asStop(err)
	switch {
	case err == nil:
		forced = c.work.done()
	case ok && s.kind == stopFinish:
		forced = s.forced
	default:
		return layout.Frame{}, err
	}

	return d.finalize(layout.NewRegion(regions.Size, regions.Expand), init, forced, regions.MayProgress())
}

func (d *distributor) run() error {
	if d.c.work.spill != nil {
		spill := *d.c.work.spill
		d.c.work.spill = nil
		if err := d.multiSpill(spill); err != nil {
			return err
		}
	}

	for {
		ch, ok := d.c.work.head()
		if !ok {
			return nil
		}
		if err := d.child(ch); err != nil {
			return err
		}
		d.c.work.advance()
	}
}

func (d *distributor) child(ch child) error {
	a := d.c.work.arena
	switch ch.kind {
	case childTag:
		d.c.work.tags = append(d.c.work.tags, ch.tag)
	case childRel:
		d.rel(ch.rel, ch.weakness)
	case childFr:
		d.fractional(ch.fr, ch.weakness)
	case childLine:
		return d.line(a.line(ch))
	case childSingle:
		return d.single(a.single(ch))
	case childMulti:
		return d.multi(a.multi(ch))
	case childPlaced:
		return d.placed(a.place(ch))
	case childFlush:
		return d.flush()
	case childBreak:
		return d.brk(ch.weak, ch.page)
	}
	return nil
}

func (d *distributor) flushTags() {
	for _, tag := range d.c.work.tags {
		d.items = append(d.items, item{kind: itemTag, tag: tag})
	}
	d.c.work.tags = nil
}

func (d *distributor) rel(amount layout.Rel, weakness uint8) {
	abs := amount.RelativeTo(d.regions.Base().Y)
	if weakness > 0 && !d.keepWeakRelSpacing(abs, weakness) {
		return
	}
	d.regions.Size.Y -= abs
	d.items = append(d.items, item{kind: itemAbs, amount: abs, weakness: weakness})
}

func (d *distributor) fractional(fr layout.Fr, weakness uint8) {
	if weakness > 0 && !d.keepWeakFrSpacing(fr, weakness) {
		return
	}
	d.trimSpacing()
	d.items = append(d.items, item{kind: itemFr, fr: fr, weakness: weakness})
}

// keepWeakRelSpacing decides whether weak spacing is added. Adjacent weak
// spacings collapse: the lower weakness wins, and among equals the larger
// amount. Weak spacing at the start of a region is dropped.
func (d *distributor) keepWeakRelSpacing(amount layout.Abs, weakness uint8) bool {
	for i := len(d.items) - 1; i >= 0; i-- {
		it := &d.items[i]
		switch it.kind {
		case itemAbs:
			if it.weakness == 0 {
				continue
			}
			if weakness <= it.weakness && (weakness < it.weakness || amount > it.amount) {
				d.regions.Size.Y -= amount - it.amount
				*it = item{kind: itemAbs, amount: amount, weakness: weakness}
			}
			return false
		case itemTag, itemPlaced:
		case itemFr:
			return it.single != nil
		case itemFrame:
			return true
		}
	}
	return false
}

func (d *distributor) keepWeakFrSpacing(fr layout.Fr, weakness uint8) bool {
	for i := len(d.items) - 1; i >= 0; i-- {
		it := &d.items[i]
		switch it.kind {
		case itemFr:
			if it.single == nil && it.weakness > 0 {
				if weakness <= it.weakness && (weakness < it.weakness || fr > it.fr) {
					*it = item{kind: itemFr, fr: fr, weakness: weakness}
				}
				return false
			}
			return true
		case itemTag, itemAbs, itemPlaced:
		case itemFrame:
			return true
		}
	}
	return false
}

// trimSpacing removes the last weak spacing if nothing but tags, strong
// spacing and placed items follow it.
func (d *distributor) trimSpacing() {
	for i := len(d.items) - 1; i >= 0; i-- {
		it := d.items[i]
		switch {
		case it.kind == itemAbs && it.weakness > 0:
			d.regions.Size.Y += it.amount
			d.items = append(d.items[:i], d.items[i+1:]...)
			return
		case it.kind == itemFr && it.weakness > 0 && it.single == nil:
			d.items = append(d.items[:i], d.items[i+1:]...)
			return
		case it.kind == itemFrame || it.kind == itemFr:
			return
		}
	}
}

// weakSpacing is the amount of trailing weak spacing.
func (d *distributor) weakSpacing() layout.Abs {
	for i := len(d.items) - 1; i >= 0; i-- {
		it := d.items[i]
		switch {
		case it.kind == itemAbs && it.weakness > 0:
			return it.amount
		case it.kind == itemFrame || it.kind == itemFr:
			return 0
		}
	}
	return 0
}

func (d *distributor) line(l *lineChild) error {
	if !d.regions.Size.Y.Fits(l.frame.Height()) && d.regions.MayProgress() {
		return finish(false)
	}
	// Keep lines together that widow/orphan prevention binds, unless the
	// next region could not hold them either.
	if !d.regions.Size.Y.Fits(l.need) {
		if next, ok := d.regions.Nth(1); ok && next.Fits(l.need) {
			return finish(false)
		}
	}
	return d.frame(l.frame, l.align, false, false)
}

func (d *distributor) single(s *singleChild) error {
	frame, err := s.layout(d.c.env, layout.NewRegion(d.regions.Base(), d.regions.Expand))
	if err != nil {
		return err
	}

	if s.fr > 0 {
		if err := d.c.footnotes(d.regions, frame, 0, false, true); err != nil {
			return err
		}
		d.flushTags()
		d.items = append(d.items, item{kind: itemFr, fr: s.fr, single: s})
		return nil
	}

	if !d.regions.Size.Y.Fits(frame.Height()) && d.regions.MayProgress() {
		return finish(false)
	}
	return d.frame(frame, s.align, s.sticky, false)
}

func (d *distributor) multi(m *multiChild) error {
	if d.regions.IsFull() {
		return finish(false)
	}

	frame, spill, err := m.layout(d.c.env, d.regions)
	if err != nil {
		return err
	}
	if frame.IsEmpty() && spill != nil && d.regions.MayProgress() {
		return finish(false)
	}

	if err := d.frame(frame, m.align, m.sticky, true); err != nil {
		return err
	}

	if spill != nil {
		d.c.work.spill = spill
		d.c.work.advance()
		return finish(false)
	}
	return nil
}

func (d *distributor) multiSpill(spill multiSpill) error {
	if d.regions.IsFull() {
		d.c.work.spill = &spill
		return finish(false)
	}

	frame, next, err := spill.layout(d.c.env, d.regions)
	if err != nil {
		return err
	}
	if err := d.frame(frame, spill.align(), false, true); err != nil {
		return err
	}

	if next != nil {
		d.c.work.spill = next
		return finish(false)
	}
	return nil
}

// frame adds an in-flow frame. A run of sticky frames is remembered so
// that it can move to the next region together with what follows it.
func (d *distributor) frame(f layout.Frame, align layout.Axes[layout.Align], sticky, breakable bool) error {
	if sticky {
		if d.sticky == nil {
			if d.stickable == nil {
				v := d.regions.MayProgress()
				d.stickable = &v
			}
			if *d.stickable {
				s := d.snapshot()
				d.sticky = &s
			}
		}
	} else if !f.IsEmpty() {
		d.sticky = nil
		d.stickable = nil
	}

	if err := d.c.footnotes(d.regions, f, f.Height(), breakable, true); err != nil {
		return err
	}

	if d.c.column == 0 && !d.c.hasLead && f.Height() > 0 {
		d.c.lead = f.Height()
		d.c.hasLead = true
	}

	d.regions.Size.Y -= f.Height()
	d.flushTags()
	d.items = append(d.items, item{kind: itemFrame, frame: f, align: align})
	return nil
}

func (d *distributor) placed(p *placedChild) error {
	if p.float {
		// Trailing weak spacing would be trimmed at the end of the region,
		// so it does not count against the float.
		weak := d.weakSpacing()
		d.regions.Size.Y += weak
		hasFrames := false
		for _, it := range d.items {
			if it.kind == itemFrame {
				hasFrames = true
				break
			}
		}
		if err := d.c.float(p, d.regions, hasFrames); err != nil {
			return err
		}
		d.regions.Size.Y -= weak
		return nil
	}

	frame, err := p.layout(d.c.env, d.regions.Base())
	if err != nil {
		return err
	}
	if err := d.c.footnotes(d.regions, frame, 0, true, true); err != nil {
		return err
	}
	d.flushTags()
	d.items = append(d.items, item{kind: itemPlaced, frame: frame, placed: p})
	return nil
}

func (d *distributor) flush() error {
	if len(d.c.work.floats) > 0 {
		return finish(false)
	}
	return nil
}

func (d *distributor) brk(weak, page bool) error {
	if (!weak || len(d.items) > 0) && d.regions.MayBreak() {
		d.c.work.advance()
		if page {
			d.c.work.pageBreak = true
		}
		return finish(true)
	}
	return nil
}

func (d *distributor) finalize(region layout.Region, init snapshot, forced, mayProgress bool) (layout.Frame, error) {
	switch {
	case forced:
		// Notes whose markers no in-flow frame carried are still pending.
		if err := d.c.footnotes(d.regions, layout.Frame{}, 0, false, false); err != nil {
			return layout.Frame{}, err
		}
		d.flushTags()
	case len(d.items) > 0 && d.allMigratable():
		d.restore(init)
	case d.sticky != nil:
		d.restore(*d.sticky)
		d.sticky = nil
	}

	d.trimSpacing()

	var frs layout.Fr
	var used layout.Size
	hasFrChild := false
	for _, it := range d.items {
		switch it.kind {
		case itemAbs:
			used.Y += it.amount
		case itemFr:
			frs += it.fr
			hasFrChild = hasFrChild || it.single != nil
		case itemFrame:
			used.Y += it.frame.Height()
			used.X = used.X.Max(it.frame.Width())
		}
	}

	var frSpace layout.Abs
	if frs > 0 && region.Size.Y.IsFinite() {
		frSpace = region.Size.Y - used.Y
		used.Y = region.Size.Y
	}

	var frFrames []layout.Frame
	if hasFrChild {
		for _, it := range d.items {
			if it.kind != itemFr || it.single == nil {
				continue
			}
			length := it.fr.Share(frs, frSpace)
			pod := layout.NewRegion(layout.Size{X: region.Size.X, Y: length}, region.Expand)
			frame, err := it.single.layout(d.c.env, pod)
			if err != nil {
				return layout.Frame{}, err
			}
			used.X = used.X.Max(frame.Width())
			frFrames = append(frFrames, frame)
		}
	}

	if !region.Expand.X {
		used.X = used.X.Max(d.c.insertionWidth())
	}

	if !mayProgress && !region.Size.Y.Fits(used.Y) {
		d.c.env.warnf(0, "content overflows the last region by %s", used.Y-region.Size.Y)
	}

	size := layout.SelectSize(region.Expand, region.Size, used.Min(region.Size))
	free := size.Y - used.Y

	output := layout.NewFrame(size)
	ruler := layout.Start
	var offset layout.Abs

	for _, it := range d.items {
		switch it.kind {
		case itemTag:
			output.Push(layout.Point{Y: offset + ruler.Position(free)}, layout.TagItem{Tag: it.tag})
		case itemAbs:
			offset += it.amount
		case itemFr:
			length := it.fr.Share(frs, frSpace)
			if it.single != nil {
				frame := frFrames[0]
				frFrames = frFrames[1:]
				x := it.single.align.X.Position(size.X - frame.Width())
				output.PushFrame(layout.Point{X: x, Y: offset}, frame)
			}
			offset += length
		case itemFrame:
			ruler = ruler.Max(it.align.Y)
			x := it.align.X.Position(size.X - it.frame.Width())
			y := offset + ruler.Position(free)
			offset += it.frame.Height()
			output.PushFrame(layout.Point{X: x, Y: y}, it.frame)
		case itemPlaced:
			p := it.placed
			x := p.alignX.Position(size.X - it.frame.Width())
			var y layout.Abs
			switch p.alignY {
			case content.VStart:
				y = 0
			case content.VCenter:
				y = (size.Y - it.frame.Height()) / 2
			case content.VEnd:
				y = size.Y - it.frame.Height()
			default:
				y = offset + ruler.Position(free)
			}
			output.PushFrame(layout.Point{X: x, Y: y}.Add(p.offset(size)), it.frame)
		}
	}

	d.c.env.debug("region finished", "height", size.Y.String(), "items", len(d.items), "forced", forced)
	return output, nil
}

func (d *distributor) allMigratable() bool {
	for _, it := range d.items {
		if !it.migratable() {
			return false
		}
	}
	return true
}

func (d *distributor) snapshot() snapshot {
	return snapshot{work: d.c.work.clone(), items: len(d.items)}
}

func (d *distributor) restore(s snapshot) {
	*d.c.work = s.work
	d.items = d.items[:s.items]
}
