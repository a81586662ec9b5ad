package flow

import (
	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/text"
)

type childKind uint8

const (
	childTag childKind = iota
	childRel
	childFr
	childLine
	childSingle
	childMulti
	childPlaced
	childFlush
	childBreak
)

// child is one unit of flow work. Payloads that need more than a few words
// live in the arena and are referenced by index.
type child struct {
	kind     childKind
	tag      layout.Tag
	rel      layout.Rel
	fr       layout.Fr
	weakness uint8
	// weak and page qualify breaks.
	weak bool
	page bool
	idx  int
}

// arena owns all children of one flow invocation.
type arena struct {
	children []child
	lines    []lineChild
	singles  []singleChild
	multis   []multiChild
	placed   []placedChild
}

func (a *arena) line(c child) *lineChild     { return &a.lines[c.idx] }
func (a *arena) single(c child) *singleChild { return &a.singles[c.idx] }
func (a *arena) multi(c child) *multiChild   { return &a.multis[c.idx] }
func (a *arena) place(c child) *placedChild  { return &a.placed[c.idx] }

// lineChild is a laid-out paragraph line.
type lineChild struct {
	frame layout.Frame
	align layout.Axes[layout.Align]
	// need is the space that must be available to place this line without
	// creating a widow or an orphan.
	need layout.Abs
}

// singleChild is a block that is never broken.
type singleChild struct {
	align  layout.Axes[layout.Align]
	sticky bool
	alone  bool
	// fr is the block's fractional height, if any.
	fr    layout.Fr
	block *content.Block
	style content.Style
	loc   content.Locator

	memo *frameMemo
}

type frameMemo struct {
	region layout.Region
	frame  layout.Frame
}

func (s *singleChild) layout(e env, region layout.Region) (layout.Frame, error) {
	if s.memo != nil && s.memo.region == region {
		return s.memo.frame, nil
	}
	frame, err := layoutSingleBlock(e, s.block, s.style, s.loc, region)
	if err != nil {
		return layout.Frame{}, err
	}
	if !e.muted {
		s.memo = &frameMemo{region: region, frame: frame}
	}
	return frame, nil
}

// multiChild is a breakable block.
type multiChild struct {
	align  layout.Axes[layout.Align]
	sticky bool
	alone  bool
	block  *content.Block
	style  content.Style
	loc    content.Locator
}

// placedChild is an element positioned outside of normal flow.
type placedChild struct {
	loc       layout.Location
	float     bool
	scope     content.Scope
	alignX    layout.Align
	alignY    content.VAlign
	clearance layout.Abs
	delta     layout.Axes[layout.Rel]
	block     *content.Block
	style     content.Style
	locator   content.Locator
}

func (p *placedChild) layout(e env, base layout.Size) (layout.Frame, error) {
	return layoutSingleBlock(e, p.block, p.style, p.locator, layout.NewRegion(base, layout.Axes[bool]{}))
}

// collector converts realized pairs into an arena.
type collector struct {
	env     env
	arena   *arena
	locator content.Locator
	base    layout.Size
	expandX bool
	root    bool
	numbers bool
	count   int
}

// collect turns pairs into flow children. base is the size of the first
// column and is used to break paragraph text.
func collect(e env, pairs []content.Pair, cfg *config, base layout.Size, expandX bool) (*arena, error) {
	c := &collector{
		env:     e,
		arena:   &arena{},
		locator: cfg.locator,
		base:    base,
		expandX: expandX,
		root:    cfg.root,
		numbers: cfg.lineNumbers != nil,
		count:   len(pairs),
	}
	for i, p := range pairs {
		if err := c.pair(i, p); err != nil {
			return nil, err
		}
	}
	return c.arena, nil
}

func (c *collector) push(ch child) {
	c.arena.children = append(c.arena.children, ch)
}

func (c *collector) pair(i int, p content.Pair) error {
	loc := c.locator.Child(i)
	switch elem := p.Content.(type) {
	case *content.TagElem:
		c.push(child{kind: childTag, tag: elem.Tag})
	case *content.Space:
		var weakness uint8
		if elem.Weak {
			weakness = 1
		}
		c.spacing(*elem, weakness)
	case *content.Par:
		return c.par(elem, p.Style, loc)
	case *content.Block:
		return c.block(elem, p.Style, loc)
	case *content.Place:
		return c.place(elem, p.Style, loc)
	case *content.Flush:
		c.push(child{kind: childFlush})
	case *content.Colbreak:
		c.push(child{kind: childBreak, weak: elem.Weak})
	case *content.Pagebreak:
		if !c.root {
			return errors.New(errors.ErrCodeInvalidBreak, "pagebreaks are not allowed inside of containers").
				WithHint("use a column break instead")
		}
		c.push(child{kind: childBreak, weak: elem.Weak, page: true})
	case *content.Footnote:
		if elem.Loc == 0 {
			return errors.New(errors.ErrCodeInvalidDocument, "footnote at child %d has no location", i)
		}
		c.push(child{kind: childTag, tag: layout.Tag{Kind: layout.TagStart, Elem: elem}})
		c.push(child{kind: childTag, tag: layout.Tag{Kind: layout.TagEnd, Elem: elem}})
	case *content.Anchor:
		c.push(child{kind: childTag, tag: layout.Tag{Kind: layout.TagStart, Elem: elem}})
		c.push(child{kind: childTag, tag: layout.Tag{Kind: layout.TagEnd, Elem: elem}})
	case nil:
		return errors.New(errors.ErrCodeInvalidDocument, "child %d has no content", i)
	default:
		c.env.warnf(loc.Location(), "%s was ignored during flow layout", elem.Kind())
	}
	return nil
}

func (c *collector) spacing(s content.Space, weakness uint8) {
	if s.Fr > 0 {
		c.push(child{kind: childFr, fr: s.Fr, weakness: weakness})
		return
	}
	c.push(child{kind: childRel, rel: s.Amount, weakness: weakness})
}

func (c *collector) par(p *content.Par, style content.Style, loc content.Locator) error {
	frames, err := c.lines(p, style, loc)
	if err != nil {
		return err
	}

	spacing := layout.Absolute(style.ParSpacing)
	leading := style.Leading
	align := style.Align

	c.push(child{kind: childRel, rel: spacing, weakness: 4})

	n := len(frames)
	preventOrphans := style.Costs.Orphan > 0 && n >= 2 && !frames[1].IsEmpty()
	preventWidows := style.Costs.Widow > 0 && n >= 2 && !frames[n-2].IsEmpty()
	preventAll := n == 3 && preventOrphans && preventWidows

	heightAt := func(i int) layout.Abs {
		if i < 0 || i >= n {
			return 0
		}
		return frames[i].Height()
	}
	front1, front2 := heightAt(0), heightAt(1)
	back2, back1 := heightAt(n-2), heightAt(n-1)

	for i, frame := range frames {
		if i > 0 {
			c.push(child{kind: childRel, rel: layout.Absolute(leading), weakness: 5})
		}
		need := frame.Height()
		switch {
		case preventAll && i == 0:
			need = front1 + leading + front2 + leading + back1
		case preventOrphans && i == 0:
			need = front1 + leading + front2
		case preventWidows && i >= 2 && i+2 == n:
			need = back2 + leading + back1
		}
		c.arena.lines = append(c.arena.lines, lineChild{frame: frame, align: align, need: need})
		c.push(child{kind: childLine, idx: len(c.arena.lines) - 1})
	}

	c.push(child{kind: childRel, rel: spacing, weakness: 4})
	return nil
}

// lines produces one frame per paragraph line.
func (c *collector) lines(p *content.Par, style content.Style, loc content.Locator) ([]layout.Frame, error) {
	lines := p.Lines
	if lines == nil && p.Text != "" {
		width := c.base.X
		if !width.IsFinite() {
			width = layout.Abs(1e9)
		}
		broken := text.Break(c.env.measurer, p.Text, style.FontSize, width)
		lines = make([]content.Line, len(broken))
		for i, l := range broken {
			lines[i] = content.Line{Text: l.Text, Width: l.Width}
		}
		for _, ref := range p.Notes {
			if ref.Note == nil || ref.Note.Loc == 0 {
				return nil, errors.New(errors.ErrCodeInvalidDocument, "paragraph footnote has no location")
			}
			at := len(broken) - 1
			for i, l := range broken {
				if ref.Offset < l.End {
					at = i
					break
				}
			}
			if at >= 0 {
				lines[at].Notes = append(lines[at].Notes, ref.Note)
			}
		}
	}

	metrics := c.env.measurer.Metrics(style.FontSize)
	frames := make([]layout.Frame, len(lines))
	for i, l := range lines {
		height := l.Height
		if height == 0 {
			height = metrics.Height()
		}
		width := l.Width
		if width == 0 && l.Text != "" {
			width = c.env.measurer.Advance(l.Text, style.FontSize)
		}
		frameWidth := width
		if c.expandX && c.base.X.IsFinite() {
			frameWidth = c.base.X
		}

		frame := layout.NewFrame(layout.Size{X: frameWidth, Y: height})
		if style.Numbering != nil && c.numbers {
			marker := &lineMarker{loc: loc.Child(i).Location(), numbering: *style.Numbering}
			frame.Push(layout.Point{}, layout.TagItem{Tag: layout.Tag{Kind: layout.TagStart, Elem: marker}})
		}
		for _, note := range l.Notes {
			if note.Loc == 0 {
				return nil, errors.New(errors.ErrCodeInvalidDocument, "paragraph footnote has no location")
			}
			frame.Push(layout.Point{}, layout.TagItem{Tag: layout.Tag{Kind: layout.TagStart, Elem: note}})
		}
		if l.Text != "" {
			x := style.Align.X.Position(frameWidth - width)
			if style.Dir == layout.RTL && style.Align.X == layout.Start {
				x = frameWidth - width
			}
			frame.Push(layout.Point{X: x}, layout.TextRun{
				Text:     l.Text,
				FontSize: style.FontSize,
				Width:    width,
				Ascent:   metrics.Ascent,
			})
		}
		frames[i] = frame
	}
	return frames, nil
}

func (c *collector) block(b *content.Block, style content.Style, loc content.Locator) error {
	c.blockSpacing(b.Above, style)

	align := style.Align
	alone := c.count == 1
	switch {
	case !b.Breakable || b.Height.Kind == content.SizeFr:
		var fr layout.Fr
		if b.Height.Kind == content.SizeFr {
			fr = b.Height.Fr
		}
		c.arena.singles = append(c.arena.singles, singleChild{
			align:  align,
			sticky: b.Sticky,
			alone:  alone,
			fr:     fr,
			block:  b,
			style:  style,
			loc:    loc,
		})
		c.push(child{kind: childSingle, idx: len(c.arena.singles) - 1})
	default:
		c.arena.multis = append(c.arena.multis, multiChild{
			align:  align,
			sticky: b.Sticky,
			alone:  alone,
			block:  b,
			style:  style,
			loc:    loc,
		})
		c.push(child{kind: childMulti, idx: len(c.arena.multis) - 1})
	}

	c.blockSpacing(b.Below, style)
	return nil
}

func (c *collector) blockSpacing(s *content.Space, style content.Style) {
	if s == nil {
		c.push(child{kind: childRel, rel: layout.Absolute(style.BlockSpacing), weakness: 4})
		return
	}
	c.spacing(*s, 3)
}

func (c *collector) place(p *content.Place, style content.Style, loc content.Locator) error {
	if p.Float {
		if p.AlignY == content.VCenter || p.AlignY == content.VNone {
			return errors.New(errors.ErrCodeInvalidPlacement, "floating placement must be auto, top, or bottom").
				WithHint("set align_y to top or bottom, or leave it unset")
		}
	} else {
		if p.AlignY == content.VAuto {
			return errors.New(errors.ErrCodeInvalidPlacement, "automatic positioning is only available for floating placement").
				WithHint("you can enable floating placement with float = true")
		}
		if p.Scope == content.ScopeParent {
			return errors.New(errors.ErrCodeInvalidPlacement, "parent-scoped positioning is currently only available for floating placement").
				WithHint("you can enable floating placement with float = true")
		}
	}
	if p.Body == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "placed element has no body")
	}

	id := p.Loc
	if id == 0 {
		id = loc.Location()
	}
	c.arena.placed = append(c.arena.placed, placedChild{
		loc:       id,
		float:     p.Float,
		scope:     p.Scope,
		alignX:    p.AlignX,
		alignY:    p.AlignY,
		clearance: p.Clearance,
		delta:     layout.Axes[layout.Rel]{X: p.Dx, Y: p.Dy},
		block:     p.Body,
		style:     style,
		locator:   loc,
	})
	c.push(child{kind: childPlaced, idx: len(c.arena.placed) - 1})
	return nil
}

// offset resolves the placed element's dx/dy against size.
func (p *placedChild) offset(size layout.Size) layout.Point {
	return layout.Point{X: p.delta.X.RelativeTo(size.X), Y: p.delta.Y.RelativeTo(size.Y)}
}
