package document

import (
	"math"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/flow"
	"github.com/matzehuels/flowset/pkg/layout"
)

// Compiled is a document ready for layout.
type Compiled struct {
	Pairs   []content.Pair
	Regions layout.Regions
	Options flow.Options
}

// Compile validates doc and converts it into flow input. seed scopes the
// derived element locations; documents compiled with the same seed get
// the same locations.
func Compile(doc *Document, seed string) (*Compiled, error) {
	style, err := doc.style()
	if err != nil {
		return nil, err
	}
	regions, err := doc.regions()
	if err != nil {
		return nil, err
	}
	opts, err := doc.options()
	if err != nil {
		return nil, err
	}
	opts.Style = style
	opts.Locator = content.NewLocator(seed)

	c := &compiler{style: style, notes: make(map[string]*content.Footnote)}
	pairs, err := c.nodes(doc.Content, opts.Locator.Named("content"), "content")
	if err != nil {
		return nil, err
	}
	if err := c.resolveRefs(); err != nil {
		return nil, err
	}
	return &Compiled{Pairs: pairs, Regions: regions, Options: opts}, nil
}

func (d *Document) regions() (layout.Regions, error) {
	p := d.Page
	if err := errors.ValidateLength("page.width", p.Width, false); err != nil {
		return layout.Regions{}, err
	}
	if p.Width == 0 {
		return layout.Regions{}, errors.New(errors.ErrCodeInvalidDocument, "page.width is required")
	}
	if err := errors.ValidateLength("page.height", p.Height, true); err != nil {
		return layout.Regions{}, err
	}
	for i, h := range p.Backlog {
		if err := errors.ValidateLength("page.backlog", h, false); err != nil {
			return layout.Regions{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "backlog entry %d", i)
		}
	}

	height := layout.Abs(p.Height)
	if p.Height == 0 {
		height = layout.Inf()
	}
	expand := layout.Axes[bool]{X: true, Y: p.ExpandY}
	if p.ExpandX != nil {
		expand.X = *p.ExpandX
	}
	if expand.Y && !height.IsFinite() {
		return layout.Regions{}, errors.New(errors.ErrCodeInvalidDocument, "page.expand_y needs a finite height")
	}

	r := layout.One(layout.Size{X: layout.Abs(p.Width), Y: height}, expand)
	for _, h := range p.Backlog {
		r.Backlog = append(r.Backlog, layout.Abs(h))
	}
	if p.Repeat {
		last := height
		if n := len(r.Backlog); n > 0 {
			last = r.Backlog[n-1]
			r.Backlog = r.Backlog[:n-1]
		}
		r.Last = &last
	}
	return r, nil
}

func (d *Document) options() (flow.Options, error) {
	f := d.Flow
	opts := flow.Options{Root: true}
	if f.Root != nil {
		opts.Root = *f.Root
	}
	if f.Columns != 0 {
		if err := errors.ValidateColumns(f.Columns); err != nil {
			return opts, err
		}
		opts.Columns = f.Columns
	}
	if err := errors.ValidateLength("flow.gutter", f.Gutter, false); err != nil {
		return opts, err
	}
	opts.Gutter = layout.Rel{Ratio: f.GutterRatio, Abs: layout.Abs(f.Gutter)}

	balance, ok := flow.ParseBalance(f.Balance)
	if !ok {
		return opts, errors.New(errors.ErrCodeInvalidDocument, "unknown balance mode %q", f.Balance)
	}
	opts.Balance = balance
	return opts, nil
}

func (d *Document) style() (content.Style, error) {
	s := content.DefaultStyle()
	in := d.Style

	if in.FontSize != 0 {
		if err := errors.ValidateLength("style.font_size", in.FontSize, false); err != nil {
			return s, err
		}
		s.FontSize = layout.Abs(in.FontSize)
	}
	lengths := []struct {
		name string
		src  *float64
		dst  *layout.Abs
	}{
		{"style.leading", in.Leading, &s.Leading},
		{"style.par_spacing", in.ParSpacing, &s.ParSpacing},
		{"style.block_spacing", in.BlockSpacing, &s.BlockSpacing},
		{"footnote.clearance", d.Footnote.Clearance, &s.Footnote.Clearance},
		{"footnote.gap", d.Footnote.Gap, &s.Footnote.Gap},
		{"footnote.separator_width", d.Footnote.SeparatorWidth, &s.Footnote.Separator.Width.Abs},
		{"footnote.separator_stroke", d.Footnote.SeparatorLine, &s.Footnote.Separator.Stroke},
	}
	for _, l := range lengths {
		if l.src == nil {
			continue
		}
		if err := errors.ValidateLength(l.name, *l.src, false); err != nil {
			return s, err
		}
		*l.dst = layout.Abs(*l.src)
	}
	if r := d.Footnote.SeparatorRatio; r != nil {
		s.Footnote.Separator.Width.Ratio = *r
	} else if d.Footnote.SeparatorWidth != nil {
		s.Footnote.Separator.Width.Ratio = 0
	}

	var err error
	if s.Align.X, err = parseAlign("style.align_x", in.AlignX); err != nil {
		return s, err
	}
	if s.Align.Y, err = parseAlign("style.align_y", in.AlignY); err != nil {
		return s, err
	}
	switch in.Dir {
	case "", "ltr":
		s.Dir = layout.LTR
	case "rtl":
		s.Dir = layout.RTL
	default:
		return s, errors.New(errors.ErrCodeInvalidDocument, "unknown direction %q", in.Dir)
	}
	if in.Widow != nil {
		s.Costs.Widow = *in.Widow
	}
	if in.Orphan != nil {
		s.Costs.Orphan = *in.Orphan
	}

	if n := d.Numbering; n != nil {
		numbering, err := n.compile()
		if err != nil {
			return s, err
		}
		s.Numbering = numbering
	}
	return s, nil
}

func (n *Numbering) compile() (*content.LineNumbering, error) {
	out := &content.LineNumbering{Format: n.Format, Clearance: absPtr(n.Clearance)}
	switch n.Format {
	case "":
		out.Format = "1"
	case "1", "a", "A", "i", "I":
	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unknown numbering format %q", n.Format)
	}
	margin, err := parseAlign("numbering.margin", n.Margin)
	if err != nil {
		return nil, err
	}
	out.Margin = margin
	if n.Align != "" {
		a, err := parseAlign("numbering.align", n.Align)
		if err != nil {
			return nil, err
		}
		out.Align = &a
	}
	switch n.Scope {
	case "", "document":
		out.Scope = content.NumberDocument
	case "page":
		out.Scope = content.NumberPage
	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unknown numbering scope %q", n.Scope)
	}
	return out, nil
}

type compiler struct {
	style content.Style
	notes map[string]*content.Footnote
	refs  []pendingRef
}

type pendingRef struct {
	note *content.Footnote
	name string
}

func (c *compiler) nodes(nodes []Node, loc content.Locator, path string) ([]content.Pair, error) {
	pairs := make([]content.Pair, 0, len(nodes))
	for i, n := range nodes {
		elem, err := c.node(n, loc.Child(i), path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "%s[%d]", path, i)
		}
		pairs = append(pairs, content.Pair{Content: elem, Style: c.style})
	}
	return pairs, nil
}

func (c *compiler) node(n Node, loc content.Locator, path string) (content.Content, error) {
	switch n.Kind {
	case "":
		return nil, errors.New(errors.ErrCodeInvalidDocument, "node has no kind")
	case "v":
		return c.space(n)
	case "par":
		return c.par(n, loc, path)
	case "block":
		return c.block(n, loc, path)
	case "place":
		return c.place(n, loc, path)
	case "flush":
		return &content.Flush{}, nil
	case "colbreak":
		return &content.Colbreak{Weak: n.Weak}, nil
	case "pagebreak":
		return &content.Pagebreak{Weak: n.Weak}, nil
	case "footnote":
		return c.footnote(n.Name, n.Ref, n.Note, loc, path)
	case "anchor":
		return &content.Anchor{Loc: loc.Location(), Name: n.Name}, nil
	}
	return &content.Unknown{Name: n.Kind}, nil
}

func (c *compiler) space(n Node) (*content.Space, error) {
	if err := finite("amount", n.Amount); err != nil {
		return nil, err
	}
	if err := errors.ValidateLength("fr", n.Fr, false); err != nil {
		return nil, err
	}
	return &content.Space{
		Amount: layout.Rel{Ratio: n.Ratio, Abs: layout.Abs(n.Amount)},
		Fr:     layout.Fr(n.Fr),
		Weak:   n.Weak,
	}, nil
}

func (c *compiler) par(n Node, loc content.Locator, path string) (*content.Par, error) {
	p := &content.Par{Text: n.Text}
	for i, ref := range n.Notes {
		note, err := c.footnote(ref.Name, "", ref.Note, loc.Named("note").Child(i), path+".notes")
		if err != nil {
			return nil, err
		}
		p.Notes = append(p.Notes, content.NoteRef{Offset: ref.Offset, Note: note})
	}
	if len(n.Lines) > 0 && n.Text != "" {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "paragraph has both text and lines")
	}
	for i, l := range n.Lines {
		if err := errors.ValidateLength("line height", l.Height, false); err != nil {
			return nil, err
		}
		line := content.Line{Text: l.Text, Height: layout.Abs(l.Height)}
		for j, ref := range l.Notes {
			note, err := c.footnote(ref.Name, "", ref.Note, loc.Named("line").Child(i).Child(j), path+".lines")
			if err != nil {
				return nil, err
			}
			line.Notes = append(line.Notes, note)
		}
		p.Lines = append(p.Lines, line)
	}
	return p, nil
}

func (c *compiler) block(n Node, loc content.Locator, path string) (*content.Block, error) {
	b := &content.Block{Breakable: n.Breakable, Sticky: n.Sticky}
	for _, v := range []struct {
		name string
		p    *float64
	}{{"width", n.Width}, {"height", n.Height}, {"above", n.Above}, {"below", n.Below}} {
		if v.p == nil {
			continue
		}
		if err := errors.ValidateLength(v.name, *v.p, false); err != nil {
			return nil, err
		}
	}
	if n.Above != nil {
		b.Above = &content.Space{Amount: layout.Absolute(layout.Abs(*n.Above))}
	}
	if n.Below != nil {
		b.Below = &content.Space{Amount: layout.Absolute(layout.Abs(*n.Below))}
	}

	switch {
	case n.WidthRatio > 0:
		b.Width = content.Relative(layout.Ratio(n.WidthRatio))
	case n.Width != nil && len(n.Children) > 0:
		b.Width = content.Fixed(layout.Abs(*n.Width))
	}
	switch {
	case n.HeightFr > 0:
		b.Height = content.Fraction(layout.Fr(n.HeightFr))
	case n.HeightRatio > 0:
		b.Height = content.Relative(layout.Ratio(n.HeightRatio))
	case n.Height != nil && len(n.Children) > 0:
		b.Height = content.Fixed(layout.Abs(*n.Height))
	}

	if len(n.Children) > 0 {
		if len(n.Marks) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "marks are only allowed on leaf blocks")
		}
		children, err := c.nodes(n.Children, loc, path+".children")
		if err != nil {
			return nil, err
		}
		b.Children = children
		return b, nil
	}

	leaf := &content.Leaf{Label: n.Label}
	if n.Width != nil {
		leaf.Width = layout.Abs(*n.Width)
	}
	if n.Height != nil {
		leaf.Height = layout.Abs(*n.Height)
	}
	for i, m := range n.Marks {
		if err := errors.ValidateLength("mark y", m.Y, false); err != nil {
			return nil, err
		}
		mloc := loc.Named("mark").Child(i)
		var elem layout.Element
		switch {
		case len(m.Note) > 0:
			note, err := c.footnote(m.Name, "", m.Note, mloc, path+".marks")
			if err != nil {
				return nil, err
			}
			elem = note
		case m.Anchor != "":
			elem = &content.Anchor{Loc: mloc.Location(), Name: m.Anchor}
		default:
			return nil, errors.New(errors.ErrCodeInvalidDocument, "mark %d needs a note or an anchor", i)
		}
		leaf.Marks = append(leaf.Marks, content.Mark{Y: layout.Abs(m.Y), Elem: elem})
	}
	b.Leaf = leaf
	return b, nil
}

func (c *compiler) place(n Node, loc content.Locator, path string) (*content.Place, error) {
	if n.Body == nil {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "place needs a body")
	}
	body := *n.Body
	if body.Kind == "" {
		body.Kind = "block"
	}
	if body.Kind != "block" {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "place body must be a block, not %q", body.Kind)
	}
	b, err := c.block(body, loc.Named("body"), path+".body")
	if err != nil {
		return nil, err
	}

	p := &content.Place{
		Loc:       loc.Location(),
		Float:     n.Float,
		Clearance: layout.Abs(n.Clearance),
		Dx:        layout.Absolute(layout.Abs(n.Dx)),
		Dy:        layout.Absolute(layout.Abs(n.Dy)),
		Body:      b,
	}
	if err := errors.ValidateLength("clearance", n.Clearance, false); err != nil {
		return nil, err
	}
	switch n.Scope {
	case "", "column":
		p.Scope = content.ScopeColumn
	case "parent":
		p.Scope = content.ScopeParent
	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unknown scope %q", n.Scope)
	}
	if p.AlignX, err = parseAlign("align_x", n.AlignX); err != nil {
		return nil, err
	}
	if p.AlignY, err = parseVAlign(n.AlignY, n.Float); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *compiler) footnote(name, ref string, body []Node, loc content.Locator, path string) (*content.Footnote, error) {
	note := &content.Footnote{Loc: loc.Location()}
	if ref != "" {
		if len(body) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "footnote reference %q cannot have a body", ref)
		}
		c.refs = append(c.refs, pendingRef{note: note, name: ref})
		return note, nil
	}
	pairs, err := c.nodes(body, loc.Named("body"), path+".note")
	if err != nil {
		return nil, err
	}
	note.Body = pairs
	if name != "" {
		if _, dup := c.notes[name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "duplicate footnote name %q", name)
		}
		c.notes[name] = note
	}
	return note, nil
}

func (c *compiler) resolveRefs() error {
	for _, r := range c.refs {
		target, ok := c.notes[r.name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidDocument, "footnote reference to unknown note %q", r.name)
		}
		r.note.RefTo = target.Loc
	}
	return nil
}

func parseAlign(field, s string) (layout.Align, error) {
	a, ok := layout.ParseAlign(s)
	if !ok {
		return a, errors.New(errors.ErrCodeInvalidDocument, "%s: unknown alignment %q", field, s)
	}
	return a, nil
}

func parseVAlign(s string, float bool) (content.VAlign, error) {
	switch s {
	case "":
		if float {
			return content.VAuto, nil
		}
		return content.VNone, nil
	case "auto":
		return content.VAuto, nil
	case "none":
		return content.VNone, nil
	case "top", "start":
		return content.VStart, nil
	case "horizon", "center":
		return content.VCenter, nil
	case "bottom", "end":
		return content.VEnd, nil
	}
	return content.VAuto, errors.New(errors.ErrCodeInvalidDocument, "align_y: unknown alignment %q", s)
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New(errors.ErrCodeInvalidDocument, "%s must be finite", name)
	}
	return nil
}

func absPtr(v *float64) *layout.Abs {
	if v == nil {
		return nil
	}
	a := layout.Abs(*v)
	return &a
}
