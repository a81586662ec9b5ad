package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	tags     bool
	warnings []string
}

// WithJSONTags includes introspection tags in the output.
func WithJSONTags() JSONOption { return func(r *jsonRenderer) { r.tags = true } }

// WithJSONWarnings records layout warnings in the output.
func WithJSONWarnings(w []string) JSONOption { return func(r *jsonRenderer) { r.warnings = w } }

type jsonOutput struct {
	Pages    []jsonPage `json:"pages"`
	Warnings []string   `json:"warnings,omitempty"`
}

type jsonPage struct {
	Index  int        `json:"index"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Items  []jsonItem `json:"items"`
}

type jsonItem struct {
	Kind     string   `json:"kind"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Label    string   `json:"label,omitempty"`
	Text     string   `json:"text,omitempty"`
	FontSize float64  `json:"font_size,omitempty"`
	From     *float64 `json:"from,omitempty"`
	To       *float64 `json:"to,omitempty"`
	Tag      string   `json:"tag,omitempty"`
	Element  string   `json:"element,omitempty"`
	Location string   `json:"location,omitempty"`
	Name     string   `json:"name,omitempty"`
}

// element summarizes a tagged element for output.
type element struct {
	Kind string
	Loc  layout.Location
	Name string
}

func describe(e layout.Element) element {
	switch v := e.(type) {
	case *content.Footnote:
		kind := "footnote"
		if v.IsRef() {
			kind = "footnote-ref"
		}
		return element{Kind: kind, Loc: v.Loc}
	case *content.Anchor:
		return element{Kind: "anchor", Loc: v.Loc, Name: v.Name}
	case nil:
		return element{Kind: "none"}
	}
	return element{Kind: "marker", Loc: e.Location()}
}

// RenderJSON exports the positioned leaf items of every frame as JSON.
// Positions are absolute within their page. Nested frames are flattened.
//
// RenderJSON does not modify frag and is safe to call concurrently.
func RenderJSON(frag layout.Fragment, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{Pages: make([]jsonPage, len(frag)), Warnings: r.warnings}
	for i, f := range frag {
		page := jsonPage{
			Index:  i + 1,
			Width:  f.Width().Pt(),
			Height: f.Height().Pt(),
			Items:  []jsonItem{},
		}
		f.Walk(func(pos layout.Point, it layout.Item) {
			if item, ok := r.item(pos, it); ok {
				page.Items = append(page.Items, item)
			}
		})
		out.Pages[i] = page
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

func (r *jsonRenderer) item(pos layout.Point, it layout.Item) (jsonItem, bool) {
	out := jsonItem{X: pos.X.Pt(), Y: pos.Y.Pt()}
	switch v := it.(type) {
	case layout.Box:
		from, to := v.From.Pt(), v.To.Pt()
		out.Kind = "box"
		out.Label = v.Label
		out.Width, out.Height = v.Size.X.Pt(), v.Size.Y.Pt()
		out.From, out.To = &from, &to
	case layout.TextRun:
		out.Kind = "text"
		out.Text = v.Text
		out.Width = v.Width.Pt()
		out.FontSize = v.FontSize.Pt()
	case layout.Rule:
		out.Kind = "rule"
		out.Width, out.Height = v.Size.X.Pt(), v.Size.Y.Pt()
	case layout.TagItem:
		if !r.tags {
			return out, false
		}
		e := describe(v.Tag.Elem)
		out.Kind = "tag"
		out.Tag = "start"
		if v.Tag.Kind == layout.TagEnd {
			out.Tag = "end"
		}
		out.Element = e.Kind
		out.Name = e.Name
		if e.Loc != 0 {
			out.Location = e.Loc.String()
		}
	default:
		return out, false
	}
	return out, true
}
