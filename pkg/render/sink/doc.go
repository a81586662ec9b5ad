// Package sink renders laid-out fragments into output formats.
//
// # Overview
//
// A "sink" turns a [layout.Fragment] (one frame per region) into bytes.
// This package provides:
//
//   - SVG: pages stacked vertically, boxes labeled, text drawn as runs
//   - JSON: the flattened, absolutely positioned items of every page
//   - DOT: the frame tree as a Graphviz graph, rendered to SVG by [RenderDOT]
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster output, converted by rsvg-convert or painted natively
//
// # SVG Output
//
//	svg := sink.RenderSVG(frag, sink.WithDebug())
//
// Options:
//
//   - [WithGap]: space between pages
//   - [WithMargin]: space around the page stack
//   - [WithDebug]: outline nested frames and mark tags
//
// # JSON Output
//
// [RenderJSON] exports box slices with their from/to offsets, text runs and
// rules. With [WithJSONTags] it also lists introspection tags, which makes it
// easy to check where footnotes and anchors ended up.
//
// # Frame Trees
//
// [ToDOT] describes the nesting of frames, which is mostly useful for
// debugging column and insertion layout:
//
//	dot := sink.ToDOT(frag, sink.DOTOptions{Detailed: true})
//	svg, err := sink.RenderDOT(ctx, dot)
//
// # PDF and PNG Output
//
// [RenderPDF] renders SVG first and converts it via [render.ToPDF], which
// requires librsvg:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [RenderPNG] goes the same way through [render.ToPNG] when rsvg-convert is
// installed. Without it, or with [WithNativeRaster], the pages are painted
// with golang.org/x/image and the embedded Go Regular font.
//
// [layout.Fragment]: github.com/matzehuels/flowset/pkg/layout.Fragment
// [render.ToPDF]: github.com/matzehuels/flowset/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/flowset/pkg/render.ToPNG
package sink
