// Package render turns laid-out fragments into output files.
//
// # Overview
//
// The [sink] subpackage renders a layout.Fragment as SVG, JSON, a Graphviz
// frame tree, PDF or PNG. This package holds what the sinks share: the
// conversion of SVG into other formats.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg := sink.RenderSVG(frag)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [sink]: github.com/matzehuels/flowset/pkg/render/sink
package render
