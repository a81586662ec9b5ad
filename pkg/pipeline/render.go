package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/flow"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/render/sink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, frag layout.Fragment, warnings []flow.Diagnostic, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, frag, warnings, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, frag layout.Fragment, warnings []flow.Diagnostic, format string, opts Options) ([]byte, error) {
	svgOpts := buildSVGOptions(opts)
	switch format {
	case FormatSVG:
		return sink.RenderSVG(frag, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, frag, sink.WithScale(opts.Scale), sink.WithPNGSVGOptions(svgOpts...))
	case FormatPDF:
		return sink.RenderPDF(ctx, frag, sink.WithPDFSVGOptions(svgOpts...))
	case FormatJSON:
		return sink.RenderJSON(frag, buildJSONOptions(warnings, opts)...)
	case FormatDOT:
		return []byte(sink.ToDOT(frag, sink.DOTOptions{Detailed: true, Tags: opts.Tags})), nil
	case FormatTree:
		return sink.RenderDOT(ctx, sink.ToDOT(frag, sink.DOTOptions{Tags: opts.Tags}))
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
}

func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Debug {
		svgOpts = append(svgOpts, sink.WithDebug())
	}
	return svgOpts
}

func buildJSONOptions(warnings []flow.Diagnostic, opts Options) []sink.JSONOption {
	var jsonOpts []sink.JSONOption
	if opts.Tags {
		jsonOpts = append(jsonOpts, sink.WithJSONTags())
	}
	if len(warnings) > 0 {
		msgs := make([]string, len(warnings))
		for i, w := range warnings {
			msgs[i] = fmt.Sprintf("%s: %s", w.Severity, w.Message)
		}
		jsonOpts = append(jsonOpts, sink.WithJSONWarnings(msgs))
	}
	return jsonOpts
}
