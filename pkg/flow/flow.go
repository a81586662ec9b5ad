package flow

import (
	"context"
	"time"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/observability"
)

// Layout distributes pairs over regions and returns one frame per region
// used. The context is only checked before layout starts; a started layout
// always runs to completion.
func (e *Engine) Layout(ctx context.Context, pairs []content.Pair, regions layout.Regions, opts Options) (layout.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "layout cancelled")
	}

	start := time.Now()
	observability.Flow().OnFlowStart(ctx, len(pairs), max(opts.Columns, 1))

	frag, err := layoutFlow(env{Engine: e, ctx: ctx}, pairs, regions, opts)

	observability.Flow().OnFlowComplete(ctx, frag.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return frag, nil
}

// LayoutFrame lays out pairs into a single region.
func (e *Engine) LayoutFrame(ctx context.Context, pairs []content.Pair, region layout.Region, opts Options) (layout.Frame, error) {
	frag, err := e.Layout(ctx, pairs, layout.FromRegion(region), opts)
	if err != nil {
		return layout.Frame{}, err
	}
	return frag.IntoFrame(), nil
}

// LayoutColumns lays out pairs into count columns per region.
func (e *Engine) LayoutColumns(ctx context.Context, pairs []content.Pair, regions layout.Regions, count int, gutter layout.Rel, opts Options) (layout.Fragment, error) {
	if err := errors.ValidateColumns(count); err != nil {
		return nil, err
	}
	opts.Columns = count
	opts.Gutter = gutter
	return e.Layout(ctx, pairs, regions, opts)
}

// layoutFlow is the region loop shared by top-level and nested flows.
func layoutFlow(e env, pairs []content.Pair, regions layout.Regions, opts Options) (layout.Fragment, error) {
	if !regions.Size.X.IsFinite() && regions.Expand.X {
		return nil, errors.New(errors.ErrCodeInfiniteExpansion, "cannot expand into infinite width")
	}
	if !regions.Size.Y.IsFinite() && regions.Expand.Y {
		return nil, errors.New(errors.ErrCodeInfiniteExpansion, "cannot expand into infinite height").
			WithHint("give the region a finite height or disable expand_y")
	}
	if e.depth > e.maxDepth {
		return nil, errors.New(errors.ErrCodeMaxDepth, "maximum layout depth of %d exceeded", e.maxDepth)
	}

	cfg := newConfig(opts, regions)
	a, err := collect(e, pairs, cfg, layout.Size{X: cfg.columns.width, Y: regions.Full}, regions.Expand.X)
	if err != nil {
		return nil, err
	}

	w := newWork(a)
	var finished layout.Fragment
	stalls := 0

	for {
		before := w.progress()
		mayProgress := regions.MayProgress()

		frame, err := compose(e, &w, cfg, regions)
		if err != nil {
			return nil, err
		}
		finished = append(finished, frame)
		if e.depth == 0 && !e.muted {
			observability.Flow().OnRegion(e.ctx, len(finished)-1, frame.Height().Pt())
		}

		if w.done() && (!regions.Expand.Y || len(regions.Backlog) == 0) {
			break
		}

		// A region shape that repeats and consumed nothing will never
		// consume anything.
		if !mayProgress && w.progress() == before {
			stalls++
			if stalls >= 2 {
				return nil, errors.New(errors.ErrCodeLayoutImpossible, "content does not fit into any region")
			}
		} else {
			stalls = 0
		}

		regions.Next()
	}

	return finished, nil
}
