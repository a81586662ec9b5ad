package flow

import (
	"github.com/matzehuels/flowset/pkg/layout"
)

const (
	balanceSteps      = 16
	balanceResolution = 0.5 * layout.Pt
)

// balance finds the smallest column height for which the remaining work
// still fits into the current region's columns. It returns zero when the
// work does not end in this region, in which case the columns are filled
// normally. All trials run on clones with a muted environment.
func balance(e env, w *work, cfg *config, regions layout.Regions) layout.Abs {
	count := cfg.columns.count
	height := regions.Size.Y
	if count < 2 || !height.IsFinite() || height <= 0 {
		return 0
	}
	muted := e.mute()

	natural, ok := measureColumn(muted, w, cfg, regions)
	if !ok {
		return 0
	}

	trial := func(t layout.Abs) bool {
		wt := w.clone()
		c := newComposer(muted, &wt, cfg, regions)
		c.balanced = t
		_, err := c.page(regions)
		return err == nil && wt.done()
	}

	if !trial(height) {
		return 0
	}

	lo, hi := natural/layout.Abs(count), height
	for i := 0; i < balanceSteps && hi-lo >= balanceResolution; i++ {
		mid := (lo + hi) / 2
		if trial(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	e.debug("balanced columns", "height", hi.String(), "natural", natural.String())
	return hi
}

// measureColumn lays out the remaining work into one column as tall as all
// columns of the region together.
func measureColumn(e env, w *work, cfg *config, regions layout.Regions) (layout.Abs, bool) {
	tall := layout.Abs(cfg.columns.count) * regions.Size.Y

	single := *cfg
	single.columns = columnConfig{count: 1, width: cfg.columns.width, dir: cfg.columns.dir}
	single.balance = BalancePack
	single.lineNumbers = nil

	pod := layout.Regions{
		Size:    layout.Size{X: cfg.columns.width, Y: tall},
		Full:    tall,
		Backlog: []layout.Abs{tall},
		Expand:  layout.Axes[bool]{X: true},
	}

	wt := w.clone()
	c := newComposer(e, &wt, &single, pod)
	frame, err := c.page(pod)
	if err != nil || !wt.done() {
		return 0, false
	}
	return frame.Height(), true
}
