package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowset/pkg/buildinfo"
	"github.com/matzehuels/flowset/pkg/cache"
	"github.com/matzehuels/flowset/pkg/document"
	"github.com/matzehuels/flowset/pkg/flow"
	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/observability"
	"github.com/matzehuels/flowset/pkg/text"
)

// memoLimit bounds the number of fragments a Runner keeps in memory.
const memoLimit = 256

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// Multiple goroutines can safely use the same Runner with different
// options. Every layout gets its own flow.Engine.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Measurer *text.FontMeasurer

	mu   sync.Mutex
	memo map[string]memoEntry
}

type memoEntry struct {
	frag     layout.Fragment
	warnings []flow.Diagnostic
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Measurer: text.Default(),
		memo:     make(map[string]memoEntry),
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src Source, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Source: src.Name}

	// Stage 1: Parse
	parseStart := time.Now()
	parsed, err := r.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Parsed = parsed
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.Children = len(parsed.Compiled.Pairs)

	opts.Logger.Debug("parsed document",
		"source", src.Name,
		"children", result.Stats.Children,
		"duration", result.Stats.ParseTime)

	key := r.LayoutKey(parsed, opts)

	// Stage 3 first: a full artifact hit needs no layout at all
	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, key, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			opts.Logger.Debug("artifacts from cache", "source", src.Name, "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	frag, warnings, layoutHit, err := r.LayoutWithCacheInfo(ctx, src.Name, parsed, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Fragment = frag
	result.Warnings = warnings
	result.Stats.Pages = frag.Len()
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("laid out document",
		"source", src.Name,
		"pages", frag.Len(),
		"warnings", len(warnings),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := r.renderAndStore(ctx, key, frag, warnings, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ExecuteAll runs Execute for every source concurrently. Results are in
// source order. The first failure cancels the remaining runs.
func (r *Runner) ExecuteAll(ctx context.Context, srcs []Source, opts Options) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	results := make([]*Result, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range srcs {
		g.Go(func() error {
			res, err := r.Execute(ctx, src, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Parse decodes and compiles a source. Element locations are seeded with
// the content hash, so identical documents get identical locations.
func (r *Runner) Parse(ctx context.Context, src Source) (*Parsed, error) {
	start := time.Now()
	observability.Pipeline().OnParseStart(ctx, src.Name)

	parsed, err := parse(src)

	children := 0
	if parsed != nil {
		children = len(parsed.Compiled.Pairs)
	}
	observability.Pipeline().OnParseComplete(ctx, src.Name, children, time.Since(start), err)
	return parsed, err
}

// ParseFile loads and compiles the document at path.
func (r *Runner) ParseFile(ctx context.Context, path string) (*Parsed, error) {
	_, data, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return r.Parse(ctx, Source{Name: path, Data: data})
}

func parse(src Source) (*Parsed, error) {
	format := src.Format
	if format == "" {
		format = document.FormatFromPath(src.Name)
	}
	doc, err := document.Parse(src.Data, format)
	if err != nil {
		return nil, err
	}
	hash := cache.Hash(src.Data)
	compiled, err := document.Compile(doc, hash)
	if err != nil {
		return nil, err
	}
	return &Parsed{Document: doc, Compiled: compiled, Hash: hash}, nil
}

// LayoutKey returns the memo and cache key of a parsed document under opts.
func (r *Runner) LayoutKey(p *Parsed, opts Options) string {
	return r.Keyer.LayoutKey(p.Hash, cache.LayoutKeyOpts{
		Columns:  opts.Columns,
		Gutter:   opts.Gutter,
		Balance:  opts.Balance,
		Measurer: r.Measurer.Family(),
		Version:  buildinfo.Version,
	})
}

// Layout is a convenience wrapper around LayoutWithCacheInfo.
func (r *Runner) Layout(ctx context.Context, p *Parsed, opts Options) (layout.Fragment, []flow.Diagnostic, error) {
	frag, warnings, _, err := r.LayoutWithCacheInfo(ctx, "", p, opts)
	return frag, warnings, err
}

// LayoutWithCacheInfo lays out a parsed document and reports whether the
// fragment was memoized.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, source string, p *Parsed, opts Options) (layout.Fragment, []flow.Diagnostic, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, nil, false, err
	}

	key := r.LayoutKey(p, opts)
	if !opts.Refresh {
		if e, ok := r.lookup(key); ok {
			observability.Cache().OnCacheHit(ctx, "layout")
			return e.frag, e.warnings, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, source)

	engine := flow.NewEngine(flow.WithMeasurer(r.Measurer), flow.WithLogger(opts.Logger))
	c := p.Compiled
	frag, err := engine.Layout(ctx, c.Pairs, c.Regions, opts.apply(c.Options))

	observability.Pipeline().OnLayoutComplete(ctx, source, frag.Len(), time.Since(start), err)
	if err != nil {
		return nil, nil, false, err
	}

	warnings := engine.Warnings()
	for _, w := range warnings {
		opts.Logger.Warn(w.Message, "source", source, "loc", w.Loc)
	}
	r.store(key, memoEntry{frag: frag, warnings: warnings})
	return frag, warnings, false, nil
}

func (r *Runner) lookup(key string) (memoEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.memo[key]
	return e, ok
}

func (r *Runner) store(key string, e memoEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.memo) >= memoLimit {
		for k := range r.memo {
			delete(r.memo, k)
			break
		}
	}
	r.memo[key] = e
}

// Render generates artifacts for a fragment with caching. key is the
// layout key the fragment was produced under.
func (r *Runner) Render(ctx context.Context, key string, frag layout.Fragment, warnings []flow.Diagnostic, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, key, opts); ok {
			return artifacts, true, nil
		}
	}
	artifacts, err := r.renderAndStore(ctx, key, frag, warnings, opts)
	return artifacts, false, err
}

// cachedArtifacts returns all requested formats if every one is cached.
func (r *Runner) cachedArtifacts(ctx context.Context, key string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(key, opts.ArtifactKeyOpts(format)))
		if err != nil {
			opts.Logger.Debug("cache get failed", "format", format, "error", err)
		}
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		artifacts[format] = data
	}
	return artifacts, true
}

func (r *Runner) renderAndStore(ctx context.Context, key string, frag layout.Fragment, warnings []flow.Diagnostic, opts Options) (map[string][]byte, error) {
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	artifacts, err := Render(ctx, frag, warnings, opts)

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	for format, data := range artifacts {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(key, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache set failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
