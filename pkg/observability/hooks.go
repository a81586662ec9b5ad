// Package observability lets callers watch flowset at work without tying
// the library to a metrics or tracing backend.
//
// Four hook families exist, one per layer: [FlowHooks] for the layout
// engine, [PipelineHooks] for parse/layout/render stages, [CacheHooks] for
// memo and artifact caches and [ServerHooks] for the HTTP API. Each family
// starts out as a no-op. Install replacements once at startup:
//
//	observability.SetFlowHooks(myFlowHooks)
//	observability.SetCacheHooks(myCacheHooks)
//
// or route every family to a logger with [InstallLogHooks].
//
// Hooks observe; they never influence layout results. A flow invocation
// produces the same fragment whichever hooks are installed.
package observability

import (
	"context"
	"sync"
	"time"
)

// FlowHooks receives events from the flow layout engine.
type FlowHooks interface {
	// OnFlowStart fires when a top-level flow invocation begins.
	OnFlowStart(ctx context.Context, children, columns int)
	// OnRegion fires after each region has been composed.
	OnRegion(ctx context.Context, index int, height float64)
	// OnRelayout fires whenever a placement scope is laid out again.
	OnRelayout(ctx context.Context, scope string)
	// OnFlowComplete fires when a top-level flow invocation ends.
	OnFlowComplete(ctx context.Context, regions int, duration time.Duration, err error)
}

// PipelineHooks receives stage events from the document pipeline.
type PipelineHooks interface {
	OnParseStart(ctx context.Context, source string)
	OnParseComplete(ctx context.Context, source string, children int, duration time.Duration, err error)
	OnLayoutStart(ctx context.Context, source string)
	OnLayoutComplete(ctx context.Context, source string, frames int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives lookups and writes against a named cache tier
// ("layout" or "artifact").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, tier string)
	OnCacheMiss(ctx context.Context, tier string)
	OnCacheSet(ctx context.Context, tier string, size int)
}

// ServerHooks receives request lifecycle events from the HTTP API.
type ServerHooks interface {
	OnRequest(ctx context.Context, requestID, method, path string)
	OnResponse(ctx context.Context, requestID string, status int, duration time.Duration)
}

// NoopFlowHooks ignores every flow event.
type NoopFlowHooks struct{}

func (NoopFlowHooks) OnFlowStart(context.Context, int, int)                     {}
func (NoopFlowHooks) OnRegion(context.Context, int, float64)                    {}
func (NoopFlowHooks) OnRelayout(context.Context, string)                        {}
func (NoopFlowHooks) OnFlowComplete(context.Context, int, time.Duration, error) {}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string)                                {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, time.Duration, error)  {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                             {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)    {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks ignores every server event.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, string)      {}
func (NoopServerHooks) OnResponse(context.Context, string, int, time.Duration) {}

// slot holds one installed hook family. Nil installs are ignored so a
// half-configured caller cannot knock out the no-op default.
type slot[T comparable] struct {
	mu   sync.RWMutex
	def  T
	hook T
}

func newSlot[T comparable](def T) *slot[T] { return &slot[T]{def: def, hook: def} }

func (s *slot[T]) set(h T) {
	var zero T
	if h == zero {
		return
	}
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hook
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.hook = s.def
	s.mu.Unlock()
}

var (
	flowSlot     = newSlot[FlowHooks](NoopFlowHooks{})
	pipelineSlot = newSlot[PipelineHooks](NoopPipelineHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	serverSlot   = newSlot[ServerHooks](NoopServerHooks{})
)

// SetFlowHooks installs flow hooks. A nil h is ignored.
func SetFlowHooks(h FlowHooks) { flowSlot.set(h) }

// SetPipelineHooks installs pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }

// SetCacheHooks installs cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

// SetServerHooks installs server hooks. A nil h is ignored.
func SetServerHooks(h ServerHooks) { serverSlot.set(h) }

// Flow returns the installed flow hooks.
func Flow() FlowHooks { return flowSlot.get() }

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// Server returns the installed server hooks.
func Server() ServerHooks { return serverSlot.get() }

// Reset puts every family back to its no-op default.
func Reset() {
	flowSlot.reset()
	pipelineSlot.reset()
	cacheSlot.reset()
	serverSlot.reset()
}
