package observability

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every hook family as debug-level log lines. Failed
// stages are logged as warnings.
type LogHooks struct {
	Logger *log.Logger
}

// InstallLogHooks routes all four hook families to l.
func InstallLogHooks(l *log.Logger) {
	h := LogHooks{Logger: l}
	SetFlowHooks(h)
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetServerHooks(h)
}

func (h LogHooks) done(msg string, err error, keyvals ...any) {
	if err != nil {
		h.Logger.Warn(msg, append(keyvals, "err", err)...)
		return
	}
	h.Logger.Debug(msg, keyvals...)
}

func (h LogHooks) OnFlowStart(_ context.Context, children, columns int) {
	h.Logger.Debug("flow start", "children", children, "columns", columns)
}

func (h LogHooks) OnRegion(_ context.Context, index int, height float64) {
	h.Logger.Debug("region", "index", index, "height", height)
}

func (h LogHooks) OnRelayout(_ context.Context, scope string) {
	h.Logger.Debug("relayout", "scope", scope)
}

func (h LogHooks) OnFlowComplete(_ context.Context, regions int, d time.Duration, err error) {
	h.done("flow done", err, "regions", regions, "took", d)
}

func (h LogHooks) OnParseStart(_ context.Context, source string) {
	h.Logger.Debug("parse", "source", source)
}

func (h LogHooks) OnParseComplete(_ context.Context, source string, children int, d time.Duration, err error) {
	h.done("parsed", err, "source", source, "children", children, "took", d)
}

func (h LogHooks) OnLayoutStart(_ context.Context, source string) {
	h.Logger.Debug("layout", "source", source)
}

func (h LogHooks) OnLayoutComplete(_ context.Context, source string, frames int, d time.Duration, err error) {
	h.done("laid out", err, "source", source, "frames", frames, "took", d)
}

func (h LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render", "formats", strings.Join(formats, ","))
}

func (h LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("rendered", err, "formats", strings.Join(formats, ","), "took", d)
}

func (h LogHooks) OnCacheHit(_ context.Context, tier string) {
	h.Logger.Debug("cache hit", "tier", tier)
}

func (h LogHooks) OnCacheMiss(_ context.Context, tier string) {
	h.Logger.Debug("cache miss", "tier", tier)
}

func (h LogHooks) OnCacheSet(_ context.Context, tier string, size int) {
	h.Logger.Debug("cache set", "tier", tier, "bytes", size)
}

func (h LogHooks) OnRequest(_ context.Context, id, method, path string) {
	h.Logger.Debug("request", "id", id, "method", method, "path", path)
}

func (h LogHooks) OnResponse(_ context.Context, id string, status int, d time.Duration) {
	h.Logger.Debug("response", "id", id, "status", status, "took", d)
}
