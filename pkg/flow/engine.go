package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowset/pkg/layout"
	"github.com/matzehuels/flowset/pkg/text"
)

// DefaultMaxDepth bounds the nesting of flows inside blocks and footnotes.
const DefaultMaxDepth = 64

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a message produced during layout.
type Diagnostic struct {
	Severity Severity
	Loc      layout.Location
	Message  string
}

// Engine holds the read-only services used during layout and collects the
// warnings of its invocations. An Engine may be reused sequentially; use one
// Engine per goroutine for parallel layout.
type Engine struct {
	measurer text.Measurer
	logger   *log.Logger
	maxDepth int

	mu       sync.Mutex
	warnings []Diagnostic
	seen     map[Diagnostic]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithMeasurer sets the text measurer. Defaults to text.Default().
func WithMeasurer(m text.Measurer) Option {
	return func(e *Engine) { e.measurer = m }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	if e.measurer == nil {
		e.measurer = text.Default()
	}
	return e
}

// Warnings returns the deduplicated warnings collected so far.
func (e *Engine) Warnings() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Diagnostic, len(e.warnings))
	copy(out, e.warnings)
	return out
}

func (e *Engine) warn(d Diagnostic) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen == nil {
		e.seen = make(map[Diagnostic]struct{})
	}
	if _, ok := e.seen[d]; ok {
		return
	}
	e.seen[d] = struct{}{}
	e.warnings = append(e.warnings, d)
}

// env is the per-invocation view of an engine. It is passed by value so that
// nesting depth and muting apply only to the subtree that set them.
type env struct {
	*Engine
	ctx   context.Context
	depth int
	muted bool
}

func (e env) nested() env {
	e.depth++
	return e
}

func (e env) mute() env {
	e.muted = true
	return e
}

func (e env) warnf(loc layout.Location, format string, args ...any) {
	if e.muted {
		return
	}
	e.warn(Diagnostic{Severity: SeverityWarning, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

func (e env) debug(msg string, kv ...any) {
	if e.muted || e.logger == nil {
		return
	}
	e.logger.Debug(msg, kv...)
}
