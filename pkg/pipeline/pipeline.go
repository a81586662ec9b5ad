// Package pipeline runs documents through parse, layout and render.
//
// The pipeline consists of three stages:
//
//  1. Parse: decode a TOML or JSON document and compile it into flow input
//  2. Layout: distribute the content over the document's regions
//  3. Render: generate output artifacts (SVG, PNG, PDF, JSON, DOT)
//
// A [Runner] ties the stages together. Fragments are memoized in memory per
// document and engine settings, and rendered artifacts are stored in an
// injected [cache.Cache]. Both CLI and server go through the same Runner.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Source{Name: "doc.toml", Data: data}, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatJSON},
//	})
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowset/pkg/cache"
	"github.com/matzehuels/flowset/pkg/document"
	"github.com/matzehuels/flowset/pkg/errors"
	"github.com/matzehuels/flowset/pkg/flow"
	"github.com/matzehuels/flowset/pkg/layout"
)

// =============================================================================
// Constants
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
	// FormatTree is the frame tree rendered to SVG by Graphviz.
	FormatTree = "tree"
)

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// ValidFormats lists the supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatTree: true,
}

// Extension returns the file extension for an output format.
func Extension(format string) string {
	switch format {
	case FormatTree:
		return "tree.svg"
	default:
		return format
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. Engine settings given here override
// the document's own flow settings. This struct supports JSON serialization
// for API requests.
type Options struct {
	// Layout options
	Columns int     `json:"columns,omitempty"`
	Gutter  float64 `json:"gutter,omitempty"` // absolute gutter in pt, used with Columns
	Balance string  `json:"balance,omitempty"`
	Refresh bool    `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Debug   bool     `json:"debug,omitempty"` // draw introspection tags
	Tags    bool     `json:"tags,omitempty"`  // include tags in JSON and DOT output

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Source is a document to run through the pipeline.
type Source struct {
	// Name identifies the document in logs, e.g. its path.
	Name string
	Data []byte
	// Format of Data. Empty means it is derived from Name.
	Format document.Format
}

// Parsed is a decoded and compiled document.
type Parsed struct {
	Document *document.Document
	Compiled *document.Compiled
	// Hash is the content hash of the source data.
	Hash string
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Source string

	// Parsed is the compiled input.
	Parsed *Parsed

	// Fragment holds one frame per region. It is nil when every artifact
	// came from the cache.
	Fragment layout.Fragment

	// Warnings are the diagnostics of the layout.
	Warnings []flow.Diagnostic

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Children   int
	Pages      int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the fragment came from the memo
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, pdf, json, dot, tree)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBalance checks that a balance mode is valid. Empty keeps the
// document's setting.
func ValidateBalance(balance string) error {
	if balance == "" {
		return nil
	}
	if _, ok := flow.ParseBalance(balance); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid balance: %q (must be one of: pack, balance)", balance)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLayout checks the engine overrides.
func (o *Options) ValidateForLayout() error {
	if o.Columns != 0 {
		if err := errors.ValidateColumns(o.Columns); err != nil {
			return err
		}
	}
	if err := errors.ValidateLength("gutter", o.Gutter, false); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateBalance(o.Balance)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	return ValidateFormats(o.Formats)
}

// apply returns the flow options of a compiled document with the overrides
// of o applied.
func (o *Options) apply(fo flow.Options) flow.Options {
	if o.Columns > 0 {
		fo.Columns = o.Columns
		fo.Gutter = layout.Absolute(layout.Abs(o.Gutter))
	}
	if b, ok := flow.ParseBalance(o.Balance); ok && o.Balance != "" {
		fo.Balance = b
	}
	return fo
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Scale:  o.Scale,
		Debug:  o.Debug,
		Tags:   o.Tags,
	}
}
