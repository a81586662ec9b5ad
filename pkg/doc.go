// Package pkg provides the libraries behind flowset, a flow layout engine
// that distributes content over pages and columns.
//
// # Overview
//
// A flow is an ordered list of content (spacing, paragraphs, blocks,
// placed floats, breaks and footnotes) laid out into a sequence of regions.
// Each region becomes one frame; content that does not fit spills into the
// next region. The data flow through flowset:
//
//	TOML/JSON document
//	         ↓
//	    [document] package (decode, validate, compile)
//	         ↓
//	    [flow] package (collect → compose → distribute)
//	         ↓
//	    [layout] Fragment (one Frame per region)
//	         ↓
//	    [render/sink] SVG/PNG/PDF/JSON/DOT output
//
// # Quick Start
//
//	doc, _, _ := document.Load("article.toml")
//	c, _ := document.Compile(doc, "article")
//	frag, _ := flow.NewEngine().Layout(ctx, c.Pairs, c.Regions, c.Options)
//	svg := sink.RenderSVG(frag)
//
// # Main Packages
//
// ## Layout Engine
//
// [layout] - Lengths, regions, frames and introspection tags.
//
// [content] - The realized input model: elements, style snapshots and
// stable locations.
//
// [text] - Font measurement and greedy line breaking.
//
// [flow] - The engine: collector, composer with floats, footnotes and line
// numbers, distributor, column balancer and the region loop.
//
// ## Input and Output
//
// [document] - The document format and its compilation to flow input.
//
// [render/sink] - Output formats for fragments. [render] converts SVG to
// PDF and PNG.
//
// ## Infrastructure
//
// [pipeline] - Parse → layout → render with memoized fragments and cached
// artifacts, used by the CLI and the server.
//
// [cache] - Cache backends (file, Redis, MongoDB, null) and key derivation.
//
// [server] - HTTP API.
//
// [observability] - Hooks for metrics and tracing.
//
// [errors] - Structured error codes.
//
// # Testing
//
//	go test ./pkg/...                   # All tests
//	go test ./pkg/flow/...              # Specific package
//	go test -short ./pkg/...            # Skip Graphviz rendering
//	FLOWSET_TEST_REDIS_URL=redis://localhost:6379/0 go test ./pkg/cache/
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/layout
// [content]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/content
// [text]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/text
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/flow
// [document]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/document
// [render]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowset/pkg/errors
package pkg
