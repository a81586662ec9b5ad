// Package document reads flow documents from TOML or JSON.
//
// # Overview
//
// A document describes the regions to fill, the flow options and an ordered
// list of content nodes. [Load] and [Read] decode a document; [Compile]
// turns it into the realized input of the flow engine: a []content.Pair,
// layout.Regions and flow.Options.
//
// # Format
//
// The same schema is used for both encodings. In TOML:
//
//	[page]
//	width = 200
//	height = 100
//	backlog = [80]      # heights of the regions after the first
//	repeat = true       # the last height repeats indefinitely
//
//	[flow]
//	columns = 2
//	gutter = 10
//	balance = "balance" # or "pack"
//	root = true
//
//	[style]
//	font_size = 11
//	block_spacing = 12
//
//	[[content]]
//	kind = "par"
//	text = "Lorem ipsum dolor sit amet."
//
//	[[content]]
//	kind = "block"
//	label = "figure"
//	height = 40
//	breakable = true
//
// # Content Nodes
//
// Every node has a kind. Recognized kinds:
//
//   - v: spacing with amount, ratio or fr; weak for collapsible spacing
//   - par: a paragraph from text (broken by the engine) or explicit lines
//   - block: an opaque box (label, width, height) or a container (children)
//   - place: a placed block (float, scope, align_x, align_y, clearance)
//   - flush, colbreak, pagebreak
//   - footnote: a note with a body, or a reference (ref) to a named note
//   - anchor: a named introspection marker
//
// Unrecognized kinds are passed through and ignored by the engine with a
// warning.
//
// # Locations
//
// Elements that need a stable identity (footnotes, floats, anchors) get
// locations derived from their position in the document and the seed
// passed to [Compile]. Compiling the same document twice yields the same
// locations.
package document
