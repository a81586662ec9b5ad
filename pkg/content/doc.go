// Package content defines the realized input of flow layout: a linear
// sequence of (element, style) pairs in document order.
//
// Realization (show rules, style chains, field synthesis) happens upstream.
// By the time a [Pair] reaches the flow engine, its [Style] holds only
// resolved geometric and typographic values.
//
// Elements that flow layout must deduplicate across relayout attempts
// (floats and footnotes) carry a stable [layout.Location]. A [Locator]
// derives such locations deterministically from an element's position in the
// document tree.
package content
