// Package text measures and breaks paragraph text for flow layout.
//
// Measurement is read-only: a [Measurer] is shared by every layout invocation
// and must be safe for concurrent use. [FontMeasurer] implements it on top of
// golang.org/x/image's OpenType parser; [Default] returns one backed by the
// embedded Go Regular font.
//
// [Break] performs greedy line breaking at spaces, honors hard newlines and
// falls back to breaking inside a word that is wider than the line.
package text
