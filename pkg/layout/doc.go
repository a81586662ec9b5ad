// Package layout provides the geometric vocabulary shared by the flow engine
// and its collaborators: lengths, sizes, alignments, regions and frames.
//
// # Lengths
//
// [Abs] is an absolute length in typographic points. Comparisons that decide
// whether content fits use [Abs.Fits], which tolerates floating-point noise so
// that content filling a region exactly is placed rather than deferred.
//
// # Regions
//
// A [Regions] value describes where content may go: the size of the current
// region, a FIFO backlog of subsequent region heights and an optional last
// height that repeats forever once the backlog is drained. Only the flow
// driver advances regions via [Regions.Next].
//
// # Frames
//
// A [Frame] is the output of laying out one region: a size plus positioned
// items (nested frames, text runs, boxes, rules and introspection tags).
// A [Fragment] is the ordered list of frames produced for one piece of content.
package layout
