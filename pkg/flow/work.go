package flow

import (
	"slices"

	"github.com/matzehuels/flowset/pkg/content"
	"github.com/matzehuels/flowset/pkg/layout"
)

// skipSet is a persistent set of resolved insertions. Adding to it returns a
// new set and leaves every earlier copy untouched, so a work snapshot taken
// before a failed attempt never sees that attempt's additions.
type skipSet struct {
	m map[layout.Location]struct{}
}

func (s skipSet) has(loc layout.Location) bool {
	_, ok := s.m[loc]
	return ok
}

func (s skipSet) len() int { return len(s.m) }

func (s skipSet) with(locs []layout.Location) skipSet {
	if len(locs) == 0 {
		return s
	}
	m := make(map[layout.Location]struct{}, len(s.m)+len(locs))
	for k := range s.m {
		m[k] = struct{}{}
	}
	for _, loc := range locs {
		m[loc] = struct{}{}
	}
	return skipSet{m: m}
}

// work is the cursor over the remaining content of one flow invocation.
type work struct {
	arena *arena
	// children is the unprocessed suffix of arena.children.
	children []child
	// spill is the remainder of a breakable block.
	spill *multiSpill
	// floats are queued floats waiting for space.
	floats []*placedChild
	// footnotes are queued notes waiting for space.
	footnotes []*content.Footnote
	// footnoteSpill holds the remaining frames of a broken footnote entry.
	footnoteSpill []layout.Frame
	// tags wait for the next frame.
	tags  []layout.Tag
	skips skipSet

	// lineNumber is the last line number handed out.
	lineNumber int
	// pageBreak is set when a page break ended the current column.
	pageBreak bool
}

func newWork(a *arena) work {
	return work{arena: a, children: a.children}
}

func (w *work) head() (child, bool) {
	if len(w.children) == 0 {
		return child{}, false
	}
	return w.children[0], true
}

func (w *work) advance() {
	w.children = w.children[1:]
}

// done reports whether all content has been laid out. Pending tags do not
// keep a flow alive on their own.
func (w *work) done() bool {
	return len(w.children) == 0 &&
		w.spill == nil &&
		len(w.floats) == 0 &&
		len(w.footnoteSpill) == 0 &&
		len(w.footnotes) == 0
}

func (w *work) extendSkips(locs []layout.Location) {
	w.skips = w.skips.with(locs)
}

// clone returns an independent copy. Queues are copied because both copies
// may append to them; everything else is shared read-only.
func (w *work) clone() work {
	c := *w
	c.floats = slices.Clone(w.floats)
	c.footnotes = slices.Clone(w.footnotes)
	c.tags = slices.Clone(w.tags)
	return c
}

// progress summarizes how far the cursor has advanced.
type progress struct {
	children      int
	spill         *multiSpill
	floats        int
	footnotes     int
	footnoteSpill int
	skips         int
}

func (w *work) progress() progress {
	return progress{
		children:      len(w.children),
		spill:         w.spill,
		floats:        len(w.floats),
		footnotes:     len(w.footnotes),
		footnoteSpill: len(w.footnoteSpill),
		skips:         w.skips.len(),
	}
}
