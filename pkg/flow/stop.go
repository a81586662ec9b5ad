package flow

import (
	"errors"
	"fmt"

	"github.com/matzehuels/flowset/pkg/content"
)

type stopKind uint8

const (
	// stopFinish ends the current region. forced is set when the region
	// ended because of an explicit break or because all work is done.
	stopFinish stopKind = iota
	// stopRelayout restarts layout of a placement scope.
	stopRelayout
)

// stop is a control-flow signal. It travels on the error path but is never
// returned from the package.
type stop struct {
	kind   stopKind
	forced bool
	scope  content.Scope
}

func (s *stop) Error() string {
	if s.kind == stopRelayout {
		return fmt.Sprintf("relayout %s", s.scope)
	}
	return fmt.Sprintf("finish (forced=%v)", s.forced)
}

func finish(forced bool) error { return &stop{kind: stopFinish, forced: forced} }

func relayout(scope content.Scope) error { return &stop{kind: stopRelayout, scope: scope} }

func asStop(err error) (*stop, bool) {
	var s *stop
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

func isRelayout(err error, scope content.Scope) bool {
	s, ok := asStop(err)
	return ok && s.kind == stopRelayout && s.scope == scope
}
