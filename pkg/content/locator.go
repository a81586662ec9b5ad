package content

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/flowset/pkg/layout"
)

// Locator derives stable locations from positions in the document tree.
// Locators are values; deriving a child never mutates the parent.
type Locator struct {
	h uint64
}

// NewLocator returns the root locator for a document identified by seed.
func NewLocator(seed string) Locator {
	return Locator{h: xxhash.Sum64String(seed)}
}

// Child returns the locator of the i-th child.
func (l Locator) Child(i int) Locator {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], l.h)
	binary.LittleEndian.PutUint64(buf[8:], uint64(i))
	return Locator{h: xxhash.Sum64(buf[:])}
}

// Named returns a locator for a named sub-part.
func (l Locator) Named(name string) Locator {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], l.h)
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(name)
	return Locator{h: d.Sum64()}
}

// Location returns the location this locator identifies. It is never zero.
func (l Locator) Location() layout.Location {
	if l.h == 0 {
		return 1
	}
	return layout.Location(l.h)
}
