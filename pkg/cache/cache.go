// Package cache provides the memoization layer used by the pipeline and the
// HTTP server.
//
// Layout results are pure functions of the document and the engine
// settings, so they can be stored under content-addressed keys and shared
// between processes. Four backends are available:
//
//   - [NullCache] stores nothing. Used when caching is disabled.
//   - [FileCache] stores entries as files below a directory (CLI default).
//   - [RedisCache] shares entries between server instances.
//   - [MongoCache] keeps entries in a MongoDB collection with a TTL index.
//
// Keys are produced by a [Keyer]. [DefaultKeyer] hashes the key options so
// that any change in settings yields a different key; [ScopedKeyer] adds a
// prefix for isolating tenants or schema versions.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLLayout is how long a laid-out fragment stays cached.
	TTLLayout = 7 * 24 * time.Hour
	// TTLArtifact is how long a rendered artifact stays cached.
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
//
// Get reports a miss with ok == false and a nil error. A ttl of zero means
// the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the engine settings that influence a layout result.
type LayoutKeyOpts struct {
	Columns  int     `json:"columns"`
	Gutter   float64 `json:"gutter"`
	Balance  string  `json:"balance"`
	Measurer string  `json:"measurer"`
	Version  string  `json:"version"`
}

// ArtifactKeyOpts are the render settings that influence an artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
	Debug  bool    `json:"debug"`
	Tags   bool    `json:"tags"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key for the fragment of a document.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
	// ArtifactKey returns the key for a rendering of a fragment.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
