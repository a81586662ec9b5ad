package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// entryMagic starts every file written by FileCache. The rest of the first
// line is the expiry in Unix nanoseconds, 0 for entries that never expire.
const entryMagic = "flowset-cache/1"

const entryExt = ".entry"

// FileCache keeps entries as files below a directory, sharded into 256
// subdirectories. It is the CLI default: fragments and artifacts survive
// between runs without any server.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache opens (and if needed creates) a file cache rooted at dir.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get returns the entry stored under key. Expired and unreadable entries
// are removed and reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	expires, body, ok := decodeEntry(raw)
	if !ok || (!expires.IsZero() && c.now().After(expires)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return body, true, nil
}

// Set writes data under key. Writers go through a temporary file and a
// rename, so readers see either the old entry or the new one.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	path := c.path(key)
	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(shard, ".tmp-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(encodeEntry(expires, data))
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return werr
		}
		return cerr
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key. Deleting a missing key is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear drops every shard and reports how many entries were removed.
func (c *FileCache) Clear() (int, error) {
	shards, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range shards {
		if !s.IsDir() {
			continue
		}
		dir := filepath.Join(c.dir, s.Name())
		_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), entryExt) {
				removed++
			}
			return nil
		})
		if err := os.RemoveAll(dir); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Usage walks the cache and reports the number of entries and their total
// size on disk.
func (c *FileCache) Usage() (entries int, size int64, err error) {
	err = filepath.WalkDir(c.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), entryExt) {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries++
		size += info.Size()
		return nil
	})
	return entries, size, err
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	sum := fmt.Sprintf("%016x", xxhash.Sum64String(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+"-"+Hash([]byte(key))[:16]+entryExt)
}

func encodeEntry(expires time.Time, data []byte) []byte {
	var ns int64
	if !expires.IsZero() {
		ns = expires.UnixNano()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d\n", entryMagic, ns)
	buf.Write(data)
	return buf.Bytes()
}

func decodeEntry(raw []byte) (time.Time, []byte, bool) {
	header, body, ok := bytes.Cut(raw, []byte("\n"))
	if !ok {
		return time.Time{}, nil, false
	}
	magic, stamp, ok := strings.Cut(string(header), " ")
	if !ok || magic != entryMagic {
		return time.Time{}, nil, false
	}
	ns, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return time.Time{}, nil, false
	}
	var expires time.Time
	if ns != 0 {
		expires = time.Unix(0, ns)
	}
	return expires, body, true
}

var _ Cache = (*FileCache)(nil)
