package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cschema/internal/diag"
	"cschema/internal/project"
	"cschema/internal/schema"
)

// diskCacheVersion is bumped whenever DiskPayload changes shape.
const diskCacheVersion uint16 = 1

// DiskCache stores finished extractions keyed by a digest of their inputs.
// It is safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached extraction.
type DiskPayload struct {
	Version     uint16
	Key         project.Digest
	Headers     []string
	Schema      *schema.Schema
	Diagnostics []diag.Diagnostic
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/<app>, falling back
// to ~/.cache/<app>.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "schemas", key.String()+".mp")
}

// Put writes payload under key, replacing the entry atomically.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	payload.Version = diskCacheVersion
	payload.Key = key
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the entry under key. Entries written by another cache version
// count as misses.
func (c *DiskCache) Get(key project.Digest) (*DiskPayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out DiskPayload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, err
	}
	if out.Version != diskCacheVersion || out.Key != key || out.Schema == nil {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// CacheKey digests everything an extraction depends on: the header paths
// and contents, the clang arguments and the schema version.
func CacheKey(headers, clangArgs []string) (project.Digest, error) {
	parts := make([]project.Digest, 0, len(headers)+2)
	for _, h := range headers {
		abs, err := filepath.Abs(h)
		if err != nil {
			return project.Digest{}, err
		}
		content, err := project.DigestFile(h)
		if err != nil {
			return project.Digest{}, err
		}
		parts = append(parts, project.Combine(project.DigestStrings(abs), content))
	}
	parts = append(parts, project.DigestStrings(clangArgs...))
	parts = append(parts, project.DigestStrings("schema", strconv.Itoa(schema.Version)))
	return project.Combine(project.DigestStrings("cschema"), parts...), nil
}
