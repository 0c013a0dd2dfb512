package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/domain"
)

// Cache is a content-addressed on-disk store of image bytes keyed by URL
type Cache struct {
	log         zerolog.Logger
	dir         string
	mu          sync.RWMutex
	unavailable bool

	mkdirAll func(path string, perm os.FileMode) error
}

// Stats describes the current cache contents
type Stats struct {
	Entries int
	Bytes   int64
}

// New creates the cache rooted at dir, creating the directory if needed
func New(dir string, log zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(domain.ErrIO, "failed to create image cache dir %s: %v", dir, err)
	}

	return &Cache{
		log:      log.With().Str("module", "imagecache").Logger(),
		dir:      dir,
		mkdirAll: os.MkdirAll,
	}, nil
}

// Dir returns the cache root directory
func (c *Cache) Dir() string {
	return c.dir
}

// Key returns the hex sha256 of the exact URL string
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(url string) string {
	key := Key(url)
	return filepath.Join(c.dir, key[:2], key)
}

// Save stores data under the URL, replacing any existing entry
func (c *Cache) Save(url string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unavailable {
		return domain.ErrCacheUnavailable
	}

	dst := c.path(url)
	if err := c.mkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(domain.ErrIO, "failed to create cache shard: %v", err)
	}

	if err := writeFileAtomic(dst, data); err != nil {
		return errors.Wrapf(domain.ErrIO, "failed to write cache entry: %v", err)
	}

	c.log.Trace().Str("url", url).Int("bytes", len(data)).Msg("cached image")
	return nil
}

// Load returns the cached bytes for the URL. A missing or unreadable entry is a miss.
func (c *Cache) Load(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.unavailable {
		return nil, false
	}

	data, err := os.ReadFile(c.path(url))
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Debug().Err(err).Str("url", url).Msg("unreadable cache entry")
		}
		return nil, false
	}

	return data, true
}

func (c *Cache) Exists(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.unavailable {
		return false
	}

	info, err := os.Stat(c.path(url))
	return err == nil && info.Mode().IsRegular()
}

// Clear removes every entry and recreates the empty cache directory.
// If the directory cannot be recreated the cache stays unavailable.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return errors.Wrapf(domain.ErrIO, "failed to remove image cache: %v", err)
	}

	if err := c.mkdirAll(c.dir, 0o755); err != nil {
		c.unavailable = true
		c.log.Error().Err(err).Str("dir", c.dir).Msg("image cache could not be recreated")
		return errors.Wrapf(domain.ErrCacheUnavailable, "failed to recreate %s: %v", c.dir, err)
	}

	c.unavailable = false
	c.log.Info().Str("dir", c.dir).Msg("image cache cleared")
	return nil
}

// Available reports whether the cache can accept writes
func (c *Cache) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.unavailable
}

func (c *Cache) Stats() (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Stats
	if c.unavailable {
		return s, domain.ErrCacheUnavailable
	}

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		s.Entries++
		s.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return Stats{}, errors.Wrapf(domain.ErrIO, "failed to walk image cache: %v", err)
	}

	return s, nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
