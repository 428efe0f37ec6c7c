// Package assets loads skinned models and caches them for sharing between
// instances.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/midgard-skin/internal/source"
	"github.com/Faultbox/midgard-skin/internal/source/gltfasset"
	"github.com/Faultbox/midgard-skin/internal/source/jsonasset"
)

// Model is a loaded skeleton with its clips. It is immutable and may be
// shared by any number of instances.
type Model = source.Asset

// Source names the files of one model.
type Source struct {
	Model      string        // Model file (.json, .gltf or .glb)
	Animations string        // Animation file for JSON models; ignored for glTF
	Format     source.Format // Empty or FormatAuto detects from the extension
}

func (s Source) format() source.Format {
	if s.Format == "" || s.Format == source.FormatAuto {
		return source.DetectFormat(s.Model)
	}
	return s.Format
}

func (s Source) key() string {
	return string(s.format()) + ":" + s.Model + "|" + s.Animations
}

// ErrUnknownFormat is returned for formats without an adapter.
var ErrUnknownFormat = errors.New("assets: unknown format")

// Library resolves model paths and caches loaded models.
type Library struct {
	roots []string
	opts  source.Options
	cache *Cache
	mu    sync.RWMutex

	// loading holds one in-flight load per source key
	loading singleflight.Group
}

// NewLibrary creates a library. opts apply to every model it loads.
func NewLibrary(opts source.Options) *Library {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Library{
		opts:  opts,
		cache: NewCache(),
	}
}

// AddRoot adds a directory for resolving relative paths.
// Roots are searched in reverse order (last added = highest priority).
func (l *Library) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	l.mu.Lock()
	l.roots = append(l.roots, dir)
	l.mu.Unlock()

	return nil
}

// resolve maps a relative path onto the first root that contains it.
func (l *Library) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.roots) - 1; i >= 0; i-- {
		p := filepath.Join(l.roots[i], path)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return path
}

// Load returns the model for src, loading it on first use. Concurrent
// calls for the same source share one load.
func (l *Library) Load(src Source) (*Model, error) {
	src.Model = l.resolve(src.Model)
	src.Animations = l.resolve(src.Animations)

	key := src.key()
	if m, ok := l.cache.Get(key); ok {
		return m, nil
	}

	v, err, _ := l.loading.Do(key, func() (any, error) {
		// a load for key may have finished since the miss
		if m, ok := l.cache.peek(key); ok {
			return m, nil
		}
		m, err := l.load(src)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

func (l *Library) load(src Source) (*Model, error) {
	var (
		m   *Model
		err error
	)
	switch f := src.format(); f {
	case source.FormatJSON:
		m, err = jsonasset.Load(src.Model, src.Animations, l.opts)
	case source.FormatGLTF:
		m, err = gltfasset.Load(src.Model, l.opts)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", src.Model, err)
	}

	l.opts.Logger.Info("Loaded model",
		zap.String("name", m.Name),
		zap.String("path", src.Model),
		zap.Int("bones", m.Skeleton.Len()),
		zap.Int("clips", len(m.Clips)),
		zap.Int("warnings", len(m.Warnings())))
	return m, nil
}

// Stats returns cache hits and misses.
func (l *Library) Stats() (hits, misses int) {
	return l.cache.Stats()
}

// Close drops all roots and cached models.
func (l *Library) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roots = nil
	l.cache.Clear()
}

// Cache is an in-memory model cache keyed by source.
type Cache struct {
	data map[string]*Model
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Model),
	}
}

// Get retrieves a model from cache.
func (c *Cache) Get(key string) (*Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

// peek looks a model up without counting a hit or miss.
func (c *Cache) peek(key string) (*Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.data[key]
	return m, ok
}

// Set stores a model in cache.
func (c *Cache) Set(key string, m *Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = m
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Model)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
