package session

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Key identifies a cached analysis by the content of its inputs.
type Key [sha256.Size]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyBuilder hashes length-prefixed parts, so ("ab","c") and ("a","bc")
// produce different keys.
type KeyBuilder struct {
	parts [][]byte
}

func (b *KeyBuilder) Bytes(p []byte) *KeyBuilder {
	b.parts = append(b.parts, p)
	return b
}

func (b *KeyBuilder) Text(s string) *KeyBuilder {
	return b.Bytes([]byte(s))
}

// File hashes the contents of path; an empty path contributes an empty part.
func (b *KeyBuilder) File(path string) (*KeyBuilder, error) {
	if path == "" {
		return b.Bytes(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	return b.Bytes(data), nil
}

func (b *KeyBuilder) Sum() Key {
	h := sha256.New()
	var n [8]byte
	for _, p := range b.parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Cache stores finished sessions on disk keyed by input content.
// Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache opens the cache in dir, or in $XDG_CACHE_HOME/<app> (falling
// back to ~/.cache/<app>) when dir is empty.
func OpenCache(dir, app string) (*Cache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	// подкаталог "sessions", чтобы DropAll не трогал чужие файлы
	return filepath.Join(c.dir, "sessions", key.String()+".mp")
}

// Put writes s under key, replacing any previous entry atomically.
func (c *Cache) Put(key Key, s *Session) error {
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
	defer os.Remove(f.Name())

	if err := s.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get returns the cached session for key. A missing entry or one written
// with another schema is a miss, not an error.
func (c *Cache) Get(key Key) (*Session, bool, error) {
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

	s, err := Load(f)
	if err != nil {
		if errors.Is(err, ErrSchemaMismatch) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return s, true, nil
}

// DropAll removes every cached session.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.dir, "sessions")
	old := dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	return os.RemoveAll(old)
}
