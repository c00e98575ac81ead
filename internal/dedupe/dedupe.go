// Package dedupe fingerprints published content and remembers where it went,
// so publishing identical input returns the existing URL instead of
// repeating conversion and upload work.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fingerprint digests text content together with a context key, typically
// the page title. Whitespace runs are collapsed first so trivial
// reformatting does not defeat deduplication; identical content under
// different keys yields different digests.
func Fingerprint(content, key string) string {
	normalized := whitespaceRun.ReplaceAllString(strings.TrimSpace(content), " ")
	return digest([]byte(normalized), key)
}

// RawFingerprint digests binary content, such as image bytes, with a context
// key. No normalization is applied.
func RawFingerprint(content []byte, key string) string {
	return digest(content, key)
}

// FingerprintFile digests a file's raw bytes without loading the whole file
// into memory.
func FingerprintFile(path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	h.Write([]byte{0})
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

func digest(content []byte, key string) string {
	h := sha256.New()
	h.Write(content)
	// NUL separator keeps (content, key) pairs unambiguous.
	h.Write([]byte{0})
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Store persists digest to URL mappings between runs.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, digest, url string) error
	Close() error
}

// Cache fronts a Store with an in-memory map. Lookups are served from
// memory and safe for concurrent use; Record writes through to the store
// under a single-writer lock so persisted updates are never lost.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
	store   Store
}

// Open loads the persisted entries into a ready-to-use cache.
func Open(ctx context.Context, store Store) (*Cache, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Cache{entries: entries, store: store}, nil
}

// Lookup returns the URL previously recorded for digest.
func (c *Cache) Lookup(digest string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.entries[digest]
	return url, ok
}

// Record stores the digest in memory and in the backing store. The memory
// map is only updated once the store accepted the write.
func (c *Cache) Record(ctx context.Context, digest, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Put(ctx, digest, url); err != nil {
		return err
	}
	c.entries[digest] = url
	return nil
}

// Len reports how many entries the cache holds.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close releases the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// MemoryStore is a Store that never persists, for tests and runs with
// deduplication disabled.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, digest, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[digest] = url
	return nil
}

func (s *MemoryStore) Close() error { return nil }
