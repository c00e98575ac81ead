package dedupe

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contentA string
		keyA     string
		contentB string
		keyB     string
		wantSame bool
	}{
		{
			name:     "deterministic",
			contentA: "hello world", keyA: "title",
			contentB: "hello world", keyB: "title",
			wantSame: true,
		},
		{
			name:     "key changes digest",
			contentA: "hello world", keyA: "one",
			contentB: "hello world", keyB: "two",
			wantSame: false,
		},
		{
			name:     "content changes digest",
			contentA: "hello world", keyA: "title",
			contentB: "hello mars", keyB: "title",
			wantSame: false,
		},
		{
			name:     "whitespace runs collapse",
			contentA: "hello   world\n next", keyA: "title",
			contentB: "hello world next", keyB: "title",
			wantSame: true,
		},
		{
			name:     "boundary between content and key is unambiguous",
			contentA: "ab", keyA: "c",
			contentB: "a", keyB: "bc",
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := Fingerprint(tt.contentA, tt.keyA)
			b := Fingerprint(tt.contentB, tt.keyB)
			if !hexDigest.MatchString(a) {
				t.Errorf("Fingerprint() = %q, want 16 hex chars", a)
			}
			if (a == b) != tt.wantSame {
				t.Errorf("Fingerprint(%q,%q) vs Fingerprint(%q,%q): same=%v, want %v",
					tt.contentA, tt.keyA, tt.contentB, tt.keyB, a == b, tt.wantSame)
			}
		})
	}
}

func TestRawFingerprintKeepsWhitespace(t *testing.T) {
	t.Parallel()

	a := RawFingerprint([]byte("a  b"), "k")
	b := RawFingerprint([]byte("a b"), "k")
	if a == b {
		t.Error("RawFingerprint() normalized whitespace, want raw bytes digested")
	}
}

func TestFingerprintFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "img.bin")
	content := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := FingerprintFile(path, "album")
	if err != nil {
		t.Fatalf("FingerprintFile() error: %v", err)
	}
	if want := RawFingerprint(content, "album"); got != want {
		t.Errorf("FingerprintFile() = %q, want %q", got, want)
	}
}

func TestFingerprintFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := FingerprintFile(filepath.Join(t.TempDir(), "absent"), "k"); err == nil {
		t.Error("FingerprintFile() error = nil, want error for missing file")
	}
}

func TestCacheRecordAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, err := Open(ctx, NewMemoryStore())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer cache.Close()

	digest := Fingerprint("content", "title")
	if _, ok := cache.Lookup(digest); ok {
		t.Fatal("Lookup() hit on empty cache")
	}

	if err := cache.Record(ctx, digest, "https://telegra.ph/p1"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	url, ok := cache.Lookup(digest)
	if !ok || url != "https://telegra.ph/p1" {
		t.Errorf("Lookup() = %q, %v, want %q, true", url, ok, "https://telegra.ph/p1")
	}
	if got := cache.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestCacheWritesThroughStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	first, err := Open(ctx, store)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := first.Record(ctx, "abcd", "https://telegra.ph/p2"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	second, err := Open(ctx, store)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if url, ok := second.Lookup("abcd"); !ok || url != "https://telegra.ph/p2" {
		t.Errorf("Lookup() after reopen = %q, %v, want recorded URL", url, ok)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, err := Open(ctx, NewMemoryStore())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			digest := Fingerprint("content", string(rune('a'+n)))
			if err := cache.Record(ctx, digest, "https://telegra.ph/x"); err != nil {
				t.Errorf("Record() error: %v", err)
			}
			cache.Lookup(digest)
		}(i)
	}
	wg.Wait()

	if got := cache.Len(); got != 16 {
		t.Errorf("Len() = %d, want 16", got)
	}
}
