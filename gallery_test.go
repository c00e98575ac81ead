package telepress

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
)

// writeZipFile builds a zip archive with one entry per name, in the given
// order, each holding throwaway bytes.
func writeZipFile(t *testing.T, dir string, names []string) string {
	t.Helper()
	path := filepath.Join(dir, "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if _, err := w.Write([]byte("data for " + name)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return path
}

func TestPublishSingleImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "pic.png", "fake png bytes")

	svc := &fakeService{}
	host := &fakeImageHost{}
	p, _ := newTestPublisher(svc, WithImageHost(host))

	url, err := p.Publish(context.Background(), path, "Pic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://pages.test/page-1" {
		t.Errorf("url = %q, want the created page", url)
	}
	if host.callCount() != 1 || host.calls[0] != path {
		t.Errorf("uploads = %v, want just %q", host.calls, path)
	}
	if !strings.Contains(svc.creates[0].content, "https://img.test/pic.png") {
		t.Errorf("content should embed the hosted image, got: %s", svc.creates[0].content)
	}
	if svc.editCount() != 0 {
		t.Errorf("edits = %d, want 0 for a single page", svc.editCount())
	}
}

func TestPublishZipOrdersNaturally(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"img10.png", "img2.png", "readme.txt", "img1.png"})

	svc := &fakeService{}
	host := &fakeImageHost{}
	p, _ := newTestPublisher(svc, WithImageHost(host))

	if _, err := p.Publish(context.Background(), path, "Gallery"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.callCount() != 3 {
		t.Fatalf("uploads = %d, want 3 (readme.txt is not an image)", host.callCount())
	}

	content := svc.creates[0].content
	i1 := strings.Index(content, "img.test/img1.png")
	i2 := strings.Index(content, "img.test/img2.png")
	i10 := strings.Index(content, "img.test/img10.png")
	if i1 < 0 || i2 < 0 || i10 < 0 {
		t.Fatalf("missing images in content: %s", content)
	}
	if !(i1 < i2 && i2 < i10) {
		t.Errorf("images out of order: img1@%d img2@%d img10@%d", i1, i2, i10)
	}
	if strings.Contains(content, "readme") {
		t.Errorf("non-image entry leaked into the page: %s", content)
	}
}

func TestPublishZipPaginates(t *testing.T) {
	t.Parallel()

	names := []string{"a1.png", "a2.png", "a3.png", "a4.png", "a5.png"}
	path := writeZipFile(t, t.TempDir(), names)

	svc := &fakeService{}
	host := &fakeImageHost{}
	p, _ := newTestPublisher(svc, WithImageHost(host), WithImagesPerPage(2))

	url, err := p.Publish(context.Background(), path, "Gallery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://pages.test/page-1" {
		t.Errorf("url = %q, want the first page", url)
	}
	if svc.createCount() != 3 {
		t.Fatalf("creates = %d, want 3 pages of two images", svc.createCount())
	}
	if got := svc.creates[0].title; got != "Gallery (1/3)" {
		t.Errorf("first title = %q, want %q", got, "Gallery (1/3)")
	}
	if !strings.Contains(svc.creates[0].content, "telepress+page:") {
		t.Error("created pages should navigate via placeholders")
	}

	if svc.editCount() != 3 {
		t.Fatalf("edits = %d, want one per page", svc.editCount())
	}
	first := svc.edits[0].content
	if strings.Contains(first, "telepress+page:") {
		t.Errorf("placeholders survived linking: %s", first)
	}
	for _, img := range []string{"img.test/a1.png", "img.test/a2.png"} {
		if !strings.Contains(first, img) {
			t.Errorf("page 1 should keep %s after linking", img)
		}
	}
	if strings.Contains(first, "img.test/a3.png") {
		t.Error("page 1 holds an image that belongs to page 2")
	}
}

func TestPublishZipDropsFailedImage(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"c1.png", "c2.png", "c3.png"})

	svc := &fakeService{}
	host := &fakeImageHost{fail: map[string]bool{"c2.png": true}}
	p, _ := newTestPublisher(svc, WithImageHost(host))

	if _, err := p.Publish(context.Background(), path, "Gallery"); err != nil {
		t.Fatalf("one failed upload must not sink the gallery, got: %v", err)
	}
	content := svc.creates[0].content
	if !strings.Contains(content, "img.test/c1.png") || !strings.Contains(content, "img.test/c3.png") {
		t.Errorf("surviving images missing: %s", content)
	}
	if strings.Contains(content, "c2.png") {
		t.Errorf("failed image should be dropped, got: %s", content)
	}
}

func TestPublishZipKeepsNumberingForEmptiedPage(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"d1.png", "d2.png"})

	svc := &fakeService{}
	host := &fakeImageHost{fail: map[string]bool{"d2.png": true}}
	p, _ := newTestPublisher(svc, WithImageHost(host), WithImagesPerPage(1))

	if _, err := p.Publish(context.Background(), path, "Gallery"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.createCount() != 2 {
		t.Fatalf("creates = %d, want 2 (page count fixed before uploads)", svc.createCount())
	}
	if got := svc.creates[1].title; got != "Gallery (2/2)" {
		t.Errorf("second title = %q, want %q", got, "Gallery (2/2)")
	}
	if !strings.Contains(svc.creates[1].content, "(Empty Page)") {
		t.Errorf("emptied page should carry a placeholder, got: %s", svc.creates[1].content)
	}
}

func TestPublishZipAllUploadsFail(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"e1.png", "e2.png"})

	svc := &fakeService{}
	host := &fakeImageHost{fail: map[string]bool{"e1.png": true, "e2.png": true}}
	p, _ := newTestPublisher(svc, WithImageHost(host))

	_, err := p.Publish(context.Background(), path, "Gallery")
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("errors.Is(err, ErrUpload) = false, got: %v", err)
	}
	if svc.createCount() != 0 {
		t.Errorf("creates = %d, want 0 when nothing uploaded", svc.createCount())
	}
}

func TestPublishZipWithoutImages(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"readme.txt", "notes/todo.md"})

	p, _ := newTestPublisher(&fakeService{})
	_, err := p.Publish(context.Background(), path, "Gallery")
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("errors.Is(err, ErrNoImages) = false, got: %v", err)
	}
	if !strings.Contains(err.Error(), "bundle.zip") {
		t.Errorf("error should name the archive, got: %v", err)
	}
}

func TestPublishZipCached(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"f1.png"})

	svc := &fakeService{}
	host := &fakeImageHost{}
	p, _ := newTestPublisher(svc, WithImageHost(host))

	first, err := p.Publish(context.Background(), path, "Gallery")
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	second, err := p.Publish(context.Background(), path, "Gallery")
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if second != first {
		t.Errorf("second url = %q, want cached %q", second, first)
	}
	if host.callCount() != 1 {
		t.Errorf("uploads = %d, want 1 (archive fingerprint short-circuits extraction)", host.callCount())
	}
	if svc.createCount() != 1 {
		t.Errorf("creates = %d, want 1", svc.createCount())
	}
}

// ---------------------------------------------------------------------------
// Remote image URLs
// ---------------------------------------------------------------------------

func TestPublishImageURLs(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://cdn.example/one.jpg",
		"https://cdn.example/two.jpg",
		"https://cdn.example/three.jpg",
	}

	svc := &fakeService{}
	host := &fakeImageHost{}
	p, _ := newTestPublisher(svc, WithImageHost(host))

	got, err := p.PublishImageURLs(context.Background(), urls, "Album")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://pages.test/page-1" {
		t.Errorf("url = %q, want the created page", got)
	}
	if host.callCount() != 0 {
		t.Errorf("uploads = %d, want 0 for already-hosted images", host.callCount())
	}
	for _, u := range urls {
		if !strings.Contains(svc.creates[0].content, u) {
			t.Errorf("content missing %s", u)
		}
	}

	again, err := p.PublishImageURLs(context.Background(), urls, "Album")
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if again != got {
		t.Errorf("republish url = %q, want cached %q", again, got)
	}
	if svc.createCount() != 1 {
		t.Errorf("creates = %d, want 1 after a cache hit", svc.createCount())
	}
}

func TestPublishImageURLsValidation(t *testing.T) {
	t.Parallel()

	p, _ := newTestPublisher(&fakeService{})

	if _, err := p.PublishImageURLs(context.Background(), []string{"https://x/1.jpg"}, " "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("blank title: errors.Is(err, ErrEmptyTitle) = false, got: %v", err)
	}
	if _, err := p.PublishImageURLs(context.Background(), nil, "Album"); !errors.Is(err, ErrNoImages) {
		t.Errorf("no urls: errors.Is(err, ErrNoImages) = false, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Progress reporting
// ---------------------------------------------------------------------------

func TestUploadProgressReporting(t *testing.T) {
	t.Parallel()

	path := writeZipFile(t, t.TempDir(), []string{"g1.png", "g2.png", "g3.png"})

	var mu sync.Mutex
	var completions, totals []int
	var bases []string
	var uploadErrs []error
	progress := func(completed, total int, p string, uploadErr error) {
		mu.Lock()
		defer mu.Unlock()
		completions = append(completions, completed)
		totals = append(totals, total)
		bases = append(bases, filepath.Base(p))
		uploadErrs = append(uploadErrs, uploadErr)
	}

	svc := &fakeService{}
	pub, _ := newTestPublisher(svc, WithImageHost(&fakeImageHost{}), WithUploadProgress(progress))

	if _, err := pub.Publish(context.Background(), path, "Gallery"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(completions) != 3 {
		t.Fatalf("progress calls = %d, want 3", len(completions))
	}
	for i, c := range completions {
		if c != i+1 {
			t.Errorf("completion %d = %d, want %d", i, c, i+1)
		}
		if totals[i] != 3 {
			t.Errorf("total %d = %d, want 3", i, totals[i])
		}
		if uploadErrs[i] != nil {
			t.Errorf("upload %d failed: %v", i, uploadErrs[i])
		}
	}
	sort.Strings(bases)
	if got := strings.Join(bases, ","); got != "g1.png,g2.png,g3.png" {
		t.Errorf("reported files = %s", got)
	}
}
