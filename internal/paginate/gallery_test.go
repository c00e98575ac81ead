package paginate

import (
	"errors"
	"testing"
)

func pageSrcs(p Page) []string {
	out := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		out = append(out, n.Attrs["src"])
	}
	return out
}

func TestSplitImagesNaturalOrder(t *testing.T) {
	t.Parallel()

	paths := []string{"/g/img10.jpg", "/g/img2.jpg", "/g/img1.jpg"}

	got, err := SplitImages(paths, Limits{})
	if err != nil {
		t.Fatalf("SplitImages() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("SplitImages() = %d pages, want 1", len(got))
	}

	want := []string{"/g/img1.jpg", "/g/img2.jpg", "/g/img10.jpg"}
	srcs := pageSrcs(got[0])
	for i, src := range srcs {
		if src != want[i] {
			t.Errorf("image %d src = %q, want %q", i, src, want[i])
		}
	}

	// Input order must be preserved for the caller.
	if paths[0] != "/g/img10.jpg" {
		t.Errorf("input slice was reordered: %v", paths)
	}
}

func TestSplitImagesPerPage(t *testing.T) {
	t.Parallel()

	paths := []string{"/a1.png", "/a2.png", "/a3.png", "/a4.png", "/a5.png"}

	got, err := SplitImages(paths, Limits{ImagesPerPage: 2})
	if err != nil {
		t.Fatalf("SplitImages() error: %v", err)
	}

	wantCounts := []int{2, 2, 1}
	if len(got) != len(wantCounts) {
		t.Fatalf("SplitImages() = %d pages, want %d", len(got), len(wantCounts))
	}
	for i, p := range got {
		if len(p.Nodes) != wantCounts[i] {
			t.Errorf("page %d has %d images, want %d", i+1, len(p.Nodes), wantCounts[i])
		}
		if p.Index != i+1 || p.Total != 3 {
			t.Errorf("page %d numbering = %d/%d, want %d/3", i+1, p.Index, p.Total, i+1)
		}
	}
}

func TestSplitImagesEmpty(t *testing.T) {
	t.Parallel()

	got, err := SplitImages(nil, Limits{})
	if err != nil {
		t.Fatalf("SplitImages() error: %v", err)
	}
	if got != nil {
		t.Errorf("SplitImages() = %v, want nil", got)
	}
}

func TestSplitImagesTooMany(t *testing.T) {
	t.Parallel()

	_, err := SplitImages([]string{"/a.png", "/b.png", "/c.png"}, Limits{MaxImages: 2})
	if !errors.Is(err, ErrTooManyImages) {
		t.Errorf("SplitImages() error = %v, want %v", err, ErrTooManyImages)
	}
}

func TestSplitImagesTooManyPages(t *testing.T) {
	t.Parallel()

	_, err := SplitImages([]string{"/a.png", "/b.png", "/c.png"}, Limits{ImagesPerPage: 1, MaxPages: 2})
	if !errors.Is(err, ErrTooManyPages) {
		t.Errorf("SplitImages() error = %v, want %v", err, ErrTooManyPages)
	}
}

func TestSplitImageURLsKeepsOrder(t *testing.T) {
	t.Parallel()

	urls := []string{"https://h/b.png", "https://h/a10.png", "https://h/a2.png"}

	got, err := SplitImageURLs(urls, Limits{})
	if err != nil {
		t.Fatalf("SplitImageURLs() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("SplitImageURLs() = %d pages, want 1", len(got))
	}

	srcs := pageSrcs(got[0])
	for i, url := range urls {
		if srcs[i] != url {
			t.Errorf("image %d src = %q, want %q", i, srcs[i], url)
		}
	}
	for _, n := range got[0].Nodes {
		if n.Tag != "img" {
			t.Errorf("node tag = %q, want %q", n.Tag, "img")
		}
	}
}
