package paginate

import (
	"fmt"

	"github.com/alnah/go-telepress/internal/natsort"
	"github.com/alnah/go-telepress/internal/nodes"
)

// SplitImages pages local image files, ordered by natural sort on filename so
// img2 comes before img10. The input slice is not modified.
func SplitImages(paths []string, limits Limits) ([]Page, error) {
	limits = limits.withDefaults()
	if len(paths) > limits.MaxImages {
		return nil, fmt.Errorf("%w: %d images, maximum %d", ErrTooManyImages, len(paths), limits.MaxImages)
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	natsort.SortPaths(sorted)

	return imagePages(sorted, limits)
}

// SplitImageURLs pages already-uploaded image URLs in the order given.
func SplitImageURLs(urls []string, limits Limits) ([]Page, error) {
	limits = limits.withDefaults()
	if len(urls) > limits.MaxImages {
		return nil, fmt.Errorf("%w: %d images, maximum %d", ErrTooManyImages, len(urls), limits.MaxImages)
	}
	return imagePages(urls, limits)
}

func imagePages(srcs []string, limits Limits) ([]Page, error) {
	var pages []Page
	for start := 0; start < len(srcs); start += limits.ImagesPerPage {
		end := min(start+limits.ImagesPerPage, len(srcs))
		ns := make([]nodes.Node, 0, end-start)
		for _, src := range srcs[start:end] {
			ns = append(ns, nodes.Image(src))
		}
		pages = append(pages, Page{Nodes: ns, Index: len(pages) + 1})
	}

	if len(pages) > limits.MaxPages {
		return nil, fmt.Errorf("%w: %d pages, maximum %d", ErrTooManyPages, len(pages), limits.MaxPages)
	}
	for i := range pages {
		pages[i].Total = len(pages)
	}
	return pages, nil
}
