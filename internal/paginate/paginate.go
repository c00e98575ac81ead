// Package paginate splits node sequences into size-bounded pages and wires
// navigation between them. The byte budget applies to page content before
// navigation is appended; the default budget leaves ample headroom under the
// remote service's hard page-size cap.
package paginate

import (
	"errors"
	"fmt"

	"github.com/alnah/go-telepress/internal/nodes"
)

var (
	// ErrTooManyPages indicates pagination would exceed the page maximum.
	ErrTooManyPages = errors.New("page count exceeds the configured maximum")
	// ErrTooManyImages indicates a gallery exceeds the image maximum.
	ErrTooManyImages = errors.New("image count exceeds the configured maximum")
)

// Default limits. The byte budget bounds the serialized node payload of one
// page; the maximums bound total remote resource consumption per publish.
const (
	DefaultByteBudget    = 10000
	DefaultImagesPerPage = 100
	DefaultMaxPages      = 100
	DefaultMaxImages     = 5000
)

// Page is one size-bounded unit of a paginated publish.
type Page struct {
	Nodes []nodes.Node
	Index int // 1-based
	Total int
	// Oversized marks a page holding a single node whose serialized size
	// alone exceeds the byte budget. Nodes are never split, so the page is
	// kept whole and flagged.
	Oversized bool
}

// Limits bounds a paginated publish. Zero fields take the package defaults.
type Limits struct {
	ByteBudget    int
	ImagesPerPage int
	MaxPages      int
	MaxImages     int
}

func (l Limits) withDefaults() Limits {
	if l.ByteBudget <= 0 {
		l.ByteBudget = DefaultByteBudget
	}
	if l.ImagesPerPage <= 0 {
		l.ImagesPerPage = DefaultImagesPerPage
	}
	if l.MaxPages <= 0 {
		l.MaxPages = DefaultMaxPages
	}
	if l.MaxImages <= 0 {
		l.MaxImages = DefaultMaxImages
	}
	return l
}

// Split walks the node sequence accumulating serialized size and closes the
// current page whenever adding the next node would exceed the byte budget.
// Page order follows node order.
func Split(ns []nodes.Node, limits Limits) ([]Page, error) {
	limits = limits.withDefaults()

	var pages []Page
	var current []nodes.Node
	size := 2 // enclosing brackets of the serialized node array

	flush := func(oversized bool) {
		if len(current) == 0 {
			return
		}
		pages = append(pages, Page{Nodes: current, Index: len(pages) + 1, Oversized: oversized})
		current = nil
		size = 2
	}

	for _, n := range ns {
		cost := n.Size()
		if len(current) > 0 {
			cost++ // separating comma
		}
		if size+cost > limits.ByteBudget && len(current) > 0 {
			flush(false)
			cost = n.Size()
		}
		if size+cost > limits.ByteBudget {
			current = append(current, n)
			flush(true)
			continue
		}
		current = append(current, n)
		size += cost
	}
	flush(false)

	if len(pages) > limits.MaxPages {
		return nil, fmt.Errorf("%w: %d pages, maximum %d", ErrTooManyPages, len(pages), limits.MaxPages)
	}
	for i := range pages {
		pages[i].Total = len(pages)
	}
	return pages, nil
}
