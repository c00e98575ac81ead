package paginate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alnah/go-telepress/internal/nodes"
)

// placeholderScheme prefixes navigation targets for pages that do not exist
// remotely yet. The scheme cannot collide with a real URL.
const placeholderScheme = "telepress+page:"

// PlaceholderURL returns the provisional navigation target for the page with
// the given 1-based index.
func PlaceholderURL(index int) string {
	return placeholderScheme + strconv.Itoa(index)
}

// AddNavigation appends a navigation block to every page when there is more
// than one: a rule, a previous/next link line, and a page index line. Link
// targets are placeholders resolved by PatchPlaceholders once every page has
// a real URL.
func AddNavigation(pages []Page) {
	total := len(pages)
	if total <= 1 {
		return
	}
	for i := range pages {
		pages[i].Nodes = append(pages[i].Nodes, navigation(i+1, total)...)
	}
}

func navigation(index, total int) []nodes.Node {
	var links []nodes.Node
	if index > 1 {
		links = append(links, nodes.Anchor(PlaceholderURL(index-1), nodes.NewText("◀ Previous")))
	}
	if index < total {
		if len(links) > 0 {
			links = append(links, nodes.NewText(" | "))
		}
		links = append(links, nodes.Anchor(PlaceholderURL(index+1), nodes.NewText("Next ▶")))
	}

	return []nodes.Node{
		nodes.NewElement("hr"),
		nodes.NewElement("p", links...),
		nodes.NewElement("p", pageIndex(index, total)...),
	}
}

// pageIndex builds the "Pages:" line: itemized links with the current page
// bolded for small page counts, a compact "n / total" beyond that.
func pageIndex(index, total int) []nodes.Node {
	if total >= 50 {
		return []nodes.Node{nodes.NewText(fmt.Sprintf("Pages: %d / %d", index, total))}
	}

	out := []nodes.Node{nodes.NewText("Pages: ")}
	for i := 1; i <= total; i++ {
		if i > 1 {
			out = append(out, nodes.NewText(" "))
		}
		label := fmt.Sprintf("[%d]", i)
		if i == index {
			out = append(out, nodes.NewElement("b", nodes.NewText(label)))
			continue
		}
		out = append(out, nodes.Anchor(PlaceholderURL(i), nodes.NewText(label)))
	}
	return out
}

// PatchPlaceholders rewrites placeholder navigation targets to real URLs.
// urls[i] is the URL of page i+1; placeholders pointing outside the list are
// left untouched.
func PatchPlaceholders(ns []nodes.Node, urls []string) {
	nodes.Walk(ns, func(n *nodes.Node) {
		href, ok := n.Attrs["href"]
		if !ok || !strings.HasPrefix(href, placeholderScheme) {
			return
		}
		index, err := strconv.Atoi(strings.TrimPrefix(href, placeholderScheme))
		if err != nil || index < 1 || index > len(urls) {
			return
		}
		n.Attrs["href"] = urls[index-1]
	})
}
