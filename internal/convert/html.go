package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alnah/go-telepress/internal/nodes"
)

// headingClamp maps every HTML heading onto the two levels the page schema
// supports.
var headingClamp = map[string]string{
	"h1": "h3",
	"h2": "h4",
	"h3": "h3",
	"h4": "h4",
	"h5": "h4",
	"h6": "h4",
}

// HTML converts an HTML document or fragment to nodes. Script, style, and
// noscript subtrees are dropped; unsupported wrapper elements contribute
// their children; only href and src attributes survive.
func (c *Converter) HTML(ctx context.Context, content string) ([]nodes.Node, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		ns  []nodes.Node
		err error
	}

	done := make(chan result, 1)

	go func() {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConvert, err)}
			return
		}
		doc.Find("script, style, noscript").Remove()

		body := doc.Find("body")
		if len(body.Nodes) == 0 {
			done <- result{}
			return
		}
		done <- result{ns: htmlChildren(body.Nodes[0])}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.ns, r.err
	}
}

func htmlChildren(n *html.Node) []nodes.Node {
	var out []nodes.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, htmlNode(c)...)
	}
	return mergeText(out)
}

func htmlNode(n *html.Node) []nodes.Node {
	switch n.Type {
	case html.TextNode:
		// Whitespace-only runs are document formatting, not content.
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return []nodes.Node{nodes.NewText(n.Data)}
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if clamped, ok := headingClamp[tag]; ok {
			tag = clamped
		}
		if !nodes.Allowed(tag) {
			return htmlChildren(n)
		}
		el := nodes.Node{Tag: tag, Children: htmlChildren(n)}
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if key != "href" && key != "src" {
				continue
			}
			if el.Attrs == nil {
				el.Attrs = map[string]string{}
			}
			el.Attrs[key] = a.Val
		}
		return []nodes.Node{el}
	default:
		return nil
	}
}
