// Package convert turns Markdown, plain text, and HTML into content nodes.
package convert

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-telepress/internal/nodes"
)

// ErrConvert indicates content could not be converted into nodes.
var ErrConvert = errors.New("content conversion failed")

// Converter builds content nodes from Markdown source using goldmark.
type Converter struct {
	md goldmark.Markdown
}

// New creates a Converter with strikethrough and bare-URL autolinking enabled.
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
		),
	)
	return &Converter{md: md}
}

// Markdown converts Markdown content to nodes. Supports context cancellation
// via goroutine + select pattern since goldmark doesn't natively support
// context.
func (c *Converter) Markdown(ctx context.Context, content string) ([]nodes.Node, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		ns []nodes.Node
	}

	done := make(chan result, 1)

	go func() {
		source := []byte(content)
		doc := c.md.Parser().Parse(text.NewReader(source))
		w := walker{source: source}
		done <- result{ns: w.blocks(doc)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.ns, nil
	}
}

// Text converts content that may or may not be Markdown: formatted input goes
// through the Markdown parser, anything else through the plain-text rules.
func (c *Converter) Text(ctx context.Context, content string) ([]nodes.Node, error) {
	if DetectMarkdown(content) {
		return c.Markdown(ctx, content)
	}
	return PlainText(content), nil
}

// headingTag maps a Markdown heading level onto the two heading tags the page
// schema supports: odd-depth headings keep h3, everything else flattens to h4.
func headingTag(level int) string {
	if level == 1 || level == 3 {
		return "h3"
	}
	return "h4"
}

// codeBlock wraps raw code text in the pre/code pair the page schema uses
// for code blocks.
func codeBlock(raw string) nodes.Node {
	return nodes.NewElement("pre", nodes.NewElement("code", nodes.NewText(raw)))
}

// walker converts a goldmark AST into nodes. It carries the original source
// because goldmark text segments only hold offsets into it.
type walker struct {
	source []byte
}

func (w walker) blocks(parent ast.Node) []nodes.Node {
	var out []nodes.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, w.block(c)...)
	}
	return out
}

func (w walker) block(n ast.Node) []nodes.Node {
	switch n := n.(type) {
	case *ast.Heading:
		return []nodes.Node{nodes.NewElement(headingTag(n.Level), w.inlines(n)...)}
	case *ast.Paragraph:
		return []nodes.Node{nodes.NewElement("p", w.inlines(n)...)}
	case *ast.TextBlock:
		// Tight list items carry bare inline content.
		return w.inlines(n)
	case *ast.Blockquote:
		return []nodes.Node{nodes.NewElement("blockquote", w.blocks(n)...)}
	case *ast.List:
		tag := "ul"
		if n.IsOrdered() {
			tag = "ol"
		}
		var items []nodes.Node
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			items = append(items, nodes.NewElement("li", w.blocks(c)...))
		}
		return []nodes.Node{nodes.NewElement(tag, items...)}
	case *ast.FencedCodeBlock:
		return []nodes.Node{codeBlock(w.rawLines(n))}
	case *ast.CodeBlock:
		return []nodes.Node{codeBlock(w.rawLines(n))}
	case *ast.ThematicBreak:
		return []nodes.Node{nodes.NewElement("hr")}
	case *ast.HTMLBlock:
		return w.htmlBlock(n)
	default:
		return w.blocks(n)
	}
}

func (w walker) inlines(parent ast.Node) []nodes.Node {
	var out []nodes.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, w.inline(c)...)
	}
	return mergeText(out)
}

func (w walker) inline(n ast.Node) []nodes.Node {
	switch n := n.(type) {
	case *ast.Text:
		out := []nodes.Node{nodes.NewText(string(n.Segment.Value(w.source)))}
		switch {
		case n.HardLineBreak():
			out = append(out, nodes.NewElement("br"))
		case n.SoftLineBreak():
			out = append(out, nodes.NewText("\n"))
		}
		return out
	case *ast.String:
		return []nodes.Node{nodes.NewText(string(n.Value))}
	case *ast.CodeSpan:
		return []nodes.Node{nodes.NewElement("code", nodes.NewText(w.textOf(n)))}
	case *ast.Emphasis:
		tag := "em"
		if n.Level >= 2 {
			tag = "strong"
		}
		return []nodes.Node{nodes.NewElement(tag, w.inlines(n)...)}
	case *ast.Link:
		return []nodes.Node{nodes.Anchor(string(n.Destination), w.inlines(n)...)}
	case *ast.AutoLink:
		url := string(n.URL(w.source))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return []nodes.Node{nodes.Anchor(url, nodes.NewText(string(n.Label(w.source))))}
	case *ast.Image:
		// The page schema has no attribute for alt text, so it is dropped.
		return []nodes.Node{nodes.Image(string(n.Destination))}
	case *ast.RawHTML:
		return w.rawHTML(n)
	case *extast.Strikethrough:
		return []nodes.Node{nodes.NewElement("s", w.inlines(n)...)}
	default:
		return w.inlines(n)
	}
}

// rawLines concatenates the source lines covered by a block node.
func (w walker) rawLines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.source))
	}
	return b.String()
}

// textOf flattens the literal text under an inline node, for code spans.
func (w walker) textOf(parent ast.Node) string {
	var b strings.Builder
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(w.source))
		case *ast.String:
			b.Write(c.Value)
		}
	}
	return b.String()
}

var brPattern = regexp.MustCompile(`(?i)^<br\s*/?>$`)

// htmlBlock degrades a block of raw HTML to visible text. Unsupported markup
// stays readable instead of being silently dropped.
func (w walker) htmlBlock(n *ast.HTMLBlock) []nodes.Node {
	raw := strings.TrimSpace(w.rawLines(n))
	if raw == "" {
		return nil
	}
	if brPattern.MatchString(raw) {
		return []nodes.Node{nodes.NewElement("br")}
	}
	return []nodes.Node{nodes.NewText(raw)}
}

// rawHTML degrades inline HTML to text, except literal <br> tags which map to
// real line breaks.
func (w walker) rawHTML(n *ast.RawHTML) []nodes.Node {
	var b strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		b.Write(seg.Value(w.source))
	}
	raw := b.String()
	if brPattern.MatchString(strings.TrimSpace(raw)) {
		return []nodes.Node{nodes.NewElement("br")}
	}
	return []nodes.Node{nodes.NewText(raw)}
}

// mergeText collapses adjacent text nodes so soft breaks and degraded HTML
// don't fragment a paragraph into many tiny nodes.
func mergeText(ns []nodes.Node) []nodes.Node {
	var out []nodes.Node
	for _, n := range ns {
		if n.Tag == "" && len(out) > 0 && out[len(out)-1].Tag == "" {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}
