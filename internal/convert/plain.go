package convert

import (
	"regexp"
	"strings"

	"github.com/alnah/go-telepress/internal/nodes"
)

// markdownPatterns are the formatting cues that mark content as Markdown:
// headings, bold, links, lists, blockquotes, and fenced code.
var markdownPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s`),
	regexp.MustCompile(`\*\*.+\*\*`),
	regexp.MustCompile(`\[.+\]\(.+\)`),
	regexp.MustCompile(`(?m)^\s*[-*+]\s`),
	regexp.MustCompile(`(?m)^\s*\d+\.\s`),
	regexp.MustCompile(`(?m)^>\s`),
	regexp.MustCompile("```"),
}

// DetectMarkdown reports whether content carries Markdown formatting cues.
func DetectMarkdown(content string) bool {
	for _, p := range markdownPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// PlainText converts non-Markdown text into nodes: each blank-line-delimited
// run of lines becomes one paragraph, and line breaks within a run are kept
// as br elements. Deliberately lossy but predictable, so pasted text keeps
// its visual shape.
func PlainText(content string) []nodes.Node {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var out []nodes.Node
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		children := make([]nodes.Node, 0, 2*len(run)-1)
		for i, line := range run {
			if i > 0 {
				children = append(children, nodes.NewElement("br"))
			}
			children = append(children, nodes.NewText(line))
		}
		out = append(out, nodes.NewElement("p", children...))
		run = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		run = append(run, line)
	}
	flush()

	return out
}
