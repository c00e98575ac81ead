package convert

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alnah/go-telepress/internal/nodes"
)

func TestHTML(t *testing.T) {
	t.Parallel()

	conv := New()

	tests := []struct {
		name    string
		content string
		want    []nodes.Node
	}{
		{
			name:    "empty document",
			content: "",
			want:    nil,
		},
		{
			name:    "paragraph with inline markup",
			content: "<p>hello <b>world</b></p>",
			want: []nodes.Node{nodes.NewElement("p",
				nodes.NewText("hello "),
				nodes.NewElement("b", nodes.NewText("world")),
			)},
		},
		{
			name:    "heading clamped",
			content: "<h1>Big</h1><h6>Small</h6>",
			want: []nodes.Node{
				nodes.NewElement("h3", nodes.NewText("Big")),
				nodes.NewElement("h4", nodes.NewText("Small")),
			},
		},
		{
			name:    "wrapper element unwrapped",
			content: "<div><p>inner</p></div>",
			want:    []nodes.Node{nodes.NewElement("p", nodes.NewText("inner"))},
		},
		{
			name:    "script and style dropped",
			content: "<script>alert(1)</script><style>p{}</style><p>safe</p>",
			want:    []nodes.Node{nodes.NewElement("p", nodes.NewText("safe"))},
		},
		{
			name:    "attributes filtered to href",
			content: `<a href="https://example.com" onclick="x()" target="_blank">go</a>`,
			want:    []nodes.Node{nodes.Anchor("https://example.com", nodes.NewText("go"))},
		},
		{
			name:    "image keeps src only",
			content: `<img src="/a.jpg" width="100" alt="cover">`,
			want:    []nodes.Node{nodes.Image("/a.jpg")},
		},
		{
			name:    "span unwrapped and text merged",
			content: "<span>one</span> two",
			want:    []nodes.Node{nodes.NewText("one two")},
		},
		{
			name:    "nested list survives",
			content: "<ul><li>a</li><li>b</li></ul>",
			want: []nodes.Node{nodes.NewElement("ul",
				nodes.NewElement("li", nodes.NewText("a")),
				nodes.NewElement("li", nodes.NewText("b")),
			)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := conv.HTML(context.Background(), tt.content)
			if err != nil {
				t.Fatalf("HTML(%q) error: %v", tt.content, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HTML(%q):\n got %s\nwant %s", tt.content, wire(t, got), wire(t, tt.want))
			}
		})
	}
}

func TestHTMLCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := New()
	if _, err := conv.HTML(ctx, "<p>never</p>"); !errors.Is(err, context.Canceled) {
		t.Errorf("HTML() error = %v, want %v", err, context.Canceled)
	}
}
