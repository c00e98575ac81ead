package telepress

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-telepress/internal/convert"
	"github.com/alnah/go-telepress/internal/dedupe"
	"github.com/alnah/go-telepress/internal/nodes"
	"github.com/alnah/go-telepress/internal/paginate"
)

// PublishText publishes raw text content. Markdown is detected by pattern
// sniffing; everything else gets paragraph splitting on blank lines. Local
// image references resolve relative to the working directory.
func (p *Publisher) PublishText(ctx context.Context, content, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	return p.publishContent(ctx, content, title, convert.DetectMarkdown(content), ".")
}

// publishContent is the shared text pipeline: dedupe, convert, publish.
func (p *Publisher) publishContent(ctx context.Context, content, title string, markdown bool, baseDir string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	digest := dedupe.Fingerprint(content, title)
	if url, ok := p.lookup(ctx, digest); ok {
		p.logger.Info("content already published", "url", url)
		return url, nil
	}

	var ns []nodes.Node
	var err error
	if markdown {
		ns, err = p.converter.Markdown(ctx, content)
	} else {
		ns, err = p.converter.Text(ctx, content)
	}
	if err != nil {
		return "", fmt.Errorf("converting content: %w", err)
	}

	return p.publishNodes(ctx, ns, title, digest, baseDir)
}

// publishHTML runs HTML input through the HTML converter and the same
// pipeline.
func (p *Publisher) publishHTML(ctx context.Context, content, title, baseDir string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	digest := dedupe.Fingerprint(content, title)
	if url, ok := p.lookup(ctx, digest); ok {
		p.logger.Info("content already published", "url", url)
		return url, nil
	}

	ns, err := p.converter.HTML(ctx, content)
	if err != nil {
		return "", fmt.Errorf("converting HTML: %w", err)
	}

	return p.publishNodes(ctx, ns, title, digest, baseDir)
}

// publishNodes sanitizes, uploads referenced local images, paginates and
// publishes a node sequence.
func (p *Publisher) publishNodes(ctx context.Context, ns []nodes.Node, title, digest, baseDir string) (string, error) {
	ns = nodes.Sanitize(ns)
	if strings.TrimSpace(nodes.PlainText(ns)) == "" && !hasMedia(ns) {
		return "", ErrEmptyContent
	}

	p.resolveLocalImages(ctx, ns, baseDir)

	pages, err := paginate.Split(ns, p.limits)
	if err != nil {
		return "", err
	}
	return p.publishPages(ctx, pages, title, digest)
}

// hasMedia reports whether the sequence contains anything visible beyond
// text, so image-only documents are not rejected as empty.
func hasMedia(ns []nodes.Node) bool {
	found := false
	nodes.Walk(ns, func(n *nodes.Node) {
		switch n.Tag {
		case "img", "video", "iframe":
			found = true
		}
	})
	return found
}

// resolveLocalImages uploads filesystem image references and patches their
// src attributes with the public URLs. A reference that fails to upload
// keeps its local src so the failure is visible in the published page
// rather than silently dropped.
func (p *Publisher) resolveLocalImages(ctx context.Context, ns []nodes.Node, baseDir string) {
	resolve := func(src string) string {
		if filepath.IsAbs(src) {
			return src
		}
		return filepath.Join(baseDir, src)
	}

	var paths []string
	seen := make(map[string]bool)
	nodes.Walk(ns, func(n *nodes.Node) {
		if n.Tag != "img" {
			return
		}
		src := n.Attrs["src"]
		if src == "" || remoteSource(src) {
			return
		}
		path := resolve(src)
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	})
	if len(paths) == 0 {
		return
	}

	batch := p.uploader().UploadBatch(ctx, paths, p.uploadProgress())
	urls := batch.URLMap()
	p.logger.Info("uploaded referenced images", "succeeded", batch.Succeeded, "failed", batch.Failed)

	nodes.Walk(ns, func(n *nodes.Node) {
		if n.Tag != "img" {
			return
		}
		src := n.Attrs["src"]
		if src == "" || remoteSource(src) {
			return
		}
		if url, ok := urls[resolve(src)]; ok {
			n.Attrs["src"] = url
			return
		}
		p.logger.Warn("image upload failed, keeping local source", "src", src)
	})
}

// remoteSource reports whether src already points at a reachable location.
func remoteSource(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "//") ||
		strings.HasPrefix(src, "data:")
}
