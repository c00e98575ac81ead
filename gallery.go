package telepress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-telepress/internal/archive"
	"github.com/alnah/go-telepress/internal/dedupe"
	"github.com/alnah/go-telepress/internal/nodes"
	"github.com/alnah/go-telepress/internal/paginate"
)

// PublishImageURLs publishes a gallery of already-hosted images, paginated
// with navigation but skipping the upload stage.
func (p *Publisher) PublishImageURLs(ctx context.Context, urls []string, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	if len(urls) == 0 {
		return "", ErrNoImages
	}

	digest := dedupe.Fingerprint(strings.Join(urls, "\n"), title)
	if url, ok := p.lookup(ctx, digest); ok {
		p.logger.Info("gallery already published", "url", url)
		return url, nil
	}

	pages, err := paginate.SplitImageURLs(urls, p.limits)
	if err != nil {
		return "", err
	}
	return p.publishPages(ctx, pages, title, digest)
}

// publishImageFiles uploads the images and publishes them as a paginated
// gallery. Page boundaries are fixed before uploading; an image that fails
// to upload is dropped from its page, and a page losing every image keeps
// an explanatory placeholder so the numbering stays stable.
func (p *Publisher) publishImageFiles(ctx context.Context, paths []string, title, digest string) (string, error) {
	if url, ok := p.lookup(ctx, digest); ok {
		p.logger.Info("gallery already published", "url", url)
		return url, nil
	}

	pages, err := paginate.SplitImages(paths, p.limits)
	if err != nil {
		return "", err
	}

	// Upload in page order so progress follows the published layout.
	ordered := make([]string, 0, len(paths))
	for _, page := range pages {
		for _, n := range page.Nodes {
			ordered = append(ordered, n.Attrs["src"])
		}
	}

	batch := p.uploader().UploadBatch(ctx, ordered, p.uploadProgress())
	if batch.Succeeded == 0 {
		return "", fmt.Errorf("%w: all %d images failed", ErrUpload, len(ordered))
	}
	urls := batch.URLMap()
	p.logger.Info("gallery uploaded", "succeeded", batch.Succeeded, "failed", batch.Failed)

	for i := range pages {
		var kept []nodes.Node
		for _, n := range pages[i].Nodes {
			url, ok := urls[n.Attrs["src"]]
			if !ok {
				p.logger.Warn("dropping image from gallery", "path", n.Attrs["src"])
				continue
			}
			n.Attrs["src"] = url
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			kept = []nodes.Node{nodes.NewElement("p", nodes.NewText("(Empty Page)"))}
		}
		pages[i].Nodes = kept
	}

	return p.publishPages(ctx, pages, title, digest)
}

// publishArchive extracts a zip of images into a temporary directory and
// publishes them as a gallery. The archive's own bytes are fingerprinted
// so a duplicate archive short-circuits before extraction.
func (p *Publisher) publishArchive(ctx context.Context, zipPath, title string) (string, error) {
	digest, err := dedupe.FingerprintFile(zipPath, title)
	if err != nil {
		return "", fmt.Errorf("fingerprinting %s: %w", filepath.Base(zipPath), err)
	}
	if url, ok := p.lookup(ctx, digest); ok {
		p.logger.Info("archive already published", "url", url)
		return url, nil
	}

	dir, err := os.MkdirTemp("", "telepress-zip-*")
	if err != nil {
		return "", fmt.Errorf("creating extraction dir: %w", err)
	}
	defer os.RemoveAll(dir)

	paths, err := archive.ExtractImages(zipPath, dir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: %s contains none", ErrNoImages, filepath.Base(zipPath))
	}
	return p.publishImageFiles(ctx, paths, title, digest)
}
