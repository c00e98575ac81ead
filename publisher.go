package telepress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-telepress/internal/convert"
	"github.com/alnah/go-telepress/internal/dedupe"
	"github.com/alnah/go-telepress/internal/imagehost"
	"github.com/alnah/go-telepress/internal/imageutil"
	"github.com/alnah/go-telepress/internal/paginate"
	"github.com/alnah/go-telepress/internal/telegraph"
	"github.com/alnah/go-telepress/internal/upload"
)

// maxInputSize is the hard ceiling for any single input file.
const maxInputSize = 2 << 30

// Extension routing for Publish. Markdown extensions force the markdown
// converter; plain extensions are sniffed for markdown patterns first.
var (
	markdownExtensions = map[string]bool{".md": true, ".markdown": true}
	plainExtensions    = map[string]bool{".txt": true, ".text": true, ".rst": true}
	htmlExtensions     = map[string]bool{".html": true, ".htm": true}
)

// Publisher drives the publish pipeline: convert, paginate, upload, create,
// link, dedupe. A Publisher is safe for concurrent use.
type Publisher struct {
	token      string
	shortName  string
	tokenStore TokenStore
	pages      PageService
	host       ImageHost
	cacheStore CacheStore
	cachePath  string
	logger     *slog.Logger
	limits     paginate.Limits
	sizeLimit  int64
	compress   bool
	workers    int
	progress   UploadProgress

	// uploadRetries overrides the pipeline's attempt ceiling; zero keeps
	// the default. Tests lower it to skip backoff waits.
	uploadRetries int

	converter *convert.Converter

	// sleep is swappable in tests so pacing and retry waits are observable
	// without real waiting.
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	dedupeOn bool
	cache    *dedupe.Cache
}

// New creates a Publisher with default configuration. Use options to
// customize behavior (e.g. WithImageHost, WithPageByteBudget).
func New(opts ...Option) *Publisher {
	p := &Publisher{
		shortName: telegraph.DefaultShortName,
		dedupeOn:  true,
		compress:  true,
		logger:    slog.New(slog.DiscardHandler),
		converter: convert.New(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish reads path and publishes it, routing on the file extension:
// markdown and plain text through the text pipeline, HTML through the HTML
// converter, single images and zip archives as galleries. An empty title
// defaults to the file name without its extension.
func (p *Publisher) Publish(ctx context.Context, path, title string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if info.Size() > maxInputSize {
		return "", fmt.Errorf("%w: %s is %d bytes, maximum %d",
			ErrFileTooLarge, filepath.Base(path), info.Size(), maxInputSize)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case markdownExtensions[ext] || plainExtensions[ext]:
		content, err := os.ReadFile(path) // #nosec G304 -- input path is user-provided
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		markdown := markdownExtensions[ext] || convert.DetectMarkdown(string(content))
		return p.publishContent(ctx, string(content), title, markdown, filepath.Dir(path))

	case htmlExtensions[ext]:
		content, err := os.ReadFile(path) // #nosec G304 -- input path is user-provided
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return p.publishHTML(ctx, string(content), title, filepath.Dir(path))

	case imageutil.IsImage(path):
		digest, err := dedupe.FingerprintFile(path, title)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", filepath.Base(path), err)
		}
		return p.publishImageFiles(ctx, []string{path}, title, digest)

	case ext == ".zip":
		return p.publishArchive(ctx, path, title)

	default:
		return "", fmt.Errorf("%w: %q (supported: .md .markdown .txt .text .rst .html .htm .jpg .jpeg .png .gif .webp .bmp .zip)",
			ErrUnsupportedFormat, ext)
	}
}

// Close releases the dedupe cache.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache != nil {
		err := p.cache.Close()
		p.cache = nil
		p.dedupeOn = false
		return err
	}
	if p.cacheStore != nil {
		return p.cacheStore.Close()
	}
	return nil
}

// service returns the page API, connecting lazily on first use so a cache
// hit never touches the network.
func (p *Publisher) service(ctx context.Context) (PageService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pages != nil {
		return p.pages, nil
	}

	store := p.tokenStore
	if store == nil {
		if path, err := telegraph.DefaultTokenPath(); err == nil {
			store = telegraph.FileTokenStore{Path: path}
		}
	}
	client, err := telegraph.Connect(ctx, p.token, p.shortName, store)
	if err != nil {
		return nil, err
	}
	p.pages = telegraphService{client}
	return p.pages, nil
}

// telegraphService adapts the API client to the PageService interface.
type telegraphService struct {
	c *telegraph.Client
}

func (s telegraphService) CreatePage(ctx context.Context, title string, content json.RawMessage) (Page, error) {
	pg, err := s.c.CreatePage(ctx, title, content)
	return Page(pg), err
}

func (s telegraphService) EditPage(ctx context.Context, path, title string, content json.RawMessage) (Page, error) {
	pg, err := s.c.EditPage(ctx, path, title, content)
	return Page(pg), err
}

// cacheHandle opens the dedupe cache lazily. A cache that cannot be opened
// disables deduplication for the rest of the run with a warning; publishing
// still works, it just cannot short-circuit duplicates.
func (p *Publisher) cacheHandle(ctx context.Context) *dedupe.Cache {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dedupeOn {
		return nil
	}
	if p.cache != nil {
		return p.cache
	}

	var store dedupe.Store
	if p.cacheStore != nil {
		store = p.cacheStore
	} else {
		path := p.cachePath
		if path == "" {
			var err error
			if path, err = defaultCachePath(); err != nil {
				p.logger.Warn("dedupe cache disabled", "error", err)
				p.dedupeOn = false
				return nil
			}
		}
		sq, err := dedupe.OpenSQLite(ctx, path)
		if err != nil {
			p.logger.Warn("dedupe cache disabled", "path", path, "error", err)
			p.dedupeOn = false
			return nil
		}
		store = sq
	}

	cache, err := dedupe.Open(ctx, store)
	if err != nil {
		p.logger.Warn("dedupe cache disabled", "error", err)
		_ = store.Close()
		p.dedupeOn = false
		return nil
	}
	p.cache = cache
	return cache
}

func defaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".telepress", "cache.db"), nil
}

// lookup returns the published URL recorded for digest, if any.
func (p *Publisher) lookup(ctx context.Context, digest string) (string, bool) {
	cache := p.cacheHandle(ctx)
	if cache == nil {
		return "", false
	}
	return cache.Lookup(digest)
}

// record remembers digest as published at url. Failures degrade to a
// warning: the publish already succeeded.
func (p *Publisher) record(ctx context.Context, digest, url string) {
	cache := p.cacheHandle(ctx)
	if cache == nil {
		return
	}
	if err := cache.Record(ctx, digest, url); err != nil {
		p.logger.Warn("recording fingerprint failed", "error", err)
	}
}

// uploader builds the image upload pipeline for one publish.
func (p *Publisher) uploader() *upload.Uploader {
	host := p.host
	if host == nil {
		host = imagehost.NewTelegraph()
	}
	opts := []upload.Option{
		upload.WithWorkers(p.workers),
		upload.WithAutoCompress(p.compress),
	}
	if p.sizeLimit > 0 {
		opts = append(opts, upload.WithMaxImageSize(p.sizeLimit))
	}
	if p.uploadRetries > 0 {
		opts = append(opts, upload.WithRetries(p.uploadRetries))
	}
	return upload.New(host, opts...)
}

// uploadProgress adapts the public progress callback to the pipeline's.
func (p *Publisher) uploadProgress() upload.Progress {
	if p.progress == nil {
		return nil
	}
	fn := p.progress
	return func(completed, total int, r upload.Result) {
		fn(completed, total, r.Path, r.Err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
