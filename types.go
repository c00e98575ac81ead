package telepress

import (
	"context"
	"encoding/json"
)

// Page identifies one published page.
type Page struct {
	Path  string
	URL   string
	Title string
}

// PageService is the remote page API the publisher drives. Content is a
// JSON-encoded node array in the service's wire format.
type PageService interface {
	CreatePage(ctx context.Context, title string, content json.RawMessage) (Page, error)
	EditPage(ctx context.Context, path, title string, content json.RawMessage) (Page, error)
}

// TokenStore persists the page service access token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

// ImageHost uploads one local image and returns its public URL.
type ImageHost interface {
	Name() string
	Upload(ctx context.Context, path string) (string, error)
}

// CacheStore persists content fingerprints between runs.
type CacheStore interface {
	Load(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, digest, url string) error
	Close() error
}

// UploadProgress receives batch-upload progress after each image reaches a
// terminal state. Calls are serialized even though uploads run in parallel.
type UploadProgress func(completed, total int, path string, uploadErr error)
