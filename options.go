package telepress

import "log/slog"

// Option configures a Publisher.
type Option func(*Publisher)

// WithToken uses an explicit page service access token, bypassing the
// token store.
func WithToken(token string) Option {
	return func(p *Publisher) { p.token = token }
}

// WithShortName sets the account short name used when a fresh account must
// be created.
func WithShortName(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.shortName = name
		}
	}
}

// WithTokenStore replaces where the access token is persisted between
// runs. The default store keeps it under the user's home directory.
func WithTokenStore(s TokenStore) Option {
	return func(p *Publisher) { p.tokenStore = s }
}

// WithPageService replaces the remote page API client.
func WithPageService(s PageService) Option {
	return func(p *Publisher) { p.pages = s }
}

// WithImageHost selects where referenced and gallery images are uploaded.
// The default host is the page service's own file store.
func WithImageHost(h ImageHost) Option {
	return func(p *Publisher) { p.host = h }
}

// WithCacheStore replaces the dedupe cache persistence.
func WithCacheStore(s CacheStore) Option {
	return func(p *Publisher) { p.cacheStore = s }
}

// WithCachePath relocates the default SQLite dedupe cache.
func WithCachePath(path string) Option {
	return func(p *Publisher) { p.cachePath = path }
}

// WithSkipDuplicate controls whether previously published content
// short-circuits to its existing URL. Enabled by default.
func WithSkipDuplicate(skip bool) Option {
	return func(p *Publisher) { p.dedupeOn = skip }
}

// WithLogger routes pipeline logging. The default logger discards
// everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPageByteBudget bounds the serialized content size of one page.
// Values below one select the default.
func WithPageByteBudget(n int) Option {
	return func(p *Publisher) { p.limits.ByteBudget = n }
}

// WithImagesPerPage bounds the image count of one gallery page. Values
// below one select the default.
func WithImagesPerPage(n int) Option {
	return func(p *Publisher) { p.limits.ImagesPerPage = n }
}

// WithMaxPages bounds the page count of one publish. Values below one
// select the default.
func WithMaxPages(n int) Option {
	return func(p *Publisher) { p.limits.MaxPages = n }
}

// WithMaxImages bounds the total image count of one publish. Values below
// one select the default.
func WithMaxImages(n int) Option {
	return func(p *Publisher) { p.limits.MaxImages = n }
}

// WithImageSizeLimit sets the byte threshold above which images are
// re-encoded before upload.
func WithImageSizeLimit(n int64) Option {
	return func(p *Publisher) { p.sizeLimit = n }
}

// WithAutoCompress toggles pre-upload compression of oversized images.
// Enabled by default.
func WithAutoCompress(on bool) Option {
	return func(p *Publisher) { p.compress = on }
}

// WithWorkers bounds concurrent image uploads. Values below one select the
// default.
func WithWorkers(n int) Option {
	return func(p *Publisher) { p.workers = n }
}

// WithUploadProgress reports batch-upload progress, for rendering progress
// bars.
func WithUploadProgress(fn UploadProgress) Option {
	return func(p *Publisher) { p.progress = fn }
}
