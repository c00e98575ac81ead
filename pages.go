package telepress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alnah/go-telepress/internal/paginate"
	"github.com/alnah/go-telepress/internal/telegraph"
)

// Retry and pacing for the create and link passes. Creation retries
// harder: a failed create loses the page, a failed link only degrades
// navigation.
const (
	createAttempts   = 5
	createRetryDelay = 2 * time.Second
	createPacing     = 500 * time.Millisecond

	linkAttempts   = 3
	linkRetryDelay = 1 * time.Second
	linkPacing     = 300 * time.Millisecond
)

// pageTitle numbers multi-part titles: "title (n/total)".
func pageTitle(title string, index, total int) string {
	if total <= 1 {
		return title
	}
	return fmt.Sprintf("%s (%d/%d)", title, index, total)
}

// publishPages runs the shared back half of every pipeline: navigation,
// create, link, record. The returned URL is the first page.
func (p *Publisher) publishPages(ctx context.Context, pages []paginate.Page, title, digest string) (string, error) {
	paginate.AddNavigation(pages)

	svc, err := p.service(ctx)
	if err != nil {
		return "", err
	}

	created, err := p.createPages(ctx, svc, title, pages)
	if err != nil {
		return "", err
	}
	p.linkPages(ctx, svc, title, pages, created)

	p.record(ctx, digest, created[0].URL)
	return created[0].URL, nil
}

// createPages publishes every page in order, pacing requests so a large
// publish does not trip flood control immediately.
func (p *Publisher) createPages(ctx context.Context, svc PageService, title string, pages []paginate.Page) ([]Page, error) {
	created := make([]Page, 0, len(pages))
	for i, page := range pages {
		if i > 0 {
			if err := p.sleep(ctx, createPacing); err != nil {
				return created, partialErr(created, len(pages), err)
			}
		}
		content, err := json.Marshal(page.Nodes)
		if err != nil {
			return created, partialErr(created, len(pages), fmt.Errorf("encoding page %d: %w", i+1, err))
		}
		pg, err := p.callWithRetry(ctx, createAttempts, createRetryDelay, func() (Page, error) {
			return svc.CreatePage(ctx, pageTitle(title, i+1, len(pages)), content)
		})
		if err != nil {
			return created, partialErr(created, len(pages), fmt.Errorf("creating page %d/%d: %w", i+1, len(pages), err))
		}
		p.logger.Info("page created", "page", i+1, "total", len(pages), "url", pg.URL)
		created = append(created, pg)
	}
	return created, nil
}

// partialErr annotates a mid-publish failure with what already exists
// remotely. Created pages are left in place: the remote API cannot delete
// pages, so the caller gets their location instead of a silent orphan.
func partialErr(created []Page, total int, err error) error {
	if len(created) == 0 {
		return err
	}
	return fmt.Errorf("%w (%d of %d pages already created, first at %s)",
		err, len(created), total, created[0].URL)
}

// linkPages patches placeholder navigation targets with the real page URLs
// and edits every page in a second pass. Linking is best-effort: a page
// that cannot be edited keeps placeholder navigation but stays readable,
// so failures log a warning instead of failing the publish.
func (p *Publisher) linkPages(ctx context.Context, svc PageService, title string, pages []paginate.Page, created []Page) {
	if len(created) <= 1 {
		return
	}
	urls := make([]string, len(created))
	for i, pg := range created {
		urls[i] = pg.URL
	}

	for i := range pages {
		if i > 0 {
			if err := p.sleep(ctx, linkPacing); err != nil {
				return
			}
		}
		paginate.PatchPlaceholders(pages[i].Nodes, urls)
		content, err := json.Marshal(pages[i].Nodes)
		if err != nil {
			p.logger.Warn("linking page failed", "page", i+1, "error", err)
			continue
		}
		path := created[i].Path
		_, err = p.callWithRetry(ctx, linkAttempts, linkRetryDelay, func() (Page, error) {
			return svc.EditPage(ctx, path, pageTitle(title, i+1, len(pages)), content)
		})
		if err != nil {
			p.logger.Warn("linking page failed", "page", i+1, "url", created[i].URL, "error", err)
		}
	}
}

// callWithRetry retries fn on rate-limit and transport failures, honoring
// the wait demanded by flood-control errors. Auth and content rejections
// fail immediately: repeating them cannot succeed.
func (p *Publisher) callWithRetry(ctx context.Context, attempts int, delay time.Duration, fn func() (Page, error)) (Page, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, retryWait(lastErr, delay)); err != nil {
				return Page{}, errors.Join(err, lastErr)
			}
		}
		pg, err := fn()
		if err == nil {
			return pg, nil
		}
		lastErr = err
		if errors.Is(err, telegraph.ErrAuth) || errors.Is(err, telegraph.ErrInvalidContent) {
			return Page{}, err
		}
		p.logger.Warn("page service call failed, retrying", "attempt", attempt+1, "error", err)
	}
	return Page{}, lastErr
}

// retryWait returns the flood-control wait plus a second of slack, or the
// fallback delay for other failures.
func retryWait(err error, fallback time.Duration) time.Duration {
	var apiErr *telegraph.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter + time.Second
	}
	return fallback
}
