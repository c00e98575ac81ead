// Package telepress publishes Markdown, plain text, HTML, images and zip
// archives of images as Telegraph pages.
//
// # Quick Start
//
// Create a publisher and publish a file:
//
//	pub := telepress.New(telepress.WithToken(token))
//	defer pub.Close()
//
//	url, err := pub.Publish(ctx, "article.md", "My Article")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(url)
//
// Without WithToken the publisher loads a stored token from
// ~/.telepress/token, verifying it against the service, and creates a fresh
// account on first use.
//
// # Pipeline
//
// A publish runs these stages:
//
//  1. Fingerprint the input; a previously published fingerprint returns the
//     existing URL without touching the network.
//  2. Convert to the page service's node format (goldmark for Markdown,
//     goquery for HTML, paragraph splitting for plain text).
//  3. Paginate under the per-page byte budget and append navigation links.
//  4. Upload referenced local images through the configured image host,
//     compressing oversized ones.
//  5. Create the pages in order, then patch navigation with the real URLs
//     in a second editing pass.
//
// # Configuration
//
// Use functional options to customize the publisher:
//
//	pub := telepress.New(
//	    telepress.WithImageHost(host),
//	    telepress.WithPageByteBudget(8000),
//	    telepress.WithWorkers(8),
//	    telepress.WithLogger(slog.Default()),
//	)
//
// Image hosts range from the page service's own file store (the default)
// to imgbb, imgur, sm.ms, S3-compatible object storage, a configurable
// HTTP endpoint, and rclone for bulk transfers.
//
// # Deduplication
//
// Publishing the same content under the same title twice returns the URL
// of the first publish. Fingerprints persist in a SQLite cache under
// ~/.telepress by default; WithCachePath relocates it and
// WithSkipDuplicate(false) disables the check.
package telepress
