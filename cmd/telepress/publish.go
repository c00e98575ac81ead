package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	telepress "github.com/alnah/go-telepress"
	"github.com/alnah/go-telepress/internal/config"
	"github.com/alnah/go-telepress/internal/imagehost"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput       = errors.New("no input file specified")
	ErrTooManyInputs = errors.New("expected exactly one input file")
)

// runPublish loads configuration, builds the publisher, and publishes the
// single positional input.
func runPublish(ctx context.Context, positional []string, flags *publishFlags, env *Environment) error {
	if len(positional) == 0 {
		return ErrNoInput
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w, got %d", ErrTooManyInputs, len(positional))
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	mergeFlags(flags, cfg)

	opts, err := publisherOptions(flags, cfg, env)
	if err != nil {
		return err
	}

	pub := env.NewPublisher(opts...)
	defer pub.Close()

	url, err := pub.Publish(ctx, positional[0], flags.title)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, url)
	return nil
}

// mergeFlags overlays explicit CLI flags onto the loaded config. CLI wins.
func mergeFlags(flags *publishFlags, cfg *config.Config) {
	if flags.host != "" {
		cfg.ImageHost.Type = flags.host
	}
	if flags.workers > 0 {
		cfg.ImageHost.MaxWorkers = flags.workers
	}
	if flags.sizeLimit > 0 {
		cfg.ImageHost.MaxSizeMB = flags.sizeLimit
	}
	if flags.noDedupe {
		cfg.Cache.Disabled = true
	}
}

// publisherOptions translates the merged config into publisher options.
func publisherOptions(flags *publishFlags, cfg *config.Config, env *Environment) ([]telepress.Option, error) {
	host, err := imagehost.New(cfg.ImageHost.Config)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.DiscardHandler)
	if flags.verbose {
		logger = slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	opts := []telepress.Option{
		telepress.WithLogger(logger),
		telepress.WithImageHost(host),
		telepress.WithPageByteBudget(cfg.Limits.PageByteBudget),
		telepress.WithImagesPerPage(cfg.Limits.ImagesPerPage),
		telepress.WithMaxPages(cfg.Limits.MaxPages),
		telepress.WithMaxImages(cfg.Limits.MaxImages),
	}
	if flags.token != "" {
		opts = append(opts, telepress.WithToken(flags.token))
	}
	if cfg.ImageHost.MaxWorkers > 0 {
		opts = append(opts, telepress.WithWorkers(cfg.ImageHost.MaxWorkers))
	}
	if cfg.ImageHost.MaxSizeMB > 0 {
		opts = append(opts, telepress.WithImageSizeLimit(int64(cfg.ImageHost.MaxSizeMB)<<20))
	}
	if flags.noCompress {
		opts = append(opts, telepress.WithAutoCompress(false))
	}
	if cfg.Cache.Disabled {
		opts = append(opts, telepress.WithSkipDuplicate(false))
	}
	if cfg.Cache.Path != "" {
		opts = append(opts, telepress.WithCachePath(cfg.Cache.Path))
	}
	if !flags.quiet {
		opts = append(opts, telepress.WithUploadProgress(uploadProgress(env.Stderr)))
	}
	return opts, nil
}

// uploadProgress renders a progress bar for batch uploads. The bar is
// created on the first callback, once the batch size is known.
func uploadProgress(w io.Writer) telepress.UploadProgress {
	var bar *progressbar.ProgressBar
	return func(completed, total int, path string, uploadErr error) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("uploading images"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Add(1)
		if uploadErr != nil {
			fmt.Fprintf(w, "upload failed: %s: %v\n", filepath.Base(path), uploadErr)
		}
	}
}
