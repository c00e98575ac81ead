package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	telepress "github.com/alnah/go-telepress"
	"github.com/alnah/go-telepress/internal/config"
	"github.com/alnah/go-telepress/internal/imagehost"
	"github.com/alnah/go-telepress/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("telepress-server", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (overrides config)")
	cfgPath := fs.StringP("config", "c", "", "config file path")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *version {
		fmt.Printf("telepress-server %s\n", Version)
		return 0
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("loading config failed", "err", err)
		return 2
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	srv := server.New(publisherFactory(cfg, logger), logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
		return 1
	}
	logger.Info("server stopped")
	return 0
}

// publisherFactory builds one publisher per request. Requests share the
// configured host, limits, and cache file; a request token overrides the
// persisted one.
func publisherFactory(cfg *config.Config, logger *slog.Logger) server.Factory {
	return func(token string) (server.Publisher, error) {
		host, err := imagehost.New(cfg.ImageHost.Config)
		if err != nil {
			return nil, err
		}

		opts := []telepress.Option{
			telepress.WithLogger(logger),
			telepress.WithImageHost(host),
			telepress.WithPageByteBudget(cfg.Limits.PageByteBudget),
			telepress.WithImagesPerPage(cfg.Limits.ImagesPerPage),
			telepress.WithMaxPages(cfg.Limits.MaxPages),
			telepress.WithMaxImages(cfg.Limits.MaxImages),
		}
		if cfg.ImageHost.MaxWorkers > 0 {
			opts = append(opts, telepress.WithWorkers(cfg.ImageHost.MaxWorkers))
		}
		if cfg.ImageHost.MaxSizeMB > 0 {
			opts = append(opts, telepress.WithImageSizeLimit(int64(cfg.ImageHost.MaxSizeMB)<<20))
		}
		if cfg.Cache.Disabled {
			opts = append(opts, telepress.WithSkipDuplicate(false))
		}
		if cfg.Cache.Path != "" {
			opts = append(opts, telepress.WithCachePath(cfg.Cache.Path))
		}
		if token != "" {
			opts = append(opts, telepress.WithToken(token))
		}
		return telepress.New(opts...), nil
	}
}
