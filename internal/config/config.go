// Package config loads telepress configuration from YAML (or JSON) files
// and TELEPRESS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alnah/go-telepress/internal/imagehost"
	"github.com/alnah/go-telepress/internal/paginate"
	"github.com/alnah/go-telepress/internal/yamlutil"
)

// EnvConfigPath names the environment variable pointing at a config file.
const EnvConfigPath = "TELEPRESS_CONFIG"

// Sentinel errors for config loading.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config is the on-disk configuration.
type Config struct {
	ImageHost ImageHostConfig `yaml:"image_host"`
	Limits    LimitsConfig    `yaml:"limits"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
}

// ImageHostConfig selects the upload strategy and tunes the upload
// pipeline around it.
type ImageHostConfig struct {
	imagehost.Config `yaml:",inline"`

	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxWorkers int `yaml:"max_workers"`
}

// LimitsConfig bounds pagination.
type LimitsConfig struct {
	PageByteBudget int `yaml:"page_byte_budget"`
	ImagesPerPage  int `yaml:"images_per_page"`
	MaxPages       int `yaml:"max_pages"`
	MaxImages      int `yaml:"max_images"`
}

// CacheConfig controls the dedup store.
type CacheConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// ServerConfig controls the REST façade.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			PageByteBudget: paginate.DefaultByteBudget,
			ImagesPerPage:  paginate.DefaultImagesPerPage,
			MaxPages:       paginate.DefaultMaxPages,
			MaxImages:      paginate.DefaultMaxImages,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// PaginateLimits converts the limits section for the paginator.
func (c *Config) PaginateLimits() paginate.Limits {
	return paginate.Limits{
		ByteBudget:    c.Limits.PageByteBudget,
		ImagesPerPage: c.Limits.ImagesPerPage,
		MaxPages:      c.Limits.MaxPages,
		MaxImages:     c.Limits.MaxImages,
	}
}

// DefaultCachePath returns ~/.telepress/cache.db.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".telepress", "cache.db"), nil
}

// Load reads configuration with this priority: the explicit path, then
// $TELEPRESS_CONFIG, then the first default location that exists. The
// TELEPRESS_* environment overlay is applied last and wins over file
// values. A missing explicit path is an error; missing defaults are not.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := path
	if resolved == "" {
		resolved = os.Getenv(EnvConfigPath)
	}
	if resolved == "" {
		resolved = firstExisting(DefaultPaths())
	}

	if resolved != "" {
		if err := yamlutil.DecodeFileStrict(resolved, cfg); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, resolved)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, resolved, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// DefaultPaths lists the config locations probed when nothing explicit is
// given, in priority order.
func DefaultPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".telepress.yaml"),
		filepath.Join(home, ".telepress.yml"),
		filepath.Join(home, ".telepress.json"),
		filepath.Join(home, ".config", "telepress", "config.yaml"),
	}
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// applyEnv overlays TELEPRESS_* variables onto cfg. Unset variables leave
// the existing value alone.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("TELEPRESS_IMAGE_HOST_TYPE", &cfg.ImageHost.Type)
	setString("TELEPRESS_IMAGE_HOST_API_KEY", &cfg.ImageHost.APIKey)
	setString("TELEPRESS_IMAGE_HOST_CLIENT_ID", &cfg.ImageHost.ClientID)
	setString("TELEPRESS_IMAGE_HOST_ACCOUNT_ID", &cfg.ImageHost.AccountID)
	setString("TELEPRESS_IMAGE_HOST_ACCESS_KEY_ID", &cfg.ImageHost.AccessKeyID)
	setString("TELEPRESS_IMAGE_HOST_SECRET_ACCESS_KEY", &cfg.ImageHost.SecretAccessKey)
	setString("TELEPRESS_IMAGE_HOST_BUCKET", &cfg.ImageHost.Bucket)
	setString("TELEPRESS_IMAGE_HOST_ENDPOINT_URL", &cfg.ImageHost.Endpoint)
	setString("TELEPRESS_IMAGE_HOST_UPLOAD_URL", &cfg.ImageHost.UploadURL)
	setString("TELEPRESS_IMAGE_HOST_FILE_FIELD", &cfg.ImageHost.FileField)
	setString("TELEPRESS_IMAGE_HOST_RESPONSE_URL_PATH", &cfg.ImageHost.ResponseURLPath)
	setString("TELEPRESS_IMAGE_HOST_REMOTE_PATH", &cfg.ImageHost.RemotePath)
	setString("TELEPRESS_IMAGE_HOST_PUBLIC_URL", &cfg.ImageHost.PublicURL)
	setInt("TELEPRESS_IMAGE_HOST_MAX_SIZE_MB", &cfg.ImageHost.MaxSizeMB)
	setInt("TELEPRESS_IMAGE_HOST_MAX_WORKERS", &cfg.ImageHost.MaxWorkers)

	setString("TELEPRESS_CACHE_PATH", &cfg.Cache.Path)
	setBool("TELEPRESS_CACHE_DISABLED", &cfg.Cache.Disabled)

	setString("TELEPRESS_SERVER_ADDR", &cfg.Server.Addr)
}
