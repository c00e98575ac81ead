package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// CustomHost adapts any HTTP upload API: a multipart POST with configurable
// file field, extra form values and headers, and the resulting URL extracted
// from the JSON response by a dot-notation path such as "data.url" or
// "files.0.url".
type CustomHost struct {
	uploadURL string
	fileField string
	urlPath   string
	headers   map[string]string
	extra     map[string]string
	client    *http.Client
}

var _ Host = (*CustomHost)(nil)

// NewCustom creates a generic HTTP host from cfg. Only POST is supported;
// anything else is rejected here rather than failing on first upload.
func NewCustom(cfg Config) (*CustomHost, error) {
	if cfg.UploadURL == "" {
		return nil, errors.New("custom host requires upload_url")
	}
	if m := strings.ToUpper(cfg.Method); m != "" && m != http.MethodPost {
		return nil, fmt.Errorf("custom host supports POST only, got %s", m)
	}

	fileField := cfg.FileField
	if fileField == "" {
		fileField = "file"
	}
	urlPath := cfg.ResponseURLPath
	if urlPath == "" {
		urlPath = "url"
	}

	return &CustomHost{
		uploadURL: cfg.UploadURL,
		fileField: fileField,
		urlPath:   urlPath,
		headers:   cfg.Headers,
		extra:     cfg.ExtraData,
		client:    newClient(),
	}, nil
}

func (h *CustomHost) Name() string { return "custom" }

func (h *CustomHost) Upload(ctx context.Context, path string) (string, error) {
	body, contentType, err := multipartFile(h.fileField, path, h.extra)
	if err != nil {
		return "", fmt.Errorf("custom: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.uploadURL, body)
	if err != nil {
		return "", fmt.Errorf("custom: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("custom: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("custom: status %d: %s", resp.StatusCode, snippet(resp.Body, 200))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("custom: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("custom: invalid JSON response: %s", snippet(strings.NewReader(string(data)), 200))
	}

	result := gjson.GetBytes(data, h.urlPath)
	if !result.Exists() || result.String() == "" {
		return "", fmt.Errorf("custom: path %q not found in response", h.urlPath)
	}
	return result.String(), nil
}
