package imagehost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TelegraphHost uploads straight to the page service's own file store.
type TelegraphHost struct {
	apiURL string
	base   string
	client *http.Client
}

var _ Host = (*TelegraphHost)(nil)

// NewTelegraph creates the default direct-upload host.
func NewTelegraph() *TelegraphHost {
	return &TelegraphHost{
		apiURL: "https://telegra.ph/upload",
		base:   "https://telegra.ph",
		client: newClient(),
	}
}

func (h *TelegraphHost) Name() string { return "telegraph" }

func (h *TelegraphHost) Upload(ctx context.Context, path string) (string, error) {
	body, contentType, err := multipartFile("file", path, nil)
	if err != nil {
		return "", fmt.Errorf("telegraph: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, body)
	if err != nil {
		return "", fmt.Errorf("telegraph: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegraph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegraph: status %d: %s", resp.StatusCode, snippet(resp.Body, 100))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("telegraph: %w", err)
	}

	// Success is an array of file records; failures come back as an object
	// with an error field.
	var files []struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(data, &files); err != nil {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("telegraph: %s", apiErr.Error)
		}
		return "", fmt.Errorf("telegraph: unexpected response: %s", snippet(strings.NewReader(string(data)), 100))
	}
	if len(files) == 0 || files[0].Src == "" {
		return "", fmt.Errorf("telegraph: empty upload response")
	}
	return h.base + files[0].Src, nil
}
