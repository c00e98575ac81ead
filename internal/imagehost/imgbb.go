package imagehost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// ImgbbHost uploads to imgbb.com, which takes base64-encoded form data.
type ImgbbHost struct {
	apiKey string
	apiURL string
	client *http.Client
}

var _ Host = (*ImgbbHost)(nil)

// NewImgbb creates an imgbb host. An API key is mandatory.
func NewImgbb(apiKey string) (*ImgbbHost, error) {
	if apiKey == "" {
		return nil, errors.New("imgbb requires an API key, see https://api.imgbb.com/")
	}
	return &ImgbbHost{
		apiKey: apiKey,
		apiURL: "https://api.imgbb.com/1/upload",
		client: newClient(),
	}, nil
}

func (h *ImgbbHost) Name() string { return "imgbb" }

func (h *ImgbbHost) Upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("imgbb: %w", err)
	}

	form := url.Values{}
	form.Set("key", h.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("imgbb: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("imgbb: status %d: %s", resp.StatusCode, snippet(resp.Body, 100))
	}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imgbb: decode response: %w", err)
	}
	if !out.Success {
		msg := out.Error.Message
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("imgbb: %s", msg)
	}
	return out.Data.URL, nil
}
