package imagehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SmmsHost uploads to sm.ms. The API reports an already-seen image as a
// failure with code image_repeated while still carrying the existing URL,
// which is treated as success here.
type SmmsHost struct {
	token  string
	apiURL string
	client *http.Client
}

var _ Host = (*SmmsHost)(nil)

// NewSmms creates a sm.ms host. An API token is mandatory.
func NewSmms(token string) (*SmmsHost, error) {
	if token == "" {
		return nil, errors.New("sm.ms requires an API token, see https://sm.ms/home/apitoken")
	}
	return &SmmsHost{
		token:  token,
		apiURL: "https://sm.ms/api/v2/upload",
		client: newClient(),
	}, nil
}

func (h *SmmsHost) Name() string { return "smms" }

func (h *SmmsHost) Upload(ctx context.Context, path string) (string, error) {
	body, contentType, err := multipartFile("smfile", path, nil)
	if err != nil {
		return "", fmt.Errorf("smms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, body)
	if err != nil {
		return "", fmt.Errorf("smms: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", h.token)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("smms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("smms: status %d", resp.StatusCode)
	}

	var out struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Images  string `json:"images"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("smms: decode response: %w", err)
	}
	if !out.Success {
		if out.Code == "image_repeated" {
			if out.Images != "" {
				return out.Images, nil
			}
			return out.Data.URL, nil
		}
		msg := out.Message
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("smms: %s", msg)
	}
	return out.Data.URL, nil
}
