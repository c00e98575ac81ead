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

// ImgurHost uploads to imgur.com using an application Client-ID.
type ImgurHost struct {
	clientID string
	apiURL   string
	client   *http.Client
}

var _ Host = (*ImgurHost)(nil)

// NewImgur creates an imgur host. A Client-ID is mandatory.
func NewImgur(clientID string) (*ImgurHost, error) {
	if clientID == "" {
		return nil, errors.New("imgur requires a Client-ID, see https://api.imgur.com/oauth2/addclient")
	}
	return &ImgurHost{
		clientID: clientID,
		apiURL:   "https://api.imgur.com/3/image",
		client:   newClient(),
	}, nil
}

func (h *ImgurHost) Name() string { return "imgur" }

func (h *ImgurHost) Upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("imgur: %w", err)
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))
	form.Set("type", "base64")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("imgur: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Client-ID "+h.clientID)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgur: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("imgur: status %d: %s", resp.StatusCode, snippet(resp.Body, 100))
	}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Link  string `json:"link"`
			Error string `json:"error"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imgur: decode response: %w", err)
	}
	if !out.Success {
		msg := out.Data.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("imgur: %s", msg)
	}
	return out.Data.Link, nil
}
