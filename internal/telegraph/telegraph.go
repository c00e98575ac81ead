// Package telegraph is a minimal client for the telegra.ph HTTP API:
// account creation, page creation and page edits, with API error codes
// mapped onto a small sentinel taxonomy.
package telegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.telegra.ph"

const requestTimeout = 30 * time.Second

// Page identifies a created or edited page.
type Page struct {
	Path  string `json:"path"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Client calls the page service API with a fixed access token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client. An empty token is only usable for
// CreateAccount.
func NewClient(token string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// CreatePage publishes content under title and returns the new page.
// Content is a JSON-encoded node array.
func (c *Client) CreatePage(ctx context.Context, title string, content json.RawMessage) (Page, error) {
	req := struct {
		AccessToken string          `json:"access_token"`
		Title       string          `json:"title"`
		Content     json.RawMessage `json:"content"`
	}{c.token, title, content}

	var page Page
	if err := c.call(ctx, "createPage", req, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// EditPage replaces the title and content of an existing page.
func (c *Client) EditPage(ctx context.Context, path, title string, content json.RawMessage) (Page, error) {
	req := struct {
		AccessToken string          `json:"access_token"`
		Path        string          `json:"path"`
		Title       string          `json:"title"`
		Content     json.RawMessage `json:"content"`
	}{c.token, path, title, content}

	var page Page
	if err := c.call(ctx, "editPage", req, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// CreateAccount registers a new account and returns its access token.
func (c *Client) CreateAccount(ctx context.Context, shortName, authorName string) (string, error) {
	req := struct {
		ShortName  string `json:"short_name"`
		AuthorName string `json:"author_name,omitempty"`
	}{shortName, authorName}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.call(ctx, "createAccount", req, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// AccountInfo fetches the account's short name, which doubles as a token
// validity check.
func (c *Client) AccountInfo(ctx context.Context) (string, error) {
	req := struct {
		AccessToken string   `json:"access_token"`
		Fields      []string `json:"fields"`
	}{c.token, []string{"short_name"}}

	var result struct {
		ShortName string `json:"short_name"`
	}
	if err := c.call(ctx, "getAccountInfo", req, &result); err != nil {
		return "", err
	}
	return result.ShortName, nil
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding %s request: %v", ErrRemote, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRemote, method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %v", ErrRemote, method, err)
	}

	var env struct {
		OK     bool            `json:"ok"`
		Error  string          `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %s: status %d: %v", ErrRemote, method, resp.StatusCode, err)
	}
	if !env.OK {
		return newAPIError(env.Error)
	}
	if result != nil {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("%w: decoding %s result: %v", ErrRemote, method, err)
		}
	}
	return nil
}
