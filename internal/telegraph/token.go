package telegraph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultShortName is used when creating accounts without an explicit name.
const DefaultShortName = "telepress"

// TokenStore persists the account access token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

// FileTokenStore keeps the token in a single file, created with owner-only
// permissions.
type FileTokenStore struct {
	Path string
}

var _ TokenStore = FileTokenStore{}

// DefaultTokenPath returns ~/.telepress/token.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".telepress", "token"), nil
}

func (s FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Connect returns an authenticated client. Token priority: an explicit
// token wins, then a stored token that still verifies, then a freshly
// created account whose token is persisted through store.
func Connect(ctx context.Context, token, shortName string, store TokenStore) (*Client, error) {
	c := NewClient("")
	if err := c.connect(ctx, token, shortName, store); err != nil {
		return nil, err
	}
	return c, nil
}

// connect resolves the access token in place.
func (c *Client) connect(ctx context.Context, token, shortName string, store TokenStore) error {
	if token != "" {
		c.token = token
		return nil
	}
	if store != nil {
		if stored, err := store.Load(); err == nil && stored != "" {
			c.token = stored
			if _, err := c.AccountInfo(ctx); err == nil {
				return nil
			}
		}
	}

	if shortName == "" {
		shortName = DefaultShortName
	}
	c.token = ""
	tok, err := c.CreateAccount(ctx, shortName, "")
	if err != nil {
		return fmt.Errorf("%w: creating account: %v", ErrAuth, err)
	}
	c.token = tok
	if store != nil {
		if err := store.Save(tok); err != nil {
			return fmt.Errorf("%w: saving new token: %v", ErrAuth, err)
		}
	}
	return nil
}
