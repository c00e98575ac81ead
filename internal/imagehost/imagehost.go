// Package imagehost provides interchangeable strategies for moving local
// images onto a public URL: the page service's own file store, third-party
// hosting APIs, S3-compatible object storage, a generic HTTP endpoint, or
// the rclone binary for bulk transfers.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnknownHost indicates a host type absent from the registry.
var ErrUnknownHost = errors.New("unknown image host")

// uploadTimeout bounds one upload request end to end.
const uploadTimeout = 60 * time.Second

// Host uploads one local image and returns its public URL.
type Host interface {
	Name() string
	Upload(ctx context.Context, path string) (string, error)
}

// BatchHost is implemented by hosts that move an entire batch in one
// operation. On success the returned map holds a public URL for every input
// path; on error the whole batch failed.
type BatchHost interface {
	Host
	UploadBatch(ctx context.Context, paths []string) (map[string]string, error)
}

// Config selects and parameterizes a host. Which fields matter depends on
// Type; constructors reject configs missing their required fields.
type Config struct {
	Type string `yaml:"type"`

	// imgbb and sm.ms
	APIKey string `yaml:"api_key"`
	// imgur
	ClientID string `yaml:"client_id"`

	// s3-compatible object storage, including Cloudflare R2
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint_url"`

	// generic HTTP endpoint
	UploadURL       string            `yaml:"upload_url"`
	Method          string            `yaml:"method"`
	FileField       string            `yaml:"file_field"`
	Headers         map[string]string `yaml:"headers"`
	ResponseURLPath string            `yaml:"response_url_path"`
	ExtraData       map[string]string `yaml:"extra_data"`

	// rclone
	RemotePath string `yaml:"remote_path"`

	// PublicURL prefixes served objects for the s3 and rclone hosts.
	PublicURL string `yaml:"public_url"`
}

// New builds the host selected by cfg.Type. An empty type selects the page
// service's own file store.
func New(cfg Config) (Host, error) {
	switch cfg.Type {
	case "", "telegraph":
		return NewTelegraph(), nil
	case "imgbb":
		return NewImgbb(cfg.APIKey)
	case "imgur":
		return NewImgur(cfg.ClientID)
	case "smms":
		return NewSmms(cfg.APIKey)
	case "r2", "s3":
		return NewS3(cfg)
	case "custom":
		return NewCustom(cfg)
	case "rclone":
		return NewRclone(cfg.RemotePath, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownHost, cfg.Type, strings.Join(Types(), ", "))
	}
}

// Types lists the selectable host types.
func Types() []string {
	return []string{"telegraph", "imgbb", "imgur", "smms", "r2", "s3", "custom", "rclone"}
}

func newClient() *http.Client {
	return &http.Client{Timeout: uploadTimeout}
}

// multipartFile builds a multipart body carrying the file under field plus
// any extra form values.
func multipartFile(field, path string, extra map[string]string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	for k, v := range extra {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// snippet returns at most n bytes of a response body for error messages.
func snippet(r io.Reader, n int) string {
	data, _ := io.ReadAll(io.LimitReader(r, int64(n)))
	return strings.TrimSpace(string(data))
}
