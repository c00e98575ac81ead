package imagehost

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Host stores images in S3-compatible object storage, including
// Cloudflare R2, and serves them from a public bucket URL. Objects get
// random hex keys so repeated uploads never clobber each other.
type S3Host struct {
	name      string
	bucket    string
	publicURL string

	// put stores one local file under a key. Swappable in tests.
	put func(ctx context.Context, bucket, key, path, contentType string) error
}

var _ Host = (*S3Host)(nil)

// NewS3 creates an object-storage host. The endpoint is either given
// directly or derived from a Cloudflare account ID.
func NewS3(cfg Config) (*S3Host, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" || cfg.PublicURL == "" {
		return nil, errors.New("s3 requires access_key_id, secret_access_key, bucket, and public_url")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if endpoint == "" {
		return nil, errors.New("s3 requires endpoint_url or account_id")
	}

	secure := !strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}

	name := cfg.Type
	if name == "" {
		name = "s3"
	}
	return &S3Host{
		name:      name,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		put: func(ctx context.Context, bucket, key, path, contentType string) error {
			_, err := client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
			return err
		},
	}, nil
}

func (h *S3Host) Name() string { return h.name }

func (h *S3Host) Upload(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("s3: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".jpg"
	}
	id := uuid.New()
	key := hex.EncodeToString(id[:]) + ext

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := h.put(ctx, h.bucket, key, path, contentType); err != nil {
		return "", fmt.Errorf("s3: upload %s: %w", path, err)
	}
	return h.publicURL + "/" + key, nil
}
