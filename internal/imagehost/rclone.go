package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RcloneHost ships whole batches through the rclone binary: files are staged
// into a temporary directory and transferred with a single `rclone copy`,
// which beats per-file HTTP uploads by a wide margin for large galleries.
type RcloneHost struct {
	remotePath string
	publicURL  string

	// run invokes the rclone binary. Swappable in tests.
	run func(ctx context.Context, args ...string) error
}

var _ BatchHost = (*RcloneHost)(nil)

// NewRclone creates an rclone host. The binary must be on PATH.
func NewRclone(remotePath, publicURL string) (*RcloneHost, error) {
	if remotePath == "" || publicURL == "" {
		return nil, errors.New("rclone requires remote_path and public_url")
	}
	if _, err := exec.LookPath("rclone"); err != nil {
		return nil, fmt.Errorf("rclone executable not found in PATH: %w", err)
	}
	return &RcloneHost{
		remotePath: remotePath,
		publicURL:  strings.TrimRight(publicURL, "/"),
		run:        runRclone,
	}, nil
}

func (h *RcloneHost) Name() string { return "rclone" }

// Upload ships a single file through the batch path.
func (h *RcloneHost) Upload(ctx context.Context, path string) (string, error) {
	urls, err := h.UploadBatch(ctx, []string{path})
	if err != nil {
		return "", err
	}
	return urls[path], nil
}

// UploadBatch copies all files in one rclone invocation. Files are staged
// under unique names first so two inputs sharing a base name cannot clobber
// each other remotely.
func (h *RcloneHost) UploadBatch(ctx context.Context, paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		return map[string]string{}, nil
	}

	staging, err := os.MkdirTemp("", "telepress-rclone-")
	if err != nil {
		return nil, fmt.Errorf("rclone: %w", err)
	}
	defer os.RemoveAll(staging)

	staged := make(map[string]string, len(paths))
	taken := make(map[string]bool, len(paths))
	for i, path := range paths {
		name := filepath.Base(path)
		if taken[name] {
			name = fmt.Sprintf("%d-%s", i, name)
		}
		taken[name] = true
		if err := stage(path, filepath.Join(staging, name)); err != nil {
			return nil, fmt.Errorf("rclone: stage %s: %w", path, err)
		}
		staged[path] = name
	}

	if err := h.run(ctx, "copy", staging, h.remotePath); err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(staged))
	for path, name := range staged {
		urls[path] = h.publicURL + "/" + name
	}
	return urls, nil
}

func runRclone(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "rclone", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("rclone: %s: %w", msg, err)
		}
		return fmt.Errorf("rclone: %w", err)
	}
	return nil
}

// stage hardlinks into the staging directory when possible and falls back
// to copying.
func stage(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
