// Package archive unpacks image archives for gallery publishing, guarding
// against path traversal and decompression bombs.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-telepress/internal/imageutil"
	"github.com/alnah/go-telepress/internal/natsort"
)

// Extraction ceilings. Individual images far above the upload limit are
// rejected outright rather than extracted and compressed.
const (
	MaxEntrySize = 100 << 20 // one entry, decompressed
	MaxTotalSize = 2 << 30   // whole archive, decompressed
)

// Sentinel errors for archive handling.
var (
	ErrInvalidArchive  = errors.New("invalid zip archive")
	ErrUnsafePath      = errors.New("archive entry escapes extraction directory")
	ErrArchiveTooLarge = errors.New("archive contents exceed extraction limits")
)

// ExtractImages unpacks every image entry of the zip at zipPath into dir,
// preserving subdirectories, and returns the extracted paths in natural
// filename order. Non-image entries are skipped. An archive without images
// yields an empty list and no error.
func ExtractImages(zipPath, dir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer r.Close()

	var images []string
	var total uint64
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !imageutil.IsImage(f.Name) {
			continue
		}
		if f.UncompressedSize64 > MaxEntrySize {
			return nil, fmt.Errorf("%w: entry %s is %d bytes", ErrArchiveTooLarge, f.Name, f.UncompressedSize64)
		}
		total += f.UncompressedSize64
		if total > MaxTotalSize {
			return nil, fmt.Errorf("%w: decompressed size exceeds %d bytes", ErrArchiveTooLarge, int64(MaxTotalSize))
		}

		dst, err := safePath(dir, f.Name)
		if err != nil {
			return nil, err
		}
		if err := extractFile(f, dst); err != nil {
			return nil, err
		}
		images = append(images, dst)
	}

	natsort.SortPaths(images)
	return images, nil
}

// safePath joins name under dir and rejects entries that resolve outside it.
func safePath(dir, name string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absDst, err := filepath.Abs(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return "", err
	}
	if absDst != absDir && !strings.HasPrefix(absDst, absDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return absDst, nil
}

func extractFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	// The header sizes were already checked, but headers can lie; cap the
	// actual copy as well.
	n, err := io.Copy(out, io.LimitReader(in, MaxEntrySize+1))
	if err != nil {
		out.Close()
		return fmt.Errorf("%w: extracting %s: %v", ErrInvalidArchive, f.Name, err)
	}
	if n > MaxEntrySize {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: entry %s larger than declared", ErrArchiveTooLarge, f.Name)
	}
	return out.Close()
}
