// Package imageutil re-encodes oversized images to fit under the per-image
// upload ceiling of the page service.
package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp decoding
)

// ErrCompression indicates an image could not be reduced under the size
// limit, or could not be processed at all.
var ErrCompression = errors.New("image compression failed")

// DefaultMaxSize is the page service's per-image upload ceiling.
const DefaultMaxSize = 5 << 20

const (
	minQuality = 30
	minScale   = 30 // percent
)

// ImageExtensions are the file extensions accepted as images.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// IsImage reports whether path has a recognized image extension.
func IsImage(path string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(path))]
}

// skipCompression lists formats that cannot be re-encoded safely. GIFs may
// be animated and a JPEG re-encode would keep only one frame.
var skipCompression = map[string]bool{".gif": true}

// Compressor shrinks images over MaxSize by re-encoding as JPEG: first
// walking down quality at full resolution, then scaling down progressively
// with a coarser quality ladder at each step.
type Compressor struct {
	MaxSize int64

	// encode serializes an image at a JPEG quality level. Swappable in
	// tests to exercise the ladders without real encoding work.
	encode func(img image.Image, quality int) ([]byte, error)
}

// NewCompressor creates a Compressor for the given byte ceiling; zero or
// negative means DefaultMaxSize.
func NewCompressor(maxSize int64) *Compressor {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Compressor{MaxSize: maxSize, encode: jpegEncode}
}

// Compress returns a path to a version of the image no larger than MaxSize.
// Files already under the limit are returned as-is with compressed false;
// otherwise the result is a temporary JPEG the caller removes when done.
func (c *Compressor) Compress(path string) (out string, compressed bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if info.Size() <= c.MaxSize {
		return path, false, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if skipCompression[ext] {
		return "", false, fmt.Errorf("%w: %s may be animated, refusing to re-encode %s",
			ErrCompression, ext, path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("%w: decode %s: %v", ErrCompression, path, err)
	}
	flat := flatten(img)

	// Quality-only pass keeps full resolution when possible.
	data, err := c.qualityPass(flat, 95, 5)
	if err != nil {
		return "", false, err
	}
	if data != nil {
		return save(data)
	}

	// Scale down progressively, always from the original dimensions.
	bounds := flat.Bounds()
	for pct := 90; pct >= minScale; pct -= 10 {
		w := bounds.Dx() * pct / 100
		h := bounds.Dy() * pct / 100
		scaled := imaging.Resize(flat, w, h, imaging.Lanczos)

		data, err := c.qualityPass(scaled, 85, 10)
		if err != nil {
			return "", false, err
		}
		if data != nil {
			return save(data)
		}
	}

	return "", false, fmt.Errorf("%w: cannot fit %s (%d bytes, %dx%d) under %d bytes",
		ErrCompression, path, info.Size(), bounds.Dx(), bounds.Dy(), c.MaxSize)
}

// qualityPass encodes at decreasing quality until the result fits MaxSize.
// A nil, nil return means nothing fit at this resolution.
func (c *Compressor) qualityPass(img image.Image, start, step int) ([]byte, error) {
	for q := start; q >= minQuality; q -= step {
		data, err := c.encode(img, q)
		if err != nil {
			return nil, fmt.Errorf("%w: encode: %v", ErrCompression, err)
		}
		if int64(len(data)) <= c.MaxSize {
			return data, nil
		}
	}
	return nil, nil
}

// flatten composites the image onto a white background so transparency
// survives the JPEG re-encode.
func flatten(img image.Image) image.Image {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func jpegEncode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func save(data []byte) (string, bool, error) {
	f, err := os.CreateTemp("", "telepress-*.jpg")
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", false, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", false, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	return f.Name(), true, nil
}
