package imageio

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Format is an output encoding for thumbnails
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat validates a configured thumbnail format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case PNG, WebP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported thumbnail format: %s", s)
	}
}

// Ext returns the file extension including the dot
func (f Format) Ext() string {
	return "." + string(f)
}

// Open decodes the image at path and normalizes it to non-premultiplied RGBA.
// The file handle is released before Open returns. With autoOrient the EXIF
// orientation tag is applied, which matches what browser-based annotation
// tools display.
func Open(path string, autoOrient bool) (*image.NRGBA, error) {
	img, err := load(path, autoOrient)
	if err != nil {
		return nil, err
	}
	return Normalize(img), nil
}

// Normalize converts any image to *image.NRGBA anchored at the origin
func Normalize(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

func load(path string, autoOrient bool) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	img, err := imaging.Open(path, imaging.AutoOrientation(autoOrient))
	if err == nil {
		return img, nil
	}
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	// Fallback: explicit WebP decode
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, ferr := os.Open(path)
		if ferr != nil {
			return nil, fmt.Errorf("failed to open image file: %w", ferr)
		}
		defer f.Close()

		if wimg, werr := webp.Decode(f); werr == nil {
			return wimg, nil
		}
	}
	return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
}

// Save writes img to path in the given format
func Save(img image.Image, path string, format Format) error {
	switch format {
	case WebP:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return f.Close()
	case PNG:
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save png: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported thumbnail format: %s", format)
	}
}
