package extract

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/snipper/pkg/geometry"
	"github.com/menta2k/snipper/pkg/imageio"
	"github.com/menta2k/snipper/pkg/types"
)

var (
	// ErrOutOfBounds is returned when a masked pixel lies outside the source image
	ErrOutOfBounds = errors.New("bounding box exceeds image extent")

	// ErrEmptyRegion is returned for a bounding box with zero width or height
	ErrEmptyRegion = errors.New("empty bounding box")
)

// OutOfBoundsError carries the offending bounding box. It usually means the
// reference image was rotated or re-saved without its orientation metadata.
type OutOfBoundsError struct {
	BBox   types.BBox
	Point  image.Point
	Bounds image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%v: bbox %s reaches pixel %v outside image %dx%d (check orientation metadata)",
		ErrOutOfBounds, e.BBox, e.Point, e.Bounds.Dx(), e.Bounds.Dy())
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Extractor copies polygon-masked regions out of a source image
type Extractor struct {
	config Config
}

// Config holds configuration for region extraction
type Config struct {
	Filter imaging.ResampleFilter
	Format imageio.Format
}

// DefaultFilter is the resampling filter used for downscaling
var DefaultFilter = imaging.Lanczos

// New creates a new Extractor with default configuration
func New() *Extractor {
	return &Extractor{
		config: Config{
			Filter: DefaultFilter,
			Format: imageio.PNG,
		},
	}
}

// NewWithConfig creates a new Extractor with custom configuration
func NewWithConfig(config Config) *Extractor {
	if config.Format == "" {
		config.Format = imageio.PNG
	}
	return &Extractor{config: config}
}

// Result describes one extracted thumbnail
type Result struct {
	Path   string
	Masked image.Point // size of the masked buffer before downscaling
	Size   image.Point // size of the written thumbnail
	Pixels int         // number of pixels copied from the source
}

// Mask allocates a transparent box.W x box.H buffer and copies every source
// pixel whose position lies strictly inside poly. Polygon and box share the
// source image's coordinate space.
func (e *Extractor) Mask(src *image.NRGBA, box types.BBox, poly *geometry.Polygon) (*image.NRGBA, int, error) {
	if box.W <= 0 || box.H <= 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrEmptyRegion, box)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, box.W, box.H))
	srcBounds := src.Bounds()
	copied := 0

	for by := 0; by < box.H; by++ {
		sy := box.Y + by
		for bx := 0; bx < box.W; bx++ {
			pt := image.Point{X: box.X + bx, Y: sy}
			if !poly.Contains(pt) {
				continue
			}
			if !pt.In(srcBounds) {
				return nil, copied, &OutOfBoundsError{BBox: box, Point: pt, Bounds: srcBounds}
			}
			si := src.PixOffset(pt.X, pt.Y)
			di := dst.PixOffset(bx, by)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
			copied++
		}
	}

	return dst, copied, nil
}

// Thumbnail downscales img to fit within limit, preserving aspect ratio.
// Images already inside limit are returned unscaled.
func (e *Extractor) Thumbnail(img image.Image, limit types.Size) (*image.NRGBA, error) {
	if limit.Width <= 0 || limit.Height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", limit.Width, limit.Height)
	}
	return imaging.Fit(img, limit.Width, limit.Height, e.config.Filter), nil
}

// ExtractToFile masks the region, downscales it, and writes it to path
func (e *Extractor) ExtractToFile(src *image.NRGBA, box types.BBox, poly *geometry.Polygon, path string, limit types.Size) (Result, error) {
	masked, copied, err := e.Mask(src, box, poly)
	if err != nil {
		return Result{}, err
	}

	thumb, err := e.Thumbnail(masked, limit)
	if err != nil {
		return Result{}, err
	}

	if err := imageio.Save(thumb, path, e.config.Format); err != nil {
		return Result{}, fmt.Errorf("failed to save thumbnail %s: %w", path, err)
	}

	return Result{
		Path:   path,
		Masked: masked.Bounds().Size(),
		Size:   thumb.Bounds().Size(),
		Pixels: copied,
	}, nil
}

// Format returns the configured thumbnail encoding
func (e *Extractor) Format() imageio.Format {
	return e.config.Format
}
