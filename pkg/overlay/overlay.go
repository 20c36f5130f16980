// Package overlay draws a manifest's annotations over its reference image so
// an operator can see why an annotation fails, most often a bbox that hangs
// off a rotated or cropped image.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/menta2k/snipper/internal/utils"
	"github.com/menta2k/snipper/pkg/geometry"
	"github.com/menta2k/snipper/pkg/imageio"
	"github.com/menta2k/snipper/pkg/manifest"
	"github.com/menta2k/snipper/pkg/types"
)

var (
	Green = color.NRGBA{0, 255, 0, 255}   // polygon outline
	Gold  = color.NRGBA{255, 204, 0, 255} // bbox inside the canvas
	Red   = color.NRGBA{255, 0, 0, 255}   // bbox overhanging the canvas
)

// Config holds configuration for overlay rendering
type Config struct {
	ImagesDir  string
	OutputDir  string
	Format     imageio.Format
	AutoOrient bool
	Logger     *slog.Logger
}

// Renderer writes one overlay image per manifest image
type Renderer struct {
	config Config
	logger *slog.Logger
}

// NewRenderer creates a renderer
func NewRenderer(config Config) *Renderer {
	if config.Format == "" {
		config.Format = imageio.PNG
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{config: config, logger: logger}
}

// Stats counts what an overlay shows
type Stats struct {
	Annotations int
	Overhanging int
	Skipped     int // annotations without a usable bbox or polygon
}

// Render draws every image of m and returns the written paths
func (r *Renderer) Render(m *manifest.Manifest) ([]string, error) {
	if err := utils.EnsureDir(r.config.OutputDir); err != nil {
		return nil, err
	}

	var paths []string
	for _, info := range m.Images {
		if !filepath.IsLocal(info.FileName) {
			return paths, fmt.Errorf("%w: image file name %q escapes the images directory", manifest.ErrMalformed, info.FileName)
		}
		src, err := imageio.Open(filepath.Join(r.config.ImagesDir, info.FileName), r.config.AutoOrient)
		if err != nil {
			return paths, fmt.Errorf("reference image %s: %w", info.FileName, err)
		}

		out, stats := Draw(src, m.AnnotationsFor(info.ID))
		path := filepath.Join(r.config.OutputDir, utils.Stem(info.FileName)+"_overlay"+r.config.Format.Ext())
		if err := imageio.Save(out, path, r.config.Format); err != nil {
			return paths, err
		}
		r.logger.Info("overlay written",
			"path", path,
			"annotations", stats.Annotations,
			"overhanging", stats.Overhanging,
			"skipped", stats.Skipped)
		paths = append(paths, path)
	}
	return paths, nil
}

// Draw returns a copy of src with every annotation's bbox and polygon outlined
func Draw(src image.Image, anns []types.Annotation) (*image.NRGBA, Stats) {
	img := imaging.Clone(src)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	stroke := int(math.Max(1, 0.003*float64(min(w, h))))

	var stats Stats
	for _, ann := range anns {
		stats.Annotations++

		box, err := ann.Box()
		if err != nil {
			stats.Skipped++
			continue
		}
		c := Gold
		if box.X+box.W > w || box.Y+box.H > h {
			c = Red
			stats.Overhanging++
		}
		drawBox(img, box, c, stroke)

		poly, err := geometry.FromFlat(ann.Segmentation)
		if err != nil {
			stats.Skipped++
			continue
		}
		drawPolygon(img, poly, Green)
	}
	return img, stats
}

func drawBox(img *image.NRGBA, box types.BBox, c color.NRGBA, stroke int) {
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.W, box.Y+box.H
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawPolygon(img *image.NRGBA, poly *geometry.Polygon, c color.NRGBA) {
	pts := poly.Points()
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		drawLine(img, a.X, a.Y, b.X, b.Y, c)
	}
}

// drawLine plots a Bresenham segment, clipped to the canvas
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		set(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func set(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	img.SetNRGBA(x, y, c)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	x0, x1 = max(x0, 0), min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	y0, y1 = max(y0, 0), min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
