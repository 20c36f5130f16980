package overlay

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/snipper/pkg/imageio"
	"github.com/menta2k/snipper/pkg/manifest"
	"github.com/menta2k/snipper/pkg/types"
)

var grey = color.NRGBA{128, 128, 128, 255}

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, grey)
		}
	}
	return img
}

func TestDraw(t *testing.T) {
	src := createTestImage(100, 100)
	anns := []types.Annotation{
		{ID: 1, BBox: []float64{10, 10, 20, 20}, Segmentation: types.Segmentation{12, 12, 28, 12, 20, 28}},
		{ID: 2, BBox: []float64{90, 90, 20, 20}, Segmentation: types.Segmentation{90, 90, 99, 90, 99, 99}},
		{ID: 3, BBox: []float64{1, 2}},
	}

	out, stats := Draw(src, anns)
	if stats.Annotations != 3 || stats.Overhanging != 1 || stats.Skipped != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	if got := out.NRGBAAt(10, 15); got != Gold {
		t.Errorf("Expected gold bbox edge at (10,15), got %v", got)
	}
	if got := out.NRGBAAt(90, 95); got != Red {
		t.Errorf("Expected red edge for overhanging bbox at (90,95), got %v", got)
	}
	if got := out.NRGBAAt(20, 12); got != Green {
		t.Errorf("Expected polygon outline at (20,12), got %v", got)
	}
	if got := out.NRGBAAt(50, 50); got != grey {
		t.Errorf("Untouched pixel changed: %v", got)
	}
	if got := src.NRGBAAt(10, 15); got != grey {
		t.Error("Draw must not modify the source image")
	}
}

func TestDrawLineEndpoints(t *testing.T) {
	img := createTestImage(10, 10)
	drawLine(img, 0, 0, 9, 4, Green)
	if img.NRGBAAt(0, 0) != Green || img.NRGBAAt(9, 4) != Green {
		t.Error("Line endpoints should be plotted")
	}
	drawLine(img, -5, -5, 20, 20, Red)
	if img.NRGBAAt(5, 5) != Red {
		t.Error("Clipped line should still cross the canvas")
	}
}

func TestRender(t *testing.T) {
	root := t.TempDir()
	imagesDir := filepath.Join(root, "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := imageio.Save(createTestImage(40, 30), filepath.Join(imagesDir, "front.png"), imageio.PNG); err != nil {
		t.Fatal(err)
	}

	m, err := manifest.New(&types.Manifest{
		Images:      []types.ImageInfo{{ID: 1, FileName: "front.png"}},
		Annotations: []types.Annotation{{ID: 1, ImageID: 1, CategoryID: 1, BBox: []float64{5, 5, 10, 10}, Segmentation: types.Segmentation{5, 5, 15, 5, 15, 15}}},
		Categories:  []types.Category{{ID: 1, Name: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(Config{ImagesDir: imagesDir, OutputDir: filepath.Join(root, "overlays")})
	paths, err := r.Render(m)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "front_overlay.png" {
		t.Fatalf("Unexpected overlay paths %v", paths)
	}

	img, err := imageio.Open(paths[0], false)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(40, 30) {
		t.Errorf("Overlay should keep the reference size, got %v", img.Bounds().Size())
	}
}
