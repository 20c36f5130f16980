package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validManifest = `{
  "images": [
    {"id": 1, "file_name": "stela.jpg", "width": 100, "height": 100},
    {"id": 2, "file_name": "detail.png", "width": 50, "height": 40}
  ],
  "annotations": [
    {"id": 1, "image_id": 1, "category_id": 1, "bbox": [10.4, 10.6, 20, 20], "segmentation": [10, 10, 30, 10, 30, 30, 10, 30]},
    {"id": 2, "image_id": 2, "category_id": 2, "bbox": [0, 0, 5, 5], "segmentation": [[0, 0, 5, 0, 5, 5]]},
    {"id": 3, "image_id": 1, "category_id": 2, "bbox": [1, 1, 3, 3], "segmentation": [1, 1, 4, 1, 4, 4]}
  ],
  "categories": [
    {"id": 1, "name": "G17-N35"},
    {"id": 2, "name": "ankh"}
  ]
}`

func TestParseValid(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(m.Images) != 2 || len(m.Annotations) != 3 || len(m.Categories) != 2 {
		t.Fatalf("Unexpected manifest sizes: %d images, %d annotations, %d categories",
			len(m.Images), len(m.Annotations), len(m.Categories))
	}

	cat, err := m.Category(1)
	if err != nil || cat.Name != "G17-N35" {
		t.Errorf("Expected category G17-N35, got %+v (%v)", cat, err)
	}

	img, ok := m.Image(2)
	if !ok || img.FileName != "detail.png" {
		t.Errorf("Expected detail.png, got %+v", img)
	}

	anns := m.AnnotationsFor(1)
	if len(anns) != 2 || anns[0].ID != 1 || anns[1].ID != 3 {
		t.Errorf("Expected annotations 1 and 3 in order, got %+v", anns)
	}

	// nested COCO segmentation keeps the first ring
	if got := m.AnnotationsFor(2)[0].Segmentation; len(got) != 6 {
		t.Errorf("Expected 6 coordinates from nested segmentation, got %v", got)
	}

	box, err := m.Annotations[0].Box()
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	if box.X != 10 || box.Y != 11 || box.W != 20 || box.H != 20 {
		t.Errorf("Unexpected rounded box %v", box)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":           `{"images": [`,
		"missing images":     `{"annotations": [], "categories": []}`,
		"short bbox":         `{"images": [{"id": 1, "file_name": "a.png"}], "categories": [{"id": 1, "name": "x"}], "annotations": [{"id": 1, "image_id": 1, "category_id": 1, "bbox": [1, 2, 3], "segmentation": []}]}`,
		"negative bbox":      `{"images": [{"id": 1, "file_name": "a.png"}], "categories": [{"id": 1, "name": "x"}], "annotations": [{"id": 1, "image_id": 1, "category_id": 1, "bbox": [-1, 2, 3, 4], "segmentation": []}]}`,
		"string id":          `{"images": [{"id": "1", "file_name": "a.png"}], "categories": [], "annotations": []}`,
		"empty file name":    `{"images": [{"id": 1, "file_name": ""}], "categories": [], "annotations": []}`,
		"unknown image":      `{"images": [{"id": 1, "file_name": "a.png"}], "categories": [{"id": 1, "name": "x"}], "annotations": [{"id": 1, "image_id": 9, "category_id": 1, "bbox": [1, 2, 3, 4], "segmentation": []}]}`,
		"duplicate image":    `{"images": [{"id": 1, "file_name": "a.png"}, {"id": 1, "file_name": "b.png"}], "categories": [], "annotations": []}`,
		"duplicate category": `{"images": [], "categories": [{"id": 1, "name": "x"}, {"id": 1, "name": "y"}], "annotations": []}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseMissingCategory(t *testing.T) {
	doc := `{"images": [{"id": 1, "file_name": "a.png"}], "categories": [{"id": 1, "name": "x"}],
	  "annotations": [{"id": 7, "image_id": 1, "category_id": 2, "bbox": [1, 2, 3, 4], "segmentation": [1, 2, 3, 4, 5, 6]}]}`

	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("Expected ErrMissingCategory, got %v", err)
	}
	if !errors.Is(err, ErrMalformed) {
		t.Error("ErrMissingCategory should also match ErrMalformed")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.json")
	if err := os.WriteFile(path, []byte(validManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing manifest")
	}
}

func TestEmptyManifest(t *testing.T) {
	m, err := Parse([]byte(`{"images": [], "annotations": [], "categories": []}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.AnnotationsFor(1)) != 0 {
		t.Error("Expected no annotations")
	}
}
