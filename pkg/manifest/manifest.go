package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/menta2k/snipper/pkg/types"
)

var (
	// ErrMalformed marks a manifest that must not be partially trusted
	ErrMalformed = errors.New("malformed manifest")

	// ErrMissingCategory is returned when an annotation's category_id has no category entry
	ErrMissingCategory = fmt.Errorf("%w: missing category label", ErrMalformed)
)

const schemaJSON = `{
  "type": "object",
  "required": ["images", "annotations", "categories"],
  "properties": {
    "images": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "file_name"],
        "properties": {
          "id": {"type": "integer"},
          "file_name": {"type": "string", "minLength": 1},
          "width": {"type": "number", "minimum": 0},
          "height": {"type": "number", "minimum": 0}
        }
      }
    },
    "annotations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "image_id", "category_id", "bbox", "segmentation"],
        "properties": {
          "id": {"type": "integer"},
          "image_id": {"type": "integer"},
          "category_id": {"type": "integer"},
          "bbox": {
            "type": "array",
            "items": {"type": "number", "minimum": 0},
            "minItems": 4,
            "maxItems": 4
          },
          "segmentation": {"type": "array"}
        }
      }
    },
    "categories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "integer"},
          "name": {"type": "string"}
        }
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("manifest.schema.json", schemaJSON)

// Load reads and parses the manifest at path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates the document shape and reference integrity of data
func Parse(data []byte) (*Manifest, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var raw types.Manifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return New(&raw)
}

// Manifest is a parsed manifest with lookup tables for images and categories
type Manifest struct {
	*types.Manifest
	images     map[int]types.ImageInfo
	categories map[int]types.Category
}

// New indexes raw and checks that every annotation resolves to an image and category
func New(raw *types.Manifest) (*Manifest, error) {
	m := &Manifest{
		Manifest:   raw,
		images:     make(map[int]types.ImageInfo, len(raw.Images)),
		categories: make(map[int]types.Category, len(raw.Categories)),
	}

	for _, img := range raw.Images {
		if _, dup := m.images[img.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate image id %d", ErrMalformed, img.ID)
		}
		m.images[img.ID] = img
	}
	for _, cat := range raw.Categories {
		if _, dup := m.categories[cat.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate category id %d", ErrMalformed, cat.ID)
		}
		m.categories[cat.ID] = cat
	}

	for _, ann := range raw.Annotations {
		if _, ok := m.images[ann.ImageID]; !ok {
			return nil, fmt.Errorf("%w: annotation %d references unknown image %d", ErrMalformed, ann.ID, ann.ImageID)
		}
		if _, err := m.Category(ann.CategoryID); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", ann.ID, err)
		}
	}

	return m, nil
}

// Category returns the category with the given id
func (m *Manifest) Category(id int) (types.Category, error) {
	cat, ok := m.categories[id]
	if !ok {
		return types.Category{}, fmt.Errorf("%w: category %d", ErrMissingCategory, id)
	}
	return cat, nil
}

// Image returns the image with the given id
func (m *Manifest) Image(id int) (types.ImageInfo, bool) {
	img, ok := m.images[id]
	return img, ok
}

// AnnotationsFor returns the annotations of one image in manifest order
func (m *Manifest) AnnotationsFor(imageID int) []types.Annotation {
	var out []types.Annotation
	for _, ann := range m.Annotations {
		if ann.ImageID == imageID {
			out = append(out, ann)
		}
	}
	return out
}
