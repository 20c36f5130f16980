package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// ArtifactType selects label decoding and thumbnail sizing for a manifest
type ArtifactType string

const (
	Paleography ArtifactType = "paleography"
	Orthography ArtifactType = "orthography"
	Iconography ArtifactType = "iconography"
)

// ArtifactTypes returns the recognized types in processing order
func ArtifactTypes() []ArtifactType {
	return []ArtifactType{Paleography, Orthography, Iconography}
}

// Valid reports whether t is one of the recognized types
func (t ArtifactType) Valid() bool {
	switch t {
	case Paleography, Orthography, Iconography:
		return true
	}
	return false
}

// ParseArtifactType converts a directory or config name into an ArtifactType
func ParseArtifactType(s string) (ArtifactType, error) {
	t := ArtifactType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown artifact type %q", s)
	}
	return t, nil
}

// Size is a maximum thumbnail size in pixels
type Size struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// Manifest is one COCO-style export from the annotation tool
type Manifest struct {
	Images      []ImageInfo  `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// ImageInfo describes one reference image listed in a manifest
type ImageInfo struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Category is a labelled class of annotations
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Annotation is one polygon selection tied to an image and a category
type Annotation struct {
	ID           int          `json:"id"`
	ImageID      int          `json:"image_id"`
	CategoryID   int          `json:"category_id"`
	BBox         []float64    `json:"bbox"`
	Segmentation Segmentation `json:"segmentation"`
}

// Box rounds the manifest's floating bbox to integer pixels
func (a Annotation) Box() (BBox, error) {
	if len(a.BBox) != 4 {
		return BBox{}, fmt.Errorf("annotation %d: bbox has %d values, want 4", a.ID, len(a.BBox))
	}
	b := BBox{
		X: roundCoord(a.BBox[0]),
		Y: roundCoord(a.BBox[1]),
		W: roundCoord(a.BBox[2]),
		H: roundCoord(a.BBox[3]),
	}
	if b.X < 0 || b.Y < 0 || b.W < 0 || b.H < 0 {
		return BBox{}, fmt.Errorf("annotation %d: negative bbox %v", a.ID, b)
	}
	return b, nil
}

// roundCoord rounds half to even, the convention of the annotation exporter's tooling
func roundCoord(v float64) int {
	return int(math.RoundToEven(v))
}

// BBox is an axis-aligned integer bounding box
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (b BBox) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", b.X, b.Y, b.W, b.H)
}

// Segmentation is a flat coordinate list [x0,y0,x1,y1,...].
// COCO exports nest it as a list of rings; only the first ring is kept.
type Segmentation []float64

// UnmarshalJSON accepts both the flat and the nested COCO form
func (s *Segmentation) UnmarshalJSON(data []byte) error {
	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		*s = flat
		return nil
	}

	var rings [][]float64
	if err := json.Unmarshal(data, &rings); err != nil {
		return fmt.Errorf("segmentation must be a coordinate list: %w", err)
	}
	if len(rings) == 0 {
		*s = Segmentation{}
		return nil
	}
	*s = rings[0]
	return nil
}

// IndexEntry links a generated thumbnail to its source image and label
type IndexEntry struct {
	Thumbnail string `json:"thumbnail"`
	Origin    string `json:"origin"`
	Label     string `json:"label"`
}

// OutputIndex maps artifact name -> artifact type -> entries
type OutputIndex map[string]map[ArtifactType][]IndexEntry

// Touch makes sure the artifact/type list exists, even when empty
func (o OutputIndex) Touch(artifact string, t ArtifactType) {
	byType, ok := o[artifact]
	if !ok {
		byType = make(map[ArtifactType][]IndexEntry)
		o[artifact] = byType
	}
	if _, ok := byType[t]; !ok {
		byType[t] = []IndexEntry{}
	}
}

// Append adds entries to the artifact/type list
func (o OutputIndex) Append(artifact string, t ArtifactType, entries ...IndexEntry) {
	o.Touch(artifact, t)
	o[artifact][t] = append(o[artifact][t], entries...)
}

// Len returns the total number of entries across all artifacts and types
func (o OutputIndex) Len() int {
	n := 0
	for _, byType := range o {
		for _, entries := range byType {
			n += len(entries)
		}
	}
	return n
}
