package annotate

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/menta2k/snipper/internal/utils"
	"github.com/menta2k/snipper/pkg/extract"
	"github.com/menta2k/snipper/pkg/geometry"
	"github.com/menta2k/snipper/pkg/imageio"
	"github.com/menta2k/snipper/pkg/labels"
	"github.com/menta2k/snipper/pkg/manifest"
	"github.com/menta2k/snipper/pkg/types"
)

// LabelResolver maps a category name to a display label for an artifact type
type LabelResolver interface {
	Resolve(name string, t types.ArtifactType) (string, error)
}

// Observer is notified of per-annotation outcomes
type Observer interface {
	Thumbnail(t types.ArtifactType)
	AnnotationFailed(reason string)
}

// Config holds configuration for annotation processing
type Config struct {
	ImagesDir     string
	ThumbnailsDir string
	Sizes         map[types.ArtifactType]types.Size
	AutoOrient    bool
	Logger        *slog.Logger
	Observer      Observer
}

// Processor turns the annotations of one manifest into thumbnails and index entries
type Processor struct {
	config    Config
	resolver  LabelResolver
	extractor *extract.Extractor
	logger    *slog.Logger
	suffix    func() string
}

// NewProcessor creates a processor
func NewProcessor(config Config, resolver LabelResolver, extractor *extract.Extractor) *Processor {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		config:    config,
		resolver:  resolver,
		extractor: extractor,
		logger:    logger,
		suffix:    randomSuffix,
	}
}

func randomSuffix() string {
	return uuid.NewString()[:8]
}

// Job is one manifest of one artifact/type directory
type Job struct {
	Artifact string
	Type     types.ArtifactType
	Manifest *manifest.Manifest
}

// AnnotationError identifies the annotation that aborted a manifest
type AnnotationError struct {
	Image        string
	AnnotationID int
	Err          error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("image %s annotation %d: %v", e.Image, e.AnnotationID, e.Err)
}

func (e *AnnotationError) Unwrap() error {
	return e.Err
}

// ProcessManifest runs ProcessImage for every image listed in the manifest, in order.
// On error every thumbnail already written for the manifest is removed.
func (p *Processor) ProcessManifest(job Job) ([]types.IndexEntry, error) {
	size, ok := p.config.Sizes[job.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no thumbnail size for %q", labels.ErrUnknownType, job.Type)
	}

	entries := []types.IndexEntry{}
	for _, img := range job.Manifest.Images {
		imgEntries, err := p.processImage(job, img, size)
		if err != nil {
			p.discard(entries)
			return nil, err
		}
		entries = append(entries, imgEntries...)
	}
	return entries, nil
}

// ProcessImage opens the referenced image once and extracts every annotation on it
func (p *Processor) ProcessImage(job Job, info types.ImageInfo) ([]types.IndexEntry, error) {
	size, ok := p.config.Sizes[job.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no thumbnail size for %q", labels.ErrUnknownType, job.Type)
	}
	return p.processImage(job, info, size)
}

func (p *Processor) processImage(job Job, info types.ImageInfo, size types.Size) ([]types.IndexEntry, error) {
	if !filepath.IsLocal(info.FileName) {
		return nil, fmt.Errorf("%w: image file name %q escapes the images directory", manifest.ErrMalformed, info.FileName)
	}

	src, err := imageio.Open(filepath.Join(p.config.ImagesDir, info.FileName), p.config.AutoOrient)
	if err != nil {
		return nil, fmt.Errorf("reference image %s: %w", info.FileName, err)
	}
	p.checkDimensions(info, src.Bounds())

	var entries []types.IndexEntry
	for _, ann := range job.Manifest.AnnotationsFor(info.ID) {
		entry, err := p.processAnnotation(job, info, src, ann, size)
		if err != nil {
			p.observeFailure(err)
			p.discard(entries)
			return nil, &AnnotationError{Image: info.FileName, AnnotationID: ann.ID, Err: err}
		}
		entries = append(entries, entry)
		if p.config.Observer != nil {
			p.config.Observer.Thumbnail(job.Type)
		}
	}
	return entries, nil
}

func (p *Processor) processAnnotation(job Job, info types.ImageInfo, src *image.NRGBA, ann types.Annotation, size types.Size) (types.IndexEntry, error) {
	cat, err := job.Manifest.Category(ann.CategoryID)
	if err != nil {
		return types.IndexEntry{}, err
	}

	label, err := p.resolver.Resolve(cat.Name, job.Type)
	if err != nil {
		return types.IndexEntry{}, err
	}

	box, err := ann.Box()
	if err != nil {
		return types.IndexEntry{}, fmt.Errorf("%w: %w", manifest.ErrMalformed, err)
	}
	poly, err := geometry.FromFlat(ann.Segmentation)
	if err != nil {
		return types.IndexEntry{}, fmt.Errorf("%w: %w", manifest.ErrMalformed, err)
	}

	path := p.OutputPath(job.Artifact, info.FileName, cat.Name, ann.ID)
	res, err := p.extractor.ExtractToFile(src, box, poly, path, size)
	if err != nil {
		return types.IndexEntry{}, err
	}

	p.logger.Debug("thumbnail written",
		"path", res.Path,
		"label", label,
		"bbox", box.String(),
		"pixels", res.Pixels,
		"size", fmt.Sprintf("%dx%d", res.Size.X, res.Size.Y))

	return types.IndexEntry{
		Thumbnail: res.Path,
		Origin:    info.FileName,
		Label:     label,
	}, nil
}

// OutputPath builds <artifact>-<image stem>_<category>_<annotation id>_<suffix>.<ext>
// inside the thumbnails directory. The suffix is random.
func (p *Processor) OutputPath(artifact, imageFile, category string, annotationID int) string {
	name := fmt.Sprintf("%s-%s_%s_%d_%s%s",
		artifact,
		utils.Stem(imageFile),
		utils.SanitizeLabel(category),
		annotationID,
		p.suffix(),
		p.extractor.Format().Ext())
	return filepath.Join(p.config.ThumbnailsDir, name)
}

func (p *Processor) checkDimensions(info types.ImageInfo, bounds image.Rectangle) {
	if info.Width == 0 || info.Height == 0 {
		return
	}
	w, h := bounds.Dx(), bounds.Dy()
	if w == info.Width && h == info.Height {
		return
	}
	if w == info.Height && h == info.Width {
		p.logger.Warn("reference image is rotated relative to the manifest; orientation metadata may have been lost",
			"image", info.FileName, "manifest", fmt.Sprintf("%dx%d", info.Width, info.Height), "actual", fmt.Sprintf("%dx%d", w, h))
		return
	}
	p.logger.Warn("reference image size differs from manifest",
		"image", info.FileName, "manifest", fmt.Sprintf("%dx%d", info.Width, info.Height), "actual", fmt.Sprintf("%dx%d", w, h))
}

// discard removes thumbnails whose manifest did not complete
func (p *Processor) discard(entries []types.IndexEntry) {
	if err := Discard(entries); err != nil {
		p.logger.Warn("failed to remove thumbnails of an incomplete manifest", "error", err)
	}
}

// Discard deletes the thumbnail files of entries. Files already gone are ignored.
func Discard(entries []types.IndexEntry) error {
	var errs []error
	for _, e := range entries {
		if err := os.Remove(e.Thumbnail); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Processor) observeFailure(err error) {
	if p.config.Observer != nil {
		p.config.Observer.AnnotationFailed(FailureReason(err))
	}
}

// FailureReason classifies an annotation error for metrics and ledgers
func FailureReason(err error) string {
	switch {
	case errors.Is(err, extract.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, labels.ErrLabelDecode):
		return "label_decode"
	case errors.Is(err, manifest.ErrMissingCategory):
		return "missing_category"
	case errors.Is(err, geometry.ErrDegeneratePolygon):
		return "degenerate_polygon"
	case errors.Is(err, extract.ErrEmptyRegion):
		return "empty_region"
	case errors.Is(err, manifest.ErrMalformed):
		return "malformed"
	default:
		return "io"
	}
}
