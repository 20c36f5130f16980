package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/snipper/internal/utils"
	"github.com/menta2k/snipper/pkg/annotate"
	"github.com/menta2k/snipper/pkg/manifest"
	"github.com/menta2k/snipper/pkg/types"
)

// IndexPrefix starts every output index file name
const IndexPrefix = "Paleography"

// indexTimeLayout renders as MM-DD-YY_HH-MM
const indexTimeLayout = "01-02-06_15-04"

// ManifestProcessor extracts the thumbnails of one manifest
type ManifestProcessor interface {
	ProcessManifest(job annotate.Job) ([]types.IndexEntry, error)
}

// Recorder is notified of manifest status transitions
type Recorder interface {
	ManifestStatus(status string)
}

// Config holds the directories of a batch run
type Config struct {
	JSONDir       string
	ThumbnailsDir string
	OutputDir     string
	UsedDir       string
	LedgerFile    string
	Logger        *slog.Logger
	Recorder      Recorder
}

// Item is one discovered manifest
type Item struct {
	Path     string             `json:"path"`
	Artifact string             `json:"artifact"`
	Type     types.ArtifactType `json:"type"`
	Status   Status             `json:"status"`
	Archived string             `json:"archived,omitempty"`
	Entries  int                `json:"entries"`
}

// Report summarizes a run
type Report struct {
	RunID     string
	Items     []Item
	Index     types.OutputIndex
	IndexPath string
}

// ManifestError identifies the manifest that halted a run
type ManifestError struct {
	Path     string
	Artifact string
	Type     types.ArtifactType
	Err      error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s (%s/%s): %v", e.Path, e.Artifact, e.Type, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// Runner walks json/<artifact>/<type>/*.json, processes every pending manifest
// once, moves it to the used directory and writes one merged index at the end.
type Runner struct {
	config    Config
	processor ManifestProcessor
	ledger    *Ledger
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithClock replaces time.Now, used to name the output index
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a batch runner
func NewRunner(config Config, processor ManifestProcessor, opts ...Option) *Runner {
	r := &Runner{
		config:    config,
		processor: processor,
		logger:    config.Logger,
		now:       time.Now,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if config.LedgerFile != "" {
		r.ledger = NewLedger(config.LedgerFile)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare creates the thumbnail, output and used-manifest directories if absent
func (r *Runner) Prepare() error {
	for _, dir := range []string{r.config.ThumbnailsDir, r.config.OutputDir, r.config.UsedDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	if r.ledger != nil {
		if err := utils.EnsureDir(filepath.Dir(r.ledger.Path())); err != nil {
			return err
		}
	}
	return nil
}

// Discover lists pending manifests in artifact, type, file name order.
// Only the recognized type directories are read, and never recursively.
func (r *Runner) Discover() ([]Item, error) {
	artifacts, err := utils.ListDirs(r.config.JSONDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var items []Item
	for _, artifact := range artifacts {
		artifactDir := filepath.Join(r.config.JSONDir, artifact)
		if samePath(artifactDir, r.config.UsedDir) {
			continue
		}

		for _, t := range types.ArtifactTypes() {
			typeDir := filepath.Join(artifactDir, string(t))
			if !utils.DirExists(typeDir) {
				continue
			}
			files, err := utils.ListManifests(typeDir)
			if err != nil {
				return nil, fmt.Errorf("failed to list manifests in %s: %w", typeDir, err)
			}
			for _, path := range files {
				items = append(items, Item{Path: path, Artifact: artifact, Type: t, Status: StatusPending})
			}
		}
	}
	return items, nil
}

// Run processes every pending manifest and writes the merged index.
// The first failure halts the run: the failing manifest stays pending,
// manifests archived before it stay archived, and no index is written.
// The returned report is non-nil even when err is set.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID: uuid.NewString(),
		Index: types.OutputIndex{},
	}
	log := r.logger.With("run_id", report.RunID)

	if err := r.Prepare(); err != nil {
		return report, err
	}

	items, err := r.Discover()
	if err != nil {
		return report, err
	}
	report.Items = items
	log.Info("discovered manifests", "count", len(items), "root", r.config.JSONDir)

	for i := range items {
		// cancellation is honored between manifests only
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run cancelled before %s: %w", items[i].Path, err)
		}

		item := &report.Items[i]
		if err := r.processItem(log, report, item); err != nil {
			log.Error("manifest failed", "manifest", item.Path, "error", err)
			return report, err
		}
	}

	path, err := r.writeIndex(report.Index, report.RunID)
	if err != nil {
		return report, err
	}
	report.IndexPath = path
	log.Info("index written", "path", path, "artifacts", len(report.Index), "entries", report.Index.Len())

	return report, nil
}

func (r *Runner) processItem(log *slog.Logger, report *Report, item *Item) error {
	fail := func(err error) error {
		item.Status = StatusFailed
		merr := &ManifestError{Path: item.Path, Artifact: item.Artifact, Type: item.Type, Err: err}
		if lerr := r.transition(report.RunID, item, err); lerr != nil {
			return fmt.Errorf("%w (ledger: %v)", merr, lerr)
		}
		return merr
	}

	item.Status = StatusProcessing
	if err := r.transition(report.RunID, item, nil); err != nil {
		return err
	}
	log.Info("processing manifest", "manifest", item.Path, "artifact", item.Artifact, "type", item.Type)

	m, err := manifest.Load(item.Path)
	if err != nil {
		return fail(err)
	}

	entries, err := r.processor.ProcessManifest(annotate.Job{
		Artifact: item.Artifact,
		Type:     item.Type,
		Manifest: m,
	})
	if err != nil {
		return fail(err)
	}
	item.Entries = len(entries)
	item.Status = StatusProcessed
	if err := r.transition(report.RunID, item, nil); err != nil {
		return err
	}

	archived, err := r.archive(item.Path)
	if err != nil {
		// the manifest stays pending, so its thumbnails are written again on retry
		if derr := annotate.Discard(entries); derr != nil {
			log.Warn("failed to remove thumbnails of unarchived manifest", "manifest", item.Path, "error", derr)
		}
		return fail(fmt.Errorf("archive: %w", err))
	}
	item.Archived = archived
	item.Status = StatusArchived
	if err := r.transition(report.RunID, item, nil); err != nil {
		return err
	}

	report.Index.Append(item.Artifact, item.Type, entries...)
	log.Info("manifest archived", "manifest", item.Path, "archived_to", archived, "entries", len(entries))
	return nil
}

// transition records the item's current status in the ledger and metrics
func (r *Runner) transition(runID string, item *Item, cause error) error {
	if r.config.Recorder != nil {
		r.config.Recorder.ManifestStatus(string(item.Status))
	}
	if r.ledger == nil {
		return nil
	}

	rec := Record{
		Time:       r.now(),
		RunID:      runID,
		Manifest:   item.Path,
		Artifact:   item.Artifact,
		Type:       item.Type,
		Status:     item.Status,
		Entries:    item.Entries,
		ArchivedTo: item.Archived,
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	return r.ledger.Append(rec)
}

// archive moves a consumed manifest into the flat used directory without overwriting
func (r *Runner) archive(path string) (string, error) {
	dst := filepath.Join(r.config.UsedDir, filepath.Base(path))
	if _, err := os.Lstat(dst); err == nil {
		ext := filepath.Ext(path)
		dst = filepath.Join(r.config.UsedDir, fmt.Sprintf("%s-%s%s", utils.Stem(path), uuid.NewString()[:8], ext))
	}

	if err := utils.MoveFile(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// writeIndex serializes the complete index to Paleography_<MM-DD-YY_HH-MM>.json
// via a temporary file, so a partial index is never visible
func (r *Runner) writeIndex(index types.OutputIndex, runID string) (string, error) {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode index: %w", err)
	}

	stamp := r.now().Format(indexTimeLayout)
	path := filepath.Join(r.config.OutputDir, fmt.Sprintf("%s_%s.json", IndexPrefix, stamp))
	if _, err := os.Lstat(path); err == nil {
		path = filepath.Join(r.config.OutputDir, fmt.Sprintf("%s_%s_%s.json", IndexPrefix, stamp, runID[:8]))
	}

	tmp, err := os.CreateTemp(r.config.OutputDir, ".index-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	// CreateTemp uses 0600
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to publish index: %w", err)
	}
	return path, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
