// Package snipper turns polygon annotations over reference images into a
// labelled thumbnail catalogue.
//
// Manifests exported from the annotation tool (COCO-style JSON) are read from
// json/<artifact>/<type>/*.json, where type is one of paleography,
// orthography or iconography. For every annotation the pixels inside its
// polygon are copied onto a transparent canvas, shrunk to the size
// configured for the type and written to the thumbnails directory. The
// category name becomes the label: paleography categories are Gardiner sign
// codes rendered as hieroglyphs, orthography categories are Manuel de Codage
// transliterations, iconography categories are used as they are.
//
// Each manifest is processed once and then moved to the used directory. When
// every pending manifest succeeded, one merged index is written:
//
//	{ "Stela1": { "iconography": [ {"thumbnail": ..., "origin": ..., "label": ...} ] } }
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/snipper"
//	)
//
//	func main() {
//		cfg, err := snipper.LoadConfig("")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		pipeline, err := snipper.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		report, err := pipeline.Run(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("index written to %s", report.IndexPath)
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): polygon construction and strict containment
// 2. Extract (pkg/extract): masked copy and thumbnail generation
// 3. Labels (pkg/labels): per-type label decoding via pkg/gardiner and pkg/mdc
// 4. Annotate (pkg/annotate): per-manifest processing
// 5. Batch (pkg/batch): discovery, archiving, ledger and the merged index
package snipper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/menta2k/snipper/internal/config"
	"github.com/menta2k/snipper/internal/metrics"
	"github.com/menta2k/snipper/pkg/annotate"
	"github.com/menta2k/snipper/pkg/batch"
	"github.com/menta2k/snipper/pkg/extract"
	"github.com/menta2k/snipper/pkg/gardiner"
	"github.com/menta2k/snipper/pkg/labels"
	"github.com/menta2k/snipper/pkg/mdc"
	"github.com/menta2k/snipper/pkg/types"
)

// Version of the snipper library
const Version = "1.0.0"

// Config is the pipeline configuration
type Config = config.Config

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads defaults, an optional snipper.yaml and SNIPPER_* variables
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Pipeline wires the components of one batch run
type Pipeline struct {
	config    *Config
	logger    *slog.Logger
	metrics   *metrics.Recorder
	resolver  *labels.Resolver
	processor *annotate.Processor
	runner    *batch.Runner
	now       func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock replaces time.Now for index names and ledger timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New validates cfg and builds a pipeline
func New(cfg *Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pipeline{
		config:  cfg,
		logger:  slog.Default(),
		metrics: metrics.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.resolver = labels.NewWithDecoders(gardiner.NewDecoder(), mdc.NewDecoder(mdc.WithQKopf(cfg.QKopf)))
	extractor := extract.NewWithConfig(extract.Config{
		Filter: extract.DefaultFilter,
		Format: cfg.Format(),
	})

	p.processor = annotate.NewProcessor(annotate.Config{
		ImagesDir:     cfg.ImagesDir,
		ThumbnailsDir: cfg.ThumbnailsDir,
		Sizes:         cfg.ThumbnailSizes(),
		AutoOrient:    cfg.AutoOrient,
		Logger:        p.logger,
		Observer:      p.metrics,
	}, p.resolver, extractor)

	p.runner = batch.NewRunner(batch.Config{
		JSONDir:       cfg.JSONDir,
		ThumbnailsDir: cfg.ThumbnailsDir,
		OutputDir:     cfg.OutputDir,
		UsedDir:       cfg.UsedDir,
		LedgerFile:    cfg.LedgerFile,
		Logger:        p.logger,
		Recorder:      p.metrics,
	}, p.processor, batch.WithClock(p.now))

	return p, nil
}

// Run processes every pending manifest and writes the merged index.
// When metrics_file is configured the counters are written whether the run
// succeeded or not.
func (p *Pipeline) Run(ctx context.Context) (*batch.Report, error) {
	report, runErr := p.runner.Run(ctx)

	p.metrics.RunFinished(runErr == nil, p.now())
	if p.config.MetricsFile != "" {
		if err := p.metrics.WriteTextfile(p.config.MetricsFile); err != nil {
			if runErr != nil {
				p.logger.Error("failed to write metrics", "path", p.config.MetricsFile, "error", err)
				return report, runErr
			}
			return report, err
		}
	}
	return report, runErr
}

// Pending lists the manifests the next run would process
func (p *Pipeline) Pending() ([]batch.Item, error) {
	return p.runner.Discover()
}

// ResolveLabel decodes a category name the way the pipeline labels thumbnails
func (p *Pipeline) ResolveLabel(name string, t types.ArtifactType) (string, error) {
	return p.resolver.Resolve(name, t)
}

// Metrics exposes the run counters
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
