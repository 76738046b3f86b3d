package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/bspitems/internal/bsp"
	"github.com/JonMunkholm/bspitems/internal/entity"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/logging"
	"github.com/JonMunkholm/bspitems/internal/metrics"
	"github.com/JonMunkholm/bspitems/internal/report"
)

// MapExt is the extension of files picked up by [FindMaps].
const MapExt = ".bsp"

// ErrStore is matched by sink failures returned from ProcessFile.
var ErrStore = errors.New("storing items")

// Service runs the extraction pipeline with one fixed set of options.
type Service struct {
	extractor *extract.Extractor
	opts      report.Options
	outputDir string
	sink      Sink
}

// Option configures a Service.
type Option func(*Service)

// WithSink copies every file's rows into sink after the CSV is written.
func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// NewService returns a Service writing reports into outputDir.
func NewService(extractor *extract.Extractor, outputDir string, opts report.Options, options ...Option) *Service {
	s := &Service{
		extractor: extractor,
		opts:      opts,
		outputDir: outputDir,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options returns the report options in use.
func (s *Service) Options() report.Options {
	return s.opts
}

// OutputDir returns the report directory.
func (s *Service) OutputDir() string {
	return s.outputDir
}

// Extract reads, parses and extracts the BSP file at path.
func (s *Service) Extract(path string) (*Extraction, error) {
	start := time.Now()
	defer func() { metrics.FileDuration.Observe(time.Since(start).Seconds()) }()

	raw, err := bsp.ReadEntities(path)
	if err != nil {
		return nil, err
	}
	return s.extractLump(path, raw)
}

// ExtractBytes is Extract for an in-memory BSP; name labels errors.
func (s *Service) ExtractBytes(name string, data []byte) (*Extraction, error) {
	start := time.Now()
	defer func() { metrics.FileDuration.Observe(time.Since(start).Seconds()) }()

	r, err := bsp.NewReader(bytes.NewReader(data), int64(len(data)), name)
	if err != nil {
		return nil, err
	}
	raw, err := r.Entities()
	if err != nil {
		return nil, err
	}
	return s.extractLump(name, raw)
}

func (s *Service) extractLump(path string, raw []byte) (*Extraction, error) {
	parsed := entity.Parse(raw)

	items, err := s.extractor.Extract(parsed.Entities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, it := range items {
		metrics.ItemsExtracted.WithLabelValues(it.ItemType).Inc()
	}

	return &Extraction{Path: path, MapName: parsed.MapName(), Items: items}, nil
}

// WriteReport writes ex as CSV to w using the service options.
func (s *Service) WriteReport(w io.Writer, ex *Extraction) error {
	return report.Write(w, ex.Items, ex.MapName, s.opts)
}

// ProcessFile extracts path, writes its report and feeds the sink.
// No report is written when extraction fails.
func (s *Service) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	log := logging.WithFields(ctx, "file", path)

	ex, err := s.Extract(path)
	if err != nil {
		metrics.FilesProcessed.WithLabelValues(metrics.StatusFailed).Inc()
		return nil, err
	}

	if err := report.EnsureDir(s.outputDir); err != nil {
		metrics.FilesProcessed.WithLabelValues(metrics.StatusFailed).Inc()
		return nil, err
	}

	res := &FileResult{
		Extraction: *ex,
		ReportPath: filepath.Join(s.outputDir, report.FileName(path, ex.MapName, s.opts)),
	}

	if err := report.WriteFile(res.ReportPath, ex.Items, ex.MapName, s.opts); err != nil {
		metrics.FilesProcessed.WithLabelValues(metrics.StatusFailed).Inc()
		return nil, err
	}

	if s.sink != nil {
		n, err := s.sink.Replace(ctx, filepath.Base(path), ex.MapName, ex.Items)
		if err != nil {
			metrics.FilesProcessed.WithLabelValues(metrics.StatusFailed).Inc()
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
		res.Stored = n
	}

	metrics.FilesProcessed.WithLabelValues(metrics.StatusOK).Inc()
	log.Debug("file processed", "map_name", ex.MapName, "items", len(ex.Items), "report", res.ReportPath)
	return res, nil
}

// FindMaps returns the .bsp files directly inside dir, sorted by name.
// The extension match ignores case.
func FindMaps(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading maps directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), MapExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
