package core

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/JonMunkholm/bspitems/internal/logging"
)

// PrintSettings writes the settings banner shown before a batch.
func (s *Service) PrintSettings(w io.Writer, gameVersion string) {
	fmt.Fprintln(w, "Settings:")
	fmt.Fprintf(w, "  Simple names: %v\n", s.opts.SimpleNames)
	fmt.Fprintf(w, "  Include comments: %v\n", s.opts.IncludeMapName)
	fmt.Fprintf(w, "  Game version: %s\n", gameVersion)
	fmt.Fprintln(w)
}

// RunBatch processes paths in order, writing progress to w.
//
// A failing file produces exactly one "Error processing" line and is
// recorded in the summary; a panic while processing one file is recovered
// and treated the same way. An error for which [Fatal] holds stops the run
// and is kept in Aborted; the remaining files are not attempted. The final
// summary line naming the output directory is always written.
func (s *Service) RunBatch(ctx context.Context, paths []string, w io.Writer) BatchSummary {
	runID, ok := logging.RunIDFromContext(ctx)
	if !ok {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}
	log := logging.FromContext(ctx)

	summary := BatchSummary{RunID: runID, OutputDir: s.outputDir}
	log.Info("batch started", "files", len(paths), "output_dir", s.outputDir)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			summary.Failed = append(summary.Failed, s.fail(ctx, w, path, fmt.Errorf("operation cancelled: %w", err)))
			continue
		}

		res, err := s.processIsolated(ctx, path)
		if err != nil {
			summary.Failed = append(summary.Failed, s.fail(ctx, w, path, err))
			if Fatal(err) {
				summary.Aborted = err
				log.Error("batch aborted", "error", err.Error(), "remaining", len(paths)-summary.Total())
				break
			}
			continue
		}

		s.printResult(w, res)
		summary.Processed = append(summary.Processed, *res)
	}

	log.Info("batch finished",
		"processed", len(summary.Processed),
		"failed", len(summary.Failed),
	)
	fmt.Fprintf(w, "All BSP files processed. CSV files can be found in: %s\n", s.outputDir)
	return summary
}

// processIsolated runs ProcessFile and converts a panic into an error.
func (s *Service) processIsolated(ctx context.Context, path string) (res *FileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithFields(ctx, "file", path).Error("panic while processing file",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			res, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return s.ProcessFile(ctx, path)
}

func (s *Service) fail(ctx context.Context, w io.Writer, path string, err error) FileFailure {
	user := MapError(err)
	logging.WithFields(ctx, "file", path).Warn("file skipped",
		"error", err.Error(),
		"code", user.Code,
	)
	fmt.Fprintf(w, "Error processing %s: %v\n", path, err)
	return FileFailure{Path: path, Err: err, User: user}
}

func (s *Service) printResult(w io.Writer, res *FileResult) {
	fmt.Fprintf(w, "Processed: %s\n", res.Path)
	fmt.Fprintf(w, "Short Name: %s\n", res.MapName)
	fmt.Fprintf(w, "Items found: %d\n", len(res.Items))
	fmt.Fprintf(w, "CSV file created: %s\n", res.ReportPath)
	if s.opts.SimpleNames && s.opts.IncludeMapName {
		fmt.Fprintf(w, "Map name '%s' included as comment\n", res.MapName)
	}
	if s.sink != nil {
		fmt.Fprintf(w, "Rows stored: %d\n", res.Stored)
	}
	fmt.Fprintln(w)
}
