package core

import (
	"context"

	"github.com/JonMunkholm/bspitems/internal/extract"
)

// Sink receives the rows of each successfully parsed file.
// *store.ItemStore implements it.
type Sink interface {
	Replace(ctx context.Context, mapFile, mapName string, items []extract.Item) (int64, error)
}

// Extraction is the parsed content of one BSP file.
type Extraction struct {
	Path    string
	MapName string
	Items   []extract.Item
}

// FileResult describes one processed file.
type FileResult struct {
	Extraction
	ReportPath string
	Stored     int64
}

// FileFailure is a file that was skipped, with its mapped message.
type FileFailure struct {
	Path string
	Err  error
	User UserMessage
}

// BatchSummary is the outcome of [Service.RunBatch].
type BatchSummary struct {
	RunID     string
	OutputDir string
	Processed []FileResult
	Failed    []FileFailure

	// Aborted is the error that stopped the run early, nil when every
	// path was attempted.
	Aborted error
}

// Total returns the number of files attempted.
func (b BatchSummary) Total() int {
	return len(b.Processed) + len(b.Failed)
}
