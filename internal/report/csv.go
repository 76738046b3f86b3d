// Package report writes extracted items as CSV files.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JonMunkholm/bspitems/internal/extract"
)

// Columns is the header row of every report.
var Columns = []string{"friendly_name", "class_name", "item_type", "x", "y", "z"}

// CommentPrefix starts the optional map name line.
const CommentPrefix = "# Map: "

// Options control report layout and naming.
type Options struct {
	// SimpleNames names reports after the BSP file only (q2dm1.csv) instead of
	// appending the snake-cased map name (q2dm1_the_edge.csv).
	SimpleNames bool

	// IncludeMapName writes a "# Map: <name>" line before the header.
	IncludeMapName bool
}

// Write serializes items to w. The map name comment is written only when
// opts.IncludeMapName is set and mapName is not empty.
func Write(w io.Writer, items []extract.Item, mapName string, opts Options) error {
	if opts.IncludeMapName && mapName != "" {
		if _, err := io.WriteString(w, CommentPrefix+mapName+"\n"); err != nil {
			return fmt.Errorf("writing map comment: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, it := range items {
		if err := cw.Write([]string{it.FriendlyName, it.ClassName, it.ItemType, it.X, it.Y, it.Z}); err != nil {
			return fmt.Errorf("writing row %s: %w", it.ClassName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrWrite is matched by every WriteFile failure.
var ErrWrite = errors.New("cannot write report")

// WriteFile writes a report to path, replacing any existing file.
func WriteFile(path string, items []extract.Item, mapName string, opts Options) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing report: %w", cerr)
		}
	}()

	return Write(f, items, mapName, opts)
}

var nonWord = regexp.MustCompile(`[^\w]`)

// SnakeCase replaces every non-word character with '_' and lowercases.
func SnakeCase(name string) string {
	return strings.ToLower(nonWord.ReplaceAllString(name, "_"))
}

// FileName returns the report filename for a BSP file.
func FileName(bspPath, mapName string, opts Options) string {
	base := strings.TrimSuffix(filepath.Base(bspPath), filepath.Ext(bspPath))
	if opts.SimpleNames {
		return base + ".csv"
	}
	return base + "_" + SnakeCase(mapName) + ".csv"
}

// ErrOutputDir is matched by EnsureDir failures.
var ErrOutputDir = errors.New("cannot create output directory")

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputDir, dir, err)
	}
	return nil
}
