package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/JonMunkholm/bspitems/internal/bsp"
	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/report"
)

func TestMapError(t *testing.T) {
	notFound := &fs.PathError{Op: "open", Path: "x.bsp", Err: fs.ErrNotExist}
	denied := &fs.PathError{Op: "open", Path: "x.bsp", Err: fs.ErrPermission}

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"bad magic", &bsp.FormatError{Path: "x.bsp", Kind: bsp.KindMagic, Reason: "bad magic", Expected: "IBSP", Actual: `"VBSP"`}, "BSP001"},
		{"bad version", &bsp.FormatError{Path: "x.bsp", Kind: bsp.KindVersion, Reason: "unsupported version", Expected: "38", Actual: "29"}, "BSP002"},
		{"lump bounds", &bsp.FormatError{Path: "x.bsp", Kind: bsp.KindBounds, Reason: "lump 0 exceeds file size"}, "BSP003"},
		{"malformed origin", fmt.Errorf("x.bsp: %w", &extract.OriginError{ClassName: "item_quad", Origin: "1 2", Fields: 2}), "BSP004"},
		{"missing file", fmt.Errorf("opening bsp: %w", notFound), "IO001"},
		{"permission", denied, "IO002"},
		{"truncated", fmt.Errorf("x.bsp: reading version: %w", io.ErrUnexpectedEOF), "IO003"},
		{"output dir", fmt.Errorf("%w %s: %w", report.ErrOutputDir, "csv", fs.ErrPermission), "IO004"},
		{"report create", fmt.Errorf("%w: creating report: %w", report.ErrWrite, notFound), "IO005"},
		{"catalog missing", &catalog.LoadError{Path: "item_map.json", Missing: true, Err: fs.ErrNotExist}, "CAT001"},
		{"catalog invalid", &catalog.LoadError{Path: "item_map.json", Err: errors.New("invalid JSON")}, "CAT002"},
		{"cancelled", fmt.Errorf("operation cancelled: %w", context.Canceled), "RUN001"},
		{"timed out", fmt.Errorf("x.bsp: %w", context.DeadlineExceeded), "RUN002"},
		{"store", fmt.Errorf("%w: %w", ErrStore, errors.New("connection refused")), "RUN003"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

// Error text carries file and upload names; a name that reads like another
// failure must not change the classification.
func TestMapError_IgnoresMessageText(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"truncated file named bad magic", fmt.Errorf("bad magic.bsp: reading version: %w", io.ErrUnexpectedEOF), "IO003"},
		{"truncated upload named exceeds file size", fmt.Errorf("exceeds file size.bsp: reading directory: %w", io.ErrUnexpectedEOF), "IO003"},
		{"missing file named permission denied", &fs.PathError{Op: "open", Path: "permission denied.bsp", Err: fs.ErrNotExist}, "IO001"},
		{"plain text only", errors.New("bad magic"), "ERR000"},
		{"plain storing text", errors.New("storing items: connection refused"), "ERR000"},
		{"bounds error for a map named unsupported version", &bsp.FormatError{Path: "unsupported version.bsp", Kind: bsp.KindBounds, Reason: "lump 0 exceeds file size"}, "BSP003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%q).Code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestMapError_ReaderErrors(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad magic.bsp"
	if err := os.WriteFile(path, []byte("IBSP\x26\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := bsp.ReadEntities(path)
	if got := MapError(err).Code; got != "IO003" {
		t.Errorf("truncated read: code = %q, want IO003 (err: %v)", got, err)
	}

	_, err = bsp.ReadEntities(dir + "/bad magic missing.bsp")
	if got := MapError(err).Code; got != "IO001" {
		t.Errorf("missing read: code = %q, want IO001 (err: %v)", got, err)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(&bsp.FormatError{Path: "x.bsp", Kind: bsp.KindMagic, Reason: "bad magic"})
	want := "File is not a Quake II map (Code: BSP001). Only IBSP files compiled for Quake II can be read"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"catalog", fmt.Errorf("startup: %w", &catalog.LoadError{Path: "x", Missing: true}), true},
		{"output dir", fmt.Errorf("%w %s: %w", report.ErrOutputDir, "csv", fs.ErrPermission), true},
		{"format", &bsp.FormatError{Path: "x.bsp", Kind: bsp.KindMagic, Reason: "bad magic"}, false},
		{"report write", fmt.Errorf("%w: %w", report.ErrWrite, fs.ErrPermission), false},
		{"io", io.ErrUnexpectedEOF, false},
	}
	for _, tt := range tests {
		if got := Fatal(tt.err); got != tt.want {
			t.Errorf("Fatal(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
