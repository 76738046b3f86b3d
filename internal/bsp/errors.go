package bsp

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every *FormatError via errors.Is.
var ErrFormat = errors.New("invalid Q2 BSP file")

// FormatKind classifies a FormatError.
type FormatKind int

const (
	KindMagic   FormatKind = iota + 1 // first four bytes are not IBSP
	KindVersion                       // version is not 38
	KindBounds                        // a lump ends past the end of the file
)

// FormatError reports a structural problem with one BSP file.
type FormatError struct {
	Path     string
	Kind     FormatKind
	Reason   string
	Expected string
	Actual   string
}

func (e *FormatError) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return fmt.Sprintf("invalid Q2 BSP file %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid Q2 BSP file %s: %s (expected %s, got %s)", e.Path, e.Reason, e.Expected, e.Actual)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}
