// Package bsptest builds synthetic BSP files for tests.
package bsptest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/bspitems/internal/bsp"
)

// Options control the generated header.
type Options struct {
	Magic   string
	Version int32
}

// Build returns a valid version 38 BSP whose entity lump holds entities.
func Build(entities string) []byte {
	return BuildWith(Options{Magic: bsp.Magic, Version: bsp.Version}, entities)
}

// BuildWith returns a BSP with the given header and entity lump. The entity
// lump is placed right after the directory and every other lump is empty.
func BuildWith(opts Options, entities string) []byte {
	var buf bytes.Buffer

	magic := [4]byte{}
	copy(magic[:], opts.Magic)
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, opts.Version)

	var dir bsp.Directory
	dir[bsp.LumpEntities] = bsp.LumpEntry{
		Offset: bsp.HeaderSize,
		Length: uint32(len(entities)),
	}
	_ = binary.Write(&buf, binary.LittleEndian, dir)

	buf.WriteString(entities)
	return buf.Bytes()
}

// WriteFile writes data to name inside dir and returns the full path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
