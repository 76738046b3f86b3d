// Package bsp reads the id Tech 2 (Quake II) compiled map format, version 38.
//
// Only the file header and the lump directory are decoded. The entity lump
// (directory entry 0) is returned as raw bytes for the entity parser; the
// remaining geometry and visibility lumps are never touched.
package bsp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// Magic is the 4-byte identifier at the start of every Quake II BSP.
	Magic = "IBSP"

	// Version is the only supported format revision.
	Version = 38

	// LumpCount is the fixed number of directory entries following the header.
	LumpCount = 19

	// LumpEntities is the directory index of the entity text lump.
	LumpEntities = 0

	// HeaderSize is the length of magic, version and directory together;
	// no lump can start before it.
	HeaderSize = 8 + LumpCount*8
)

// LumpEntry is one (offset, length) pair of the lump directory.
type LumpEntry struct {
	Offset uint32
	Length uint32
}

// End returns the first byte past the lump, computed without overflow.
func (e LumpEntry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Length)
}

// Directory is the fixed lump directory in file order.
type Directory [LumpCount]LumpEntry

// Header is the decoded file header and directory of a BSP file.
type Header struct {
	Magic     [4]byte
	Version   int32
	Directory Directory
}

// Reader gives bounded access to the lumps of one BSP file.
type Reader struct {
	name   string
	src    io.ReaderAt
	size   int64
	header Header
}

// NewReader validates the header and directory of src and returns a Reader.
// name is used in error messages only. size must be the total length of src.
func NewReader(src io.ReaderAt, size int64, name string) (*Reader, error) {
	r := &Reader{name: name, src: src, size: size}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// readHeader decodes magic, version and directory in that order so a foreign
// file is rejected before its directory is interpreted.
func (r *Reader) readHeader() error {
	sr := io.NewSectionReader(r.src, 0, r.size)

	if err := binary.Read(sr, binary.LittleEndian, &r.header.Magic); err != nil {
		return r.ioError("reading magic", err)
	}
	if string(r.header.Magic[:]) != Magic {
		return &FormatError{
			Path:     r.name,
			Kind:     KindMagic,
			Reason:   "bad magic",
			Expected: Magic,
			Actual:   fmt.Sprintf("%q", r.header.Magic[:]),
		}
	}

	if err := binary.Read(sr, binary.LittleEndian, &r.header.Version); err != nil {
		return r.ioError("reading version", err)
	}
	if r.header.Version != Version {
		return &FormatError{
			Path:     r.name,
			Kind:     KindVersion,
			Reason:   "unsupported version",
			Expected: fmt.Sprint(Version),
			Actual:   fmt.Sprint(r.header.Version),
		}
	}

	if err := binary.Read(sr, binary.LittleEndian, &r.header.Directory); err != nil {
		return r.ioError("reading lump directory", err)
	}
	return nil
}

// Header returns the decoded header.
func (r *Reader) Header() Header {
	return r.header
}

// Lump returns the raw bytes of directory entry index.
// The entry is checked against the file size before any read happens.
func (r *Reader) Lump(index int) ([]byte, error) {
	if index < 0 || index >= LumpCount {
		return nil, fmt.Errorf("%s: lump index %d out of range [0,%d)", r.name, index, LumpCount)
	}

	entry := r.header.Directory[index]
	if entry.End() > uint64(r.size) {
		return nil, &FormatError{
			Path:     r.name,
			Kind:     KindBounds,
			Reason:   fmt.Sprintf("lump %d exceeds file size", index),
			Expected: fmt.Sprintf("end <= %d", r.size),
			Actual:   fmt.Sprintf("offset %d + length %d = %d", entry.Offset, entry.Length, entry.End()),
		}
	}

	data := make([]byte, entry.Length)
	n, err := r.src.ReadAt(data, int64(entry.Offset))
	if err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
		return nil, r.ioError(fmt.Sprintf("reading lump %d", index), err)
	}
	return data, nil
}

// Entities returns the raw entity lump.
func (r *Reader) Entities() ([]byte, error) {
	return r.Lump(LumpEntities)
}

func (r *Reader) ioError(op string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%s: %s: %w", r.name, op, err)
}

// ReadEntities opens the BSP file at path and returns its entity lump.
func ReadEntities(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bsp: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	r, err := NewReader(f, info.Size(), path)
	if err != nil {
		return nil, err
	}
	return r.Entities()
}
