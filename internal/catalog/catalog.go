// Package catalog maps item class names to display names and categories.
//
// A Catalog is built once per process with [Load] or [New] and is read-only
// afterwards; it is safe for concurrent use. The resource is a JSON document
// keyed by game version, then by free-form category label, then by class name:
//
//	{
//	  "Q2": {
//	    "weapons": {
//	      "weapon_shotgun": {"name": "Shotgun", "type": "weapon"}
//	    }
//	  }
//	}
//
// Lookups scan categories in document order and the first match wins.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UnknownType is the category reported for class names missing from the catalog.
const UnknownType = "unknown"

// Entry is the display metadata for one class name.
type Entry struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// Fallback returns the synthesized entry for an unknown class name.
func Fallback(className string) Entry {
	return Entry{Name: className, Type: UnknownType}
}

type category struct {
	label   string
	entries map[string]Entry
}

// Catalog is an immutable class name lookup table.
type Catalog struct {
	versions map[string][]category

	// index holds the first-match entry per class name, resolved once
	// from versions so Lookup is a single map read.
	index map[string]map[string]Entry
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and parses the catalog resource at path.
// A missing file and malformed content are both reported as *LoadError.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Missing: errors.Is(err, fs.ErrNotExist), Err: err}
	}

	c, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return c, nil
}

// Parse builds a Catalog from a JSON document.
func Parse(data []byte) (*Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	versions := make(map[string][]category, len(top))
	for version, raw := range top {
		cats, err := decodeCategories(raw)
		if err != nil {
			return nil, fmt.Errorf("game version %q: %w", version, err)
		}
		for _, cat := range cats {
			for className, entry := range cat.entries {
				if err := validate.Struct(entry); err != nil {
					return nil, fmt.Errorf("game version %q, category %q, class %q: %w", version, cat.label, className, err)
				}
			}
		}
		versions[version] = cats
	}

	return newCatalog(versions), nil
}

// decodeCategories decodes one game version object keeping category order.
func decodeCategories(raw json.RawMessage) ([]category, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object of categories, got %v", tok)
	}

	var cats []category
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		label, _ := tok.(string)

		var entries map[string]Entry
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("category %q: %w", label, err)
		}
		cats = append(cats, category{label: label, entries: entries})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return cats, nil
}

// New builds a Catalog from nested maps. Categories are ordered by label.
// Intended for tests and embedding callers that already hold the data.
func New(data map[string]map[string]map[string]Entry) *Catalog {
	versions := make(map[string][]category, len(data))
	for version, byCategory := range data {
		labels := make([]string, 0, len(byCategory))
		for label := range byCategory {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		cats := make([]category, 0, len(labels))
		for _, label := range labels {
			cats = append(cats, category{label: label, entries: byCategory[label]})
		}
		versions[version] = cats
	}
	return newCatalog(versions)
}

func newCatalog(versions map[string][]category) *Catalog {
	index := make(map[string]map[string]Entry, len(versions))
	for version, cats := range versions {
		flat := make(map[string]Entry)
		for _, cat := range cats {
			for className, e := range cat.entries {
				if _, seen := flat[className]; !seen {
					flat[className] = e
				}
			}
		}
		index[version] = flat
	}
	return &Catalog{versions: versions, index: index}
}

// Lookup returns the entry for className under version, or [Fallback].
func (c *Catalog) Lookup(version, className string) Entry {
	if e, ok := c.index[version][className]; ok {
		return e
	}
	return Fallback(className)
}

// HasVersion reports whether the catalog has a section for version.
func (c *Catalog) HasVersion(version string) bool {
	_, ok := c.versions[version]
	return ok
}

// Versions returns the game versions present, sorted.
func (c *Catalog) Versions() []string {
	out := make([]string, 0, len(c.versions))
	for v := range c.versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries under version, counting a class name
// once per category that lists it.
func (c *Catalog) Len(version string) int {
	n := 0
	for _, cat := range c.versions[version] {
		n += len(cat.entries)
	}
	return n
}

// LoadError reports a catalog resource that is missing or malformed.
// It is fatal to the whole run.
type LoadError struct {
	Path    string
	Missing bool
	Err     error
}

func (e *LoadError) Error() string {
	if e.Missing {
		return fmt.Sprintf("item catalog %s not found. Please ensure the file exists", e.Path)
	}
	return fmt.Sprintf("invalid item catalog %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GameVersion identifies a catalog namespace.
type GameVersion string

// Quake2 is the only game version with extraction support.
const Quake2 GameVersion = "Q2"

var supportedVersions = []GameVersion{Quake2}

// ParseGameVersion validates s against the supported game versions.
func ParseGameVersion(s string) (GameVersion, error) {
	for _, v := range supportedVersions {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported game version %q", s)
}
