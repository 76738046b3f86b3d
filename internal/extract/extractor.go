// Package extract turns parsed entity records into collectible item rows.
package extract

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/entity"
)

// NoOrigin is written to every coordinate of an entity without an origin.
const NoOrigin = "N/A"

// ItemPrefixes are the class name prefixes of collectible entities.
var ItemPrefixes = []string{"item_", "weapon_", "ammo_", "holdable_"}

// Resolver maps a class name to catalog metadata. *catalog.Catalog implements it.
type Resolver interface {
	Lookup(version, className string) catalog.Entry
}

// Item is one output row.
type Item struct {
	ClassName    string
	FriendlyName string
	ItemType     string
	X, Y, Z      string
}

// IsItem reports whether className carries one of the ItemPrefixes.
// Matching is case-sensitive.
func IsItem(className string) bool {
	for _, p := range ItemPrefixes {
		if strings.HasPrefix(className, p) {
			return true
		}
	}
	return false
}

// Extractor filters records and resolves them against a catalog.
type Extractor struct {
	resolver Resolver
	version  catalog.GameVersion
}

// New returns an Extractor resolving class names under version.
func New(resolver Resolver, version catalog.GameVersion) *Extractor {
	return &Extractor{resolver: resolver, version: version}
}

// Extract returns one Item per collectible record, in input order.
// A malformed origin fails the whole call with an *OriginError.
func (e *Extractor) Extract(records []entity.Record) ([]Item, error) {
	items := make([]Item, 0, len(records))

	for _, rec := range records {
		className, ok := rec.ClassName()
		if !ok || !IsItem(className) {
			continue
		}

		x, y, z, err := SplitOrigin(rec)
		if err != nil {
			return nil, err
		}

		info := e.resolver.Lookup(string(e.version), className)
		items = append(items, Item{
			ClassName:    className,
			FriendlyName: info.Name,
			ItemType:     info.Type,
			X:            x,
			Y:            y,
			Z:            z,
		})
	}

	return items, nil
}

// SplitOrigin returns the three origin tokens of rec as text.
// A record without an origin yields NoOrigin for every coordinate.
func SplitOrigin(rec entity.Record) (x, y, z string, err error) {
	origin, ok := rec[entity.KeyOrigin]
	if !ok {
		return NoOrigin, NoOrigin, NoOrigin, nil
	}

	fields := strings.Fields(origin)
	if len(fields) != 3 {
		cls, _ := rec.ClassName()
		return "", "", "", &OriginError{ClassName: cls, Origin: origin, Fields: len(fields)}
	}
	return fields[0], fields[1], fields[2], nil
}

// OriginError reports an origin value that is not exactly three tokens.
type OriginError struct {
	ClassName string
	Origin    string
	Fields    int
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("malformed origin %q on %s: expected 3 coordinates, got %d", e.Origin, e.ClassName, e.Fields)
}
