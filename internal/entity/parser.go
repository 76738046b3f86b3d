// Package entity parses the text entity lump of a BSP file into key/value records.
package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	// KeyClassName holds the type identifier of a placed object.
	KeyClassName = "classname"

	// KeyMessage holds the descriptive map name on the world record.
	KeyMessage = "message"

	// KeyOrigin holds the "x y z" placement of an entity.
	KeyOrigin = "origin"

	// ClassWorldspawn identifies the level metadata record.
	ClassWorldspawn = "worldspawn"

	// UnknownMapName is used when the world record or its message is absent.
	UnknownMapName = "Unknown"
)

// Record is one {...} block of the entity lump.
type Record map[string]string

// ClassName returns the classname value and whether it was set.
func (r Record) ClassName() (string, bool) {
	v, ok := r[KeyClassName]
	return v, ok
}

// Result is the parsed entity lump.
type Result struct {
	// World is the worldspawn record, nil when the lump has none.
	World Record

	// Entities holds every other non-empty record in the order it was closed.
	Entities []Record
}

// MapName returns the world message, or UnknownMapName.
func (r Result) MapName() string {
	if r.World == nil {
		return UnknownMapName
	}
	if name, ok := r.World[KeyMessage]; ok {
		return name
	}
	return UnknownMapName
}

// asciiOnly drops every byte that is not 7-bit ASCII, including invalid UTF-8.
var asciiOnly = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
}))

// Decode converts raw lump bytes to text. Non-ASCII bytes are dropped so
// binary noise at the end of a lump never fails the parse.
func Decode(raw []byte) string {
	// Remove cannot fail on complete input.
	out, _, _ := transform.Bytes(asciiOnly, raw)
	return string(out)
}

// state of the line scanner.
type state int

const (
	outside state = iota
	inside
)

// Parse decodes raw and splits it into records.
func Parse(raw []byte) Result {
	return ParseText(Decode(raw))
}

// ParseText splits already-decoded lump text into records.
//
// A "{" line opens a record, discarding any unterminated one. A "}" line
// closes the open record; empty records are dropped. Lines that are not a
// key/value pair, and pairs outside a record, are ignored.
func ParseText(text string) Result {
	var (
		res     Result
		st      = outside
		current Record
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue

		case line == "{":
			current = Record{}
			st = inside

		case line == "}":
			if st == inside && len(current) > 0 {
				if cls, _ := current.ClassName(); cls == ClassWorldspawn {
					res.World = current
				} else {
					res.Entities = append(res.Entities, current)
				}
			}
			current = nil
			st = outside

		case st == inside:
			if key, value, ok := SplitPair(line); ok {
				current[key] = value
			}
		}
	}

	return res
}

// SplitPair parses a `"key" "value"` line.
//
// The key runs from the first quote to the next quote and must not be empty.
// Exactly one space separates it from the opening quote of the value, and the
// value runs to the last quote on the line. Anything after that quote is
// ignored. No escape sequences are recognized.
func SplitPair(line string) (key, value string, ok bool) {
	if !strings.HasPrefix(line, `"`) {
		return "", "", false
	}
	rest := line[1:]

	end := strings.IndexByte(rest, '"')
	if end <= 0 {
		return "", "", false
	}
	key, rest = rest[:end], rest[end+1:]

	if !strings.HasPrefix(rest, ` "`) {
		return "", "", false
	}
	rest = rest[2:]

	last := strings.LastIndexByte(rest, '"')
	if last <= 0 {
		return "", "", false
	}
	return key, rest[:last], true
}
