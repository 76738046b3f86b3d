package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// # Format Errors (BSP001-BSP099)
//
//	BSP001 - Not a Quake II map: the file does not start with IBSP
//	BSP002 - Unsupported version: only version 38 maps are read
//	BSP003 - Corrupt lump directory: a lump points past the end of the file
//	BSP004 - Malformed origin: an item origin is not three coordinates
//
// # File Errors (IO001-IO099)
//
//	IO001 - File not found
//	IO002 - Permission denied
//	IO003 - Truncated file: the header or directory is incomplete
//	IO004 - Output directory could not be created
//	IO005 - Report could not be written
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Catalog missing
//	CAT002 - Catalog malformed
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Cancelled
//	RUN002 - Timed out
//	RUN003 - Item store failure
//
// ERR000 is the fallback when nothing matches. Classification only inspects
// the error chain with errors.Is and errors.As, never the message text: the
// text carries file paths and upload names, which callers control. The rule
// list is ordered and the first match wins, so wrappers such as the report
// and output directory errors come before the OS errors they wrap.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/JonMunkholm/bspitems/internal/bsp"
	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/report"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorRule struct {
	match func(error) bool
	msg   UserMessage
}

var (
	msgBadMagic = UserMessage{
		Message: "File is not a Quake II map",
		Action:  "Only IBSP files compiled for Quake II can be read",
		Code:    "BSP001",
	}
	msgBadVersion = UserMessage{
		Message: "Unsupported BSP version",
		Action:  "Recompile the map with a Quake II (version 38) compiler",
		Code:    "BSP002",
	}
	msgLumpBounds = UserMessage{
		Message: "Map file is corrupt",
		Action:  "The lump directory points past the end of the file; re-export or recompile the map",
		Code:    "BSP003",
	}
	msgOrigin = UserMessage{
		Message: "An item has a malformed origin",
		Action:  "Fix the origin in the map source so it has exactly three coordinates",
		Code:    "BSP004",
	}
	msgCatalogMissing = UserMessage{
		Message: "Item catalog not found",
		Action:  "Place item_map.json next to the program or set ITEM_MAP_PATH",
		Code:    "CAT001",
	}
	msgCatalogInvalid = UserMessage{
		Message: "Item catalog is not valid",
		Action:  "Check item_map.json for JSON syntax errors and entries without name or type",
		Code:    "CAT002",
	}
	msgReportWrite = UserMessage{
		Message: "Report could not be written",
		Action:  "Check free space and permissions in the output directory",
		Code:    "IO005",
	}
	msgOutputDir = UserMessage{
		Message: "Output directory could not be created",
		Action:  "Check permissions on the output location or set BSP_CSV_DIR",
		Code:    "IO004",
	}
)

// formatKind reports whether err carries a *bsp.FormatError of kind k.
func formatKind(k bsp.FormatKind) func(error) bool {
	return func(err error) bool {
		var fe *bsp.FormatError
		return errors.As(err, &fe) && fe.Kind == k
	}
}

// catalogMissing reports whether err is a *catalog.LoadError for an absent
// file; want=false matches malformed content instead.
func catalogMissing(want bool) func(error) bool {
	return func(err error) bool {
		var le *catalog.LoadError
		return errors.As(err, &le) && le.Missing == want
	}
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

var errorRules = []errorRule{
	{match: catalogMissing(true), msg: msgCatalogMissing},
	{match: catalogMissing(false), msg: msgCatalogInvalid},

	{match: formatKind(bsp.KindMagic), msg: msgBadMagic},
	{match: formatKind(bsp.KindVersion), msg: msgBadVersion},
	{match: formatKind(bsp.KindBounds), msg: msgLumpBounds},
	{
		match: func(err error) bool {
			var oe *extract.OriginError
			return errors.As(err, &oe)
		},
		msg: msgOrigin,
	},

	{match: is(report.ErrOutputDir), msg: msgOutputDir},
	{match: is(report.ErrWrite), msg: msgReportWrite},
	{
		match: is(ErrStore),
		msg: UserMessage{
			Message: "Items could not be stored in the database",
			Action:  "Check DATABASE_URL and that the database is reachable",
			Code:    "RUN003",
		},
	},

	{
		match: is(fs.ErrNotExist),
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check that the file still exists",
			Code:    "IO001",
		},
	},
	{
		match: is(fs.ErrPermission),
		msg: UserMessage{
			Message: "Permission denied",
			Action:  "Check file permissions",
			Code:    "IO002",
		},
	},
	{
		match: is(io.ErrUnexpectedEOF),
		msg: UserMessage{
			Message: "Map file is truncated",
			Action:  "The file is shorter than its header requires; copy it again",
			Code:    "IO003",
		},
	},

	{
		match: is(context.Canceled),
		msg: UserMessage{
			Message: "Processing was cancelled",
			Action:  "Run the batch again",
			Code:    "RUN001",
		},
	},
	{
		match: is(context.DeadlineExceeded),
		msg: UserMessage{
			Message: "Processing timed out",
			Action:  "Try again or process fewer files at once",
			Code:    "RUN002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log output for details",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// Fatal reports whether err must end the whole run rather than skip one file.
// Catalog failures and an uncreatable output directory are fatal.
func Fatal(err error) bool {
	var le *catalog.LoadError
	return errors.As(err, &le) || errors.Is(err, report.ErrOutputDir)
}
