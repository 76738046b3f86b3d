package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and request ID, then
// returned to the client as an ErrorResponse built from core.MapError, so the
// HTTP service and the CLI report the same codes.

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/bspitems/internal/bsp"
	"github.com/JonMunkholm/bspitems/internal/core"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// Request errors that have no counterpart in core.
var (
	msgBodyTooLarge = core.UserMessage{
		Message: "Uploaded map is too large",
		Action:  "Send a smaller file or raise SERVER_MAX_UPLOAD_SIZE",
		Code:    "REQ001",
	}
	msgEmptyBody = core.UserMessage{
		Message: "Request body is empty",
		Action:  "Send the raw .bsp file as the request body",
		Code:    "REQ002",
	}
	msgBadQuery = core.UserMessage{
		Message: "Invalid query parameter",
		Action:  "full_names and comments accept true or false",
		Code:    "REQ003",
	}
	msgBusy = core.UserMessage{
		Message: "Server is busy",
		Action:  "Retry in a few seconds",
		Code:    "REQ004",
	}
	msgRateLimited = core.UserMessage{
		Message: "Rate limit exceeded",
		Action:  "Wait a minute before sending more requests",
		Code:    "REQ005",
	}
)

// statusFor picks the HTTP status for an extraction error. Problems with the
// uploaded file are the client's fault and map to 422.
func statusFor(err error) int {
	var oe *extract.OriginError
	switch {
	case errors.Is(err, bsp.ErrFormat), errors.As(err, &oe), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := core.MapError(err)
	if errors.Is(err, ErrBusy) {
		msg = msgBusy
	}
	s.respondMessage(w, r, err, msg, statusCode)
}

// respondMessage logs err and writes msg.
func (s *Server) respondMessage(w http.ResponseWriter, r *http.Request, err error, msg core.UserMessage, statusCode int) {
	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"code", msg.Code,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	writeErrorJSON(w, msg, statusCode)
}

// writeErrorJSON writes a JSON error response.
func writeErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
