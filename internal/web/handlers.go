package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/core"
	"github.com/JonMunkholm/bspitems/internal/logging"
	"github.com/JonMunkholm/bspitems/internal/metrics"
	"github.com/JonMunkholm/bspitems/internal/report"
)

// defaultUploadName labels an upload sent without ?name=.
const defaultUploadName = "upload" + core.MapExt

// CatalogEntryResponse is the body of GET /api/catalog/{classname}.
type CatalogEntryResponse struct {
	ClassName string `json:"classname"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Version   string `json:"version"`
	Known     bool   `json:"known"`
}

// CatalogSummaryResponse is the body of GET /api/catalog.
type CatalogSummaryResponse struct {
	Active   string         `json:"active"`
	Versions map[string]int `json:"versions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

// handleExtract reads a raw BSP from the body and answers with its CSV report.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	opts, err := reportOptions(r, s.service.Options())
	if err != nil {
		s.respondMessage(w, r, err, msgBadQuery, http.StatusBadRequest)
		return
	}

	name := filepath.Base(r.URL.Query().Get("name"))
	if name == "." || name == "/" {
		name = defaultUploadName
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer s.limiter.Release()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondMessage(w, r, err, msgBodyTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("reading request body: %w", err), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		s.respondMessage(w, r, nil, msgEmptyBody, http.StatusBadRequest)
		return
	}

	ex, cached := s.cache.Get(data, name)
	if !cached {
		ex, err = s.service.ExtractBytes(name, data)
		if err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		s.cache.Set(data, ex)
	}

	// Render first so a write failure can still become an error response.
	var buf bytes.Buffer
	if err := report.Write(&buf, ex.Items, ex.MapName, opts); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("map extracted",
		"file", name,
		"map_name", ex.MapName,
		"items", len(ex.Items),
		"cached", cached,
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(name, ex.MapName, opts)))
	w.Header().Set("X-Map-Name", ex.MapName)
	w.Header().Set("X-Item-Count", strconv.Itoa(len(ex.Items)))
	w.Header().Set("X-Cache", cacheStatus(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// reportOptions applies ?full_names= and ?comments= on top of base.
func reportOptions(r *http.Request, base report.Options) (report.Options, error) {
	q := r.URL.Query()
	opts := base

	if v := q.Get("full_names"); v != "" {
		full, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("full_names: %w", err)
		}
		opts.SimpleNames = !full
	}
	if v := q.Get("comments"); v != "" {
		comments, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("comments: %w", err)
		}
		opts.IncludeMapName = comments
	}
	return opts, nil
}

func (s *Server) handleCatalogLookup(w http.ResponseWriter, r *http.Request) {
	className := chi.URLParam(r, "classname")
	version := r.URL.Query().Get("version")
	if version == "" {
		version = string(s.version)
	}

	e := s.catalog.Lookup(version, className)
	writeJSON(w, http.StatusOK, CatalogEntryResponse{
		ClassName: className,
		Name:      e.Name,
		Type:      e.Type,
		Version:   version,
		Known:     e != catalog.Fallback(className),
	})
}

func (s *Server) handleCatalogSummary(w http.ResponseWriter, r *http.Request) {
	resp := CatalogSummaryResponse{
		Active:   string(s.version),
		Versions: make(map[string]int),
	}
	for _, v := range s.catalog.Versions() {
		resp.Versions[v] = s.catalog.Len(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

func cacheStatus(hit bool) string {
	if hit {
		return metrics.CacheHit
	}
	return metrics.CacheMiss
}
