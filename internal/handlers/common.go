package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lehigh-university-libraries/photobooth/internal/booth"
	"github.com/lehigh-university-libraries/photobooth/internal/filter"
	"github.com/lehigh-university-libraries/photobooth/internal/source"
	"github.com/lehigh-university-libraries/photobooth/internal/strip"
)

type Handler struct {
	booth *booth.Booth
	// runCtx bounds capture runs; request contexts end with the response
	runCtx     context.Context
	now        func() time.Time
	dateLayout string
}

func New(runCtx context.Context, b *booth.Booth, dateLayout string) *Handler {
	return &Handler{
		booth:      b,
		runCtx:     runCtx,
		now:        time.Now,
		dateLayout: dateLayout,
	}
}

// Routes wires the booth page and API onto a chi router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(requestLogger{}))
	r.Use(middleware.Recoverer)

	r.Get("/", h.HandleIndex)
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters", h.HandleFilters)
		r.Put("/filter", h.HandleSetFilter)
		r.Get("/preview.png", h.HandlePreview)

		r.Post("/session", h.HandleStartSession)
		r.Get("/session", h.HandleSessionStatus)
		r.Post("/session/reset", h.HandleResetSession)
		r.Get("/session/photos/{index}", h.HandlePhoto)
		r.Get("/session/strip", h.HandleStrip)

		r.Post("/strips", h.HandleComposeUpload)
	})
	return r
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

func (h *Handler) writePNG(w http.ResponseWriter, data []byte, attachment string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if attachment != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+attachment+`"`)
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write image response", "err", err)
	}
}

// errorStatus maps booth errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, source.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, booth.ErrSessionInProgress),
		errors.Is(err, strip.ErrNoStills),
		errors.Is(err, strip.ErrIncompleteStrip):
		return http.StatusConflict
	case errors.Is(err, booth.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, filter.ErrUnknownFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
