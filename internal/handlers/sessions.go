package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	if err := h.booth.Start(h.runCtx); err != nil {
		h.writeError(w, "Unable to start session: "+err.Error(), errorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	h.writeJSON(w, h.booth.Status())
}

func (h *Handler) HandleSessionStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.booth.Status())
}

func (h *Handler) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.booth.Reset(); err != nil {
		h.writeError(w, "Unable to reset session: "+err.Error(), errorStatus(err))
		return
	}
	h.writeJSON(w, h.booth.Status())
}

func (h *Handler) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, "Invalid photo index", http.StatusBadRequest)
		return
	}

	photo, err := h.booth.Photo(index)
	if err != nil {
		h.writeError(w, err.Error(), errorStatus(err))
		return
	}
	h.writePNG(w, photo.PNG(), "")
}

func (h *Handler) HandleStrip(w http.ResponseWriter, r *http.Request) {
	rs := &responseSink{h: h, w: w}
	if _, err := h.booth.Download(r.Context(), rs); err != nil {
		if rs.written {
			return
		}
		h.writeError(w, "Unable to build strip: "+err.Error(), errorStatus(err))
	}
}

// responseSink delivers a saved image as a browser download
type responseSink struct {
	h       *Handler
	w       http.ResponseWriter
	written bool
}

func (s *responseSink) Save(ctx context.Context, filename string, data []byte) (string, error) {
	s.written = true
	s.h.writePNG(s.w, data, filename)
	return filename, nil
}
