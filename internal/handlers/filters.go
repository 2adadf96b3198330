package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/photobooth/internal/filter"
)

func (h *Handler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"filters":  filter.All(),
		"selected": h.booth.Filter(),
	}
	h.writeJSON(w, response)
}

func (h *Handler) HandleSetFilter(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Filter string `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	f, err := filter.Parse(request.Filter)
	if err != nil {
		h.writeError(w, err.Error(), errorStatus(err))
		return
	}
	h.booth.SetFilter(f)
	h.writeJSON(w, map[string]any{"selected": f})
}

func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	still, err := h.booth.Preview(r.Context())
	if err != nil {
		h.writeError(w, "Unable to read live frame: "+err.Error(), errorStatus(err))
		return
	}
	h.writePNG(w, still.PNG(), "")
}
