package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/lehigh-university-libraries/photobooth/internal/capture"
	"github.com/lehigh-university-libraries/photobooth/internal/filter"
	"github.com/lehigh-university-libraries/photobooth/internal/strip"
)

const maxUploadSize = 10 * 1024 * 1024

// HandleComposeUpload builds a strip from uploaded stills, one per slot
func (h *Handler) HandleComposeUpload(w http.ResponseWriter, r *http.Request) {
	count := h.booth.Settings().PhotoCount
	if err := r.ParseMultipartForm(int64(count) * maxUploadSize); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}
	if len(headers) != count {
		h.writeError(w, fmt.Sprintf("Expected %d images, got %d", count, len(headers)), http.StatusBadRequest)
		return
	}

	f, err := filter.Parse(r.FormValue("filter"))
	if err != nil {
		h.writeError(w, err.Error(), errorStatus(err))
		return
	}

	label := r.FormValue("label")
	if label == "" {
		label = strip.DateLabel(h.now(), h.dateLayout)
	}

	images := make([]image.Image, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		file.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(data) > maxUploadSize {
			h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
			return
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			h.writeError(w, fmt.Sprintf("%s is not an image: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		still, err := capture.Take(img, f, h.now())
		if err != nil {
			h.writeError(w, fmt.Sprintf("%s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		images = append(images, still.Image())
	}

	canvas, err := strip.Compose(images, count, label)
	if err != nil {
		h.writeError(w, "Unable to build strip: "+err.Error(), errorStatus(err))
		return
	}
	data, err := strip.Encode(canvas)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writePNG(w, data, strip.Filename)
}
