package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/llmservice/internal/inference"
	"github.com/nikhilbhutani/llmservice/internal/storage"
)

type AudioHandler struct {
	svc *inference.Service
}

func NewAudioHandler(svc *inference.Service) *AudioHandler {
	return &AudioHandler{svc: svc}
}

func (h *AudioHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Audio(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", storage.ContentTypeWAV)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
