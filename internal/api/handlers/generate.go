package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nikhilbhutani/llmservice/internal/inference"
)

const maxBodyBytes = 1 << 20

type GenerateHandler struct {
	svc *inference.Service
}

func NewGenerateHandler(svc *inference.Service) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req inference.GenerateRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		// Empty body: same as a missing message.
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	resp, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
