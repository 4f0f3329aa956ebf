package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/llmservice/internal/inference"
)

type HealthHandler struct {
	svc *inference.Service
}

func NewHealthHandler(svc *inference.Service) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health always answers 200; model readiness is reported in the body.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health())
}
