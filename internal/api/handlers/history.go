package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/llmservice/internal/history"
)

type HistoryLister interface {
	List(ctx context.Context, userID string) ([]history.Entry, error)
}

type HistoryHandler struct {
	store HistoryLister
}

func NewHistoryHandler(store HistoryLister) *HistoryHandler {
	return &HistoryHandler{store: store}
}

type historyData struct {
	UserID        string          `json:"user_id"`
	History       []history.Entry `json:"history"`
	TotalMessages int             `json:"total_messages"`
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	entries, err := h.store.List(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load history", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to load history"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": historyData{
			UserID:        userID,
			History:       entries,
			TotalMessages: len(entries),
		},
	})
}
