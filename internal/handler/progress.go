package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ugaemi/tapcoin-server/internal/metrics"
	"github.com/ugaemi/tapcoin-server/internal/progress"
	"github.com/ugaemi/tapcoin-server/internal/store"
)

// ProgressHandler loads and saves player progress.
type ProgressHandler struct {
	store   store.ProgressStore
	timeout time.Duration
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(store store.ProgressStore, timeout time.Duration) *ProgressHandler {
	return &ProgressHandler{
		store:   store,
		timeout: timeout,
	}
}

type loadResponse struct {
	Found bool          `json:"found"`
	Data  progress.Data `json:"data"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleLoad returns the saved progress of a player, or the default state
// if the player has never saved.
func (h *ProgressHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errMsgMethodNotAllowed)
		return
	}

	playerID := strings.TrimSpace(r.URL.Query().Get("player_id"))
	if playerID == "" {
		writeError(w, http.StatusBadRequest, errMsgPlayerIDRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.store.Get(ctx, playerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusOK, loadResponse{Found: false, Data: progress.Default(playerID).Data()})
	case err != nil:
		logger(r).Error("failed to load progress", "player_id", playerID, "error", err)
		writeError(w, http.StatusInternalServerError, errMsgInternal)
	default:
		writeJSON(w, http.StatusOK, loadResponse{Found: true, Data: p.Data()})
	}
}

// HandleSave stores the full progress of a player.
func (h *ProgressHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMsgMethodNotAllowed)
		return
	}

	var req progress.SaveRequest
	if err := decodeBody(w, r, &req); err != nil {
		logger(r).Warn("invalid save request", "error", err)
		writeError(w, http.StatusBadRequest, errMsgInvalidBody)
		return
	}
	if req.ID() == "" {
		writeError(w, http.StatusBadRequest, errMsgPlayerIDRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Upsert(ctx, req.Progress()); err != nil {
		logger(r).Error("failed to save progress", "player_id", req.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, errMsgInternal)
		return
	}

	metrics.ProgressSavesTotal.Inc()
	logger(r).Debug("progress saved", "player_id", req.ID())
	writeJSON(w, http.StatusOK, saveResponse{Success: true, Message: "Progress saved"})
}
