package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gridiron-labs/playcall/internal/logic"
	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/trie"
)

// Predict ranks the next play call for a drive in progress
// @Summary Predict Next Play
// @Tags Model
// @Accept json
// @Produce json
// @Param body body models.PredictRequest true "Situation and drive so far"
// @Success 200 {object} models.PlayPrediction
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /predict [post]
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	pred, err := h.prediction.Predict(r.Context(), &req)
	if err != nil {
		var symErr *models.InvalidSymbolError
		switch {
		case errors.As(err, &symErr), errors.Is(err, trie.ErrInvalidK):
			h.errorResponse(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Errorw("Failed to predict", "error", err)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to predict")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, pred)
}

// GetModelStats returns registry statistics and fallback counters
// @Summary Model Statistics
// @Tags Model
// @Produce json
// @Success 200 {object} models.ModelStats
// @Router /model/stats [get]
func (h *Handler) GetModelStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.prediction.GetModelStats(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to get model stats", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to get model stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// SaveSnapshot persists the live registry
// @Summary Save Snapshot
// @Tags Model
// @Produce json
// @Success 201 {object} models.SnapshotInfo
// @Failure 503 {object} map[string]string "No snapshot store"
// @Router /model/snapshot [post]
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := h.prediction.SaveSnapshot(r.Context())
	if err != nil {
		h.snapshotError(w, "save", err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, info)
}

// ReloadSnapshot swaps the live registry for the latest stored snapshot
// @Summary Reload Snapshot
// @Tags Model
// @Produce json
// @Success 200 {object} models.SnapshotInfo
// @Failure 404 {object} map[string]string "No snapshot stored"
// @Failure 503 {object} map[string]string "No snapshot store"
// @Router /model/reload [post]
func (h *Handler) ReloadSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := h.prediction.ReloadSnapshot(r.Context())
	if err != nil {
		h.snapshotError(w, "reload", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, info)
}

func (h *Handler) snapshotError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, logic.ErrNoSnapshotStore):
		h.errorResponse(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, logic.ErrNoSnapshot):
		h.errorResponse(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorw("Snapshot operation failed", "op", op, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Snapshot "+op+" failed")
	}
}
