package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gridiron-labs/playcall/internal/models"
)

// IngestPlays handles POST /api/v1/ingest/plays
// @Summary Ingest Plays
// @Description Accepts newline-separated JSON play records from the play-by-play feed
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param body body []models.PlayRecord true "Plays"
// @Success 202 {object} map[string]interface{} "Accepted"
// @Failure 413 {object} map[string]string "Payload Too Large"
// @Router /ingest/plays [post]
func (h *Handler) IngestPlays(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	processed, rejected, dropped := 0, 0, 0
	lines := strings.Split(string(body), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var play models.PlayRecord
		if err := json.Unmarshal([]byte(line), &play); err != nil {
			h.logger.Warnw("Failed to unmarshal play in batch", "error", err, "lineNum", i)
			rejected++
			continue
		}
		if err := h.validator.Struct(&play); err != nil {
			h.logger.Warnw("Validation failed for play", "error", err, "lineNum", i, "game", play.GameID)
			rejected++
			continue
		}

		if !h.pool.Enqueue(&play) {
			h.logger.Warn("Worker pool queue full, dropping remaining plays in batch")
			dropped = countRemaining(lines[i:])
			break
		}
		processed++
	}

	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"status":    "accepted",
		"processed": processed,
		"rejected":  rejected,
		"dropped":   dropped,
	})
}

func countRemaining(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
