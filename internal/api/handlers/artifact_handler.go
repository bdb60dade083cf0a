package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/services"
)

type ArtifactHandler struct {
	publisher *services.PublishService // nil when object storage is unconfigured
	logger    *zap.Logger
}

func NewArtifactHandler(publisher *services.PublishService, logger *zap.Logger) *ArtifactHandler {
	return &ArtifactHandler{publisher: publisher, logger: logger}
}

// Publish archives the artifact's files and uploads them, returning a
// shareable URL.
func (h *ArtifactHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if h.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "Publishing is not configured")
		return
	}

	var req struct {
		Title string                 `json:"title"`
		Files []services.PublishFile `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := h.publisher.Publish(r.Context(), userID, req.Title, req.Files)
	if errors.Is(err, services.ErrNoFiles) {
		writeError(w, http.StatusBadRequest, "At least one file is required")
		return
	}
	if err != nil {
		h.logger.Error("publish failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "publish failed")
		return
	}
	writeOK(w, map[string]any{"url": url})
}
