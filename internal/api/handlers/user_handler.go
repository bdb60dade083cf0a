package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/api/middlewares"
	"github.com/codeseed-ai/codeseed/internal/services"
)

type UserHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewUserHandler(auth *services.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{auth: auth, logger: logger}
}

// Data returns the profile fields the client renders in the navbar.
func (h *UserHandler) Data(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized. Login again")
		return
	}

	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load user")
		return
	}

	writeOK(w, map[string]any{
		"userData": map[string]any{
			"name":              user.Username,
			"isAccountVerified": user.IsAccountVerified,
		},
	})
}
