package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/api/middlewares"
	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/core/auth"
	"github.com/codeseed-ai/codeseed/internal/services"
)

type AuthHandler struct {
	auth      *services.AuthService
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, jwtSecret: jwtSecret, logger: logger}
}

// setSessionCookie attaches a 7-day httpOnly session cookie.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, userID string) error {
	token, err := auth.IssueToken(h.jwtSecret, userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing details")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, services.ErrUserExists) {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		h.logger.Error("register failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := h.setSessionCookie(w, user.ID); err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeOK(w, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := h.setSessionCookie(w, user.ID); err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeOK(w, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	writeOK(w, map[string]any{"message": "Logged Out"})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
		writeError(w, http.StatusBadRequest, "Google credential is required")
		return
	}

	user, err := h.auth.GoogleLogin(r.Context(), req.Credential)
	if err != nil {
		h.logger.Warn("google login failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "Google sign-in failed")
		return
	}

	if err := h.setSessionCookie(w, user.ID); err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeOK(w, nil)
}

func (h *AuthHandler) SendVerifyOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized. Login again")
		return
	}

	err := h.auth.SendVerifyOTP(r.Context(), userID)
	if errors.Is(err, services.ErrAlreadyVerified) {
		writeError(w, http.StatusBadRequest, "Account already verified")
		return
	}
	if err != nil {
		h.logger.Error("send verify otp failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not send verification code")
		return
	}
	writeOK(w, map[string]any{"message": "Verification OTP sent on Email"})
}

func (h *AuthHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized. Login again")
		return
	}

	var req struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "OTP is required")
		return
	}

	err := h.auth.VerifyEmail(r.Context(), userID, req.OTP)
	if errors.Is(err, services.ErrInvalidOTP) {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	if err != nil {
		h.logger.Error("verify account failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	writeOK(w, map[string]any{"message": "Email verified successfully"})
}

// IsAuthenticated only runs behind JWTAuth, so reaching it means success.
func (h *AuthHandler) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	writeOK(w, nil)
}

func (h *AuthHandler) SendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	err := h.auth.SendResetOTP(r.Context(), req.Email)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("send reset otp failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not send reset code")
		return
	}
	writeOK(w, map[string]any{"message": "OTP sent to your email"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Email, OTP and new password are required")
		return
	}

	err := h.auth.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword)
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrInvalidOTP):
		writeError(w, http.StatusBadRequest, "Invalid OTP")
	case err != nil:
		h.logger.Error("reset password failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "password reset failed")
	default:
		writeOK(w, map[string]any{"message": "Password has been reset successfully"})
	}
}
