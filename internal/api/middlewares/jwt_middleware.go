package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/codeseed-ai/codeseed/internal/core/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user ID stored by JWTAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// JWTAuth authenticates requests from the session cookie, falling back to an
// Authorization bearer header, and stores the user ID on the context.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ""
			if c, err := r.Cookie(auth.TokenCookie); err == nil {
				tokenStr = c.Value
			}
			if tokenStr == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					tokenStr = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if tokenStr == "" {
				unauthorized(w, "Not authorized. Login again")
				return
			}

			userID, err := auth.ParseToken(secret, tokenStr)
			if err != nil {
				unauthorized(w, "Not authorized. Login again")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
