package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pliu/quickchat/internal/auth"
	"github.com/pliu/quickchat/internal/models"
	"github.com/pliu/quickchat/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// Auth verifies the bearer credential in the "token" header (the
// header name is part of the client contract), loads the user it was
// issued for and stores it in the request context.
func Auth(issuer *auth.Issuer, s store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("token")
			if token == "" {
				unauthorized(w, "Token not provided")
				return
			}

			userID, err := issuer.Verify(token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			user, err := s.GetUserByID(userID)
			if err != nil {
				unauthorized(w, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user, or nil outside an
// Auth-wrapped handler.
func UserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}
