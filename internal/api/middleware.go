package api

// This file contains the middleware for authentication, role-based
// authorization and member selection.

import (
	"context"
	"net/http"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/models"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey string

const (
	userContextKey = contextKey("user")
	appContextKey  = contextKey("app-context")

	// MemberHeader selects the active member for a request.
	MemberHeader = "X-Member-ID"
)

// AuthMiddleware verifies a user's session.
// If the session is valid, it retrieves the user's details from the database
// and injects them into the request's context for downstream handlers to use.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_token")
		if err != nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: No session token")
			return
		}

		user, err := s.store.GetUserFromSession(cookie.Value)
		if err != nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Invalid session")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnlyMiddleware ensures only users with the 'admin' role can access a route.
// It must be chained *after* the AuthMiddleware.
func (s *Server) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if user.Role != "admin" {
			RespondWithError(w, http.StatusForbidden, "Forbidden: Administrator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MemberMiddleware builds the AppContext of the request from the user's
// family and the optional X-Member-ID header. A member id that does not
// belong to the user's family is rejected. It must be chained *after* the
// AuthMiddleware.
func (s *Server) MemberMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		appCtx := aggregate.AppContext{FamilyID: user.FamilyID}
		if memberID := strings.TrimSpace(r.Header.Get(MemberHeader)); memberID != "" {
			member, err := s.store.GetMember(user.FamilyID, memberID)
			if err != nil {
				RespondWithError(w, http.StatusInternalServerError, "Failed to load member")
				return
			}
			if member == nil {
				RespondWithError(w, http.StatusBadRequest, "Unknown member")
				return
			}
			appCtx.MemberID = &member.ID
		}

		ctx := context.WithValue(r.Context(), appContextKey, appCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getUserFromContext safely retrieves the user object from the request context.
// It returns nil if the user is not found in the context.
func getUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// getAppContext returns the AppContext set by MemberMiddleware. Outside
// of it the context is empty, which the library service rejects.
func getAppContext(r *http.Request) aggregate.AppContext {
	appCtx, _ := r.Context().Value(appContextKey).(aggregate.AppContext)
	return appCtx
}
