package middleware

import (
	"context"
	"net/http"

	"github.com/nkarpov/blogify/internal/handlers/render"
	"github.com/nkarpov/blogify/internal/handlers/userctx"
	"github.com/nkarpov/blogify/internal/models"
)

type authService interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type Auth struct {
	auth authService
}

func NewAuth(as authService) *Auth {
	return &Auth{auth: as}
}

// Protect authenticates the request and stores the user in the request
// context. Requests without a valid access token get 401.
func (m *Auth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.auth.UserFromRequest(r.Context(), r)
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := userctx.New(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identify attaches the user to the context when the request carries a
// valid access token, and lets the request through anonymously otherwise.
// For public routes whose response depends on who is asking.
func (m *Auth) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := m.auth.UserFromRequest(r.Context(), r); err == nil {
			r = r.WithContext(userctx.New(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly rejects authenticated non-admin users with 403. Must run after
// Protect, otherwise there is no user in the context and the result is 401.
func (m *Auth) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin() {
			render.ServiceError(w, "Access denied. Admin privileges required.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
