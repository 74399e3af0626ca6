package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/driveline/driveline/internal/models"
)

type contextKey int

const identityKey contextKey = iota

// IdentityFrom extracts the authenticated caller from a request context.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// authenticate resolves the caller from a Bearer header or the jwt cookie
// and passes the identity down explicitly via the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie("jwt"); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			s.writeError(w, r, models.ErrTokenInvalid)
			return
		}

		identity, err := s.auth.Verify(token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// requireRead admits any authenticated role.
func (s *Server) requireRead(next http.Handler) http.Handler {
	return s.requireRole(next, models.RoleAdmin, models.RoleGuest)
}

// requireWrite admits roles that may mutate the hierarchy.
func (s *Server) requireWrite(next http.Handler) http.Handler {
	return s.requireRole(next, models.RoleAdmin)
}

func (s *Server) requireRole(next http.Handler, roles ...models.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			s.writeError(w, r, models.ErrTokenInvalid)
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}
		s.writeError(w, r, models.ErrUnauthorized)
	})
}
