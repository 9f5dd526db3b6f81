package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/platform/httpx"
	"github.com/keygate/keygate/internal/shared"
	"github.com/keygate/keygate/internal/token"
	"github.com/keygate/keygate/internal/users"
)

// Middleware resolves bearer tokens into a request identity.
type Middleware struct {
	Logger  *slog.Logger
	Users   *users.Service
	Issuer  *token.Issuer
	Revoker *token.Revoker
	Metrics *observability.Metrics
}

// RequireAuth validates the Authorization header, rejects revoked tokens and
// loads the caller's account. The super-admin flag is read from the users row
// on every request, never cached between requests.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			m.Metrics.RecordAuthFailure()
			httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := m.Issuer.Validate(raw)
		if err != nil {
			m.Metrics.RecordAuthFailure()
			httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		revoked, err := m.Revoker.IsRevoked(r.Context(), claims.TokenID)
		if err != nil {
			m.Logger.Error("check token revocation", slog.Any("error", err))
			httpx.Failure(w, http.StatusInternalServerError, "Server Error")
			return
		}
		if revoked {
			m.Metrics.RecordAuthFailure()
			httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := m.Users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			m.Metrics.RecordAuthFailure()
			httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ident := &shared.Identity{
			UserID:       user.ID,
			Email:        user.Email,
			IsSuperAdmin: user.IsSuperAdmin,
			TokenID:      claims.TokenID,
			ExpiresAt:    claims.ExpiresAt,
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), ident)))
	})
}

// RequireSuperAdmin gates admin-only endpoints on the super-admin flag.
func (m Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := shared.IdentityFromContext(r.Context())
		if ident == nil {
			httpx.Failure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !ident.IsSuperAdmin {
			httpx.Failure(w, http.StatusForbidden, "you haven't permission to do this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", false
	}
	return raw, true
}
