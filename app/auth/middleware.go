package auth

import (
	"net/http"

	"github.com/WillSuttie/MvcBean/app/api"
	"github.com/rs/zerolog/hlog"
)

// RequireAdmin rejects requests whose caller is not an administrator.
// Unauthenticated callers get 401, authenticated non-admins get 403.
func RequireAdmin(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticator.Authenticate(r)
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
				api.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if !principal.IsAdmin() {
				hlog.FromRequest(r).Warn().Str("subject", principal.Subject).Str("path", r.URL.Path).Msg("Access denied")
				api.ErrorResponse(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
