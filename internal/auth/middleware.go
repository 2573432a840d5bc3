package auth

import (
	"net/http"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/internal/shared"
)

// RequireUser rejects requests without an authenticated session and exposes
// the user id through shared.UserIDFromContext.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithUserID(r.Context(), sess.User())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
