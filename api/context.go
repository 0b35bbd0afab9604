package api

import (
	"net/http"

	"github.com/saqr-syn/portfolio-backend/locale"
	"github.com/saqr-syn/portfolio-backend/session"
)

// currentIdentity returns the signed-in visitor placed in the context by authMiddleware.identify.
func currentIdentity(r *http.Request) (session.Identity, bool) {
	return session.FromContext(r.Context())
}

// requestLocale returns the locale resolved by the locale middleware and its text direction.
func requestLocale(r *http.Request) (string, string) {
	code := locale.FromContext(r.Context())
	return code, locale.Direction(code)
}
