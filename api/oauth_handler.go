package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/session"
)

// InitOAuthProviders registers the Google provider and the gothic state store. Call once at startup.
func InitOAuthProviders(callbackBaseURL, sessionSecret, googleClientID, googleClientSecret string, secure bool) {
	if googleClientID != "" && googleClientSecret != "" {
		callbackURL := strings.TrimRight(callbackBaseURL, "/") + "/api/auth/google/callback"
		goth.UseProviders(google.New(googleClientID, googleClientSecret, callbackURL, "email", "profile"))
	}
	if sessionSecret != "" {
		store := sessions.NewCookieStore([]byte(sessionSecret))
		store.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		}
		gothic.Store = store
	}
}

type oauthHandler struct {
	responder     Responder
	logger        zerolog.Logger
	issuer        *session.Issuer
	adminEmail    string
	frontendURL   string
	secureCookies bool
}

func newOAuthHandler(deps handlerDeps) oauthHandler {
	logger := log.With().Str("handlerName", "oauthHandler").Logger()

	return oauthHandler{
		responder:     NewResponder(logger),
		logger:        logger,
		issuer:        deps.issuer,
		adminEmail:    deps.adminEmail,
		frontendURL:   deps.frontendURL,
		secureCookies: deps.secureCookies,
	}
}

// withProvider copies the chi provider param into the query, where gothic looks for it.
func withProvider(r *http.Request, provider string) *http.Request {
	r2 := r.Clone(r.Context())
	q := r2.URL.Query()
	q.Set("provider", provider)
	r2.URL.RawQuery = q.Encode()
	return r2
}

// beginAuth redirects to the sign-in provider
// @Summary Begin sign-in
// @Tags Auth
// @Param provider path string true "Provider" Enums(google)
// @Success 307 "Redirect to provider"
// @Failure 400 {object} ErrorResponse "Bad Request - unknown provider"
// @Router /api/auth/{provider} [get]
func (h oauthHandler) beginAuth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		if _, err := goth.GetProvider(provider); err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("provider", "unknown provider"))
			return
		}

		authURL, err := gothic.GetAuthURL(w, withProvider(r, provider))
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to start sign-in", err))
			return
		}
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	}
}

// authCallback completes sign-in, sets the session cookie and returns to the site
// @Summary Sign-in callback
// @Tags Auth
// @Param provider path string true "Provider"
// @Success 307 "Redirect to the site with the session token in the fragment"
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/{provider}/callback [get]
func (h oauthHandler) authCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		user, err := gothic.CompleteUserAuth(w, withProvider(r, provider))
		if err != nil {
			h.logger.Warn().Err(err).Str("provider", provider).Msg("sign-in failed")
			h.responder.WriteError(w, errs.NewUnauthorizedError("sign-in failed"))
			return
		}

		name := user.Name
		if name == "" {
			name = strings.TrimSpace(user.FirstName + " " + user.LastName)
		}
		id := session.Identity{
			ID:          user.Provider + ":" + user.UserID,
			DisplayName: name,
			PhotoURL:    user.AvatarURL,
			Email:       user.Email,
		}

		token, err := h.issuer.Issue(id)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to issue session", err))
			return
		}
		http.SetCookie(w, h.issuer.Cookie(token, h.secureCookies))
		h.logger.Info().Str("userID", id.ID).Msg("signed in")

		target, err := url.Parse(h.frontendURL)
		if err != nil || h.frontendURL == "" {
			h.responder.WriteJSON(w, MeResponse{Identity: id, IsAdmin: session.IsAdmin(id, h.adminEmail)})
			return
		}
		target.Fragment = "token=" + token
		http.Redirect(w, r, target.String(), http.StatusTemporaryRedirect)
	}
}

// me returns the signed-in identity
// @Summary Current identity
// @Tags Auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/me [get]
func (h oauthHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(r)
		if !ok {
			h.responder.WriteError(w, errs.NewAuthRequiredError("continue"))
			return
		}
		h.responder.WriteJSON(w, MeResponse{Identity: id, IsAdmin: session.IsAdmin(id, h.adminEmail)})
	}
}

// logout clears the session cookie
// @Summary Sign out
// @Tags Auth
// @Success 204 "No Content"
// @Router /api/auth/logout [post]
func (h oauthHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := h.issuer.Cookie("", h.secureCookies)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
		if err := gothic.Logout(w, r); err != nil {
			h.logger.Debug().Err(err).Msg("no provider session to clear")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
