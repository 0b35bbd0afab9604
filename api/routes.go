package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupSiteRoutes serves the locale-prefixed pages the renderer reads. The locale
// middleware has already redirected anything without a supported prefix.
func setupSiteRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/sitemap.xml", handlers.siteHandler.sitemap())

	r.Route("/{locale}", func(r chi.Router) {
		r.Get("/", handlers.siteHandler.home())
		r.Get("/projects", handlers.siteHandler.listProjects())
		r.Get("/projects/{slug}", handlers.siteHandler.projectDetail())
	})
}

// setupAPIRoutes sets up the public, visitor and admin API
func setupAPIRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, visitorLimit func(http.Handler) http.Handler, m *metrics) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", handlers.healthHandler.healthz())
		r.Method(http.MethodGet, "/metrics", m.handler())

		// Auth
		r.Get("/me", handlers.oauthHandler.me())
		r.Post("/auth/logout", handlers.oauthHandler.logout())
		r.Get("/auth/{provider}", handlers.oauthHandler.beginAuth())
		r.Get("/auth/{provider}/callback", handlers.oauthHandler.authCallback())

		// Public catalog
		r.Get("/projects", handlers.siteHandler.listProjects())
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", handlers.projectHandler.getProject())
			r.Get("/comments", handlers.commentHandler.getComments())
			r.Get("/events", handlers.eventsHandler.streamProject())

			// Visitor writes
			r.Group(func(r chi.Router) {
				r.Use(visitorLimit)
				r.Use(authMiddleware.requireIdentity)
				r.Post("/votes", handlers.voteHandler.castVote())
				r.Post("/comments", handlers.commentHandler.addComment())
			})
		})
		r.With(visitorLimit).Post("/contact", handlers.contactHandler.submitContact())

		// Admin dashboard
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.requireAdmin)

			r.Get("/projects", handlers.projectHandler.getAllProjects())
			r.Post("/projects", handlers.projectHandler.createProject())
			r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
			r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())
			r.Post("/media", handlers.mediaHandler.uploadMedia())
			r.Get("/contact-messages", handlers.contactHandler.getContactMessages())
		})
	})
}
