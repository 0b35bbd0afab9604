package api

import (
	"sync"
	"time"

	"github.com/saqr-syn/portfolio-backend/catalog"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/feed"
	"github.com/saqr-syn/portfolio-backend/locale"
	"github.com/saqr-syn/portfolio-backend/services"
	"github.com/saqr-syn/portfolio-backend/session"
	"github.com/saqr-syn/portfolio-backend/votes"
)

// handlerDeps is everything the handlers share, assembled once by newRouter.
type handlerDeps struct {
	database      database.Database
	catalog       *catalog.Catalog
	votes         *votes.Service
	hub           *feed.Hub
	issuer        *session.Issuer
	mailer        *services.Mailer
	media         *services.MediaStore
	locales       locale.Config
	siteBaseURL   string
	adminEmail    string
	frontendURL   string
	secureCookies bool
	startupTime   time.Time
	background    *sync.WaitGroup
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps handlerDeps) *routeHandlers {
	return &routeHandlers{
		siteHandler:    newSiteHandler(deps),
		projectHandler: newProjectHandler(deps),
		voteHandler:    newVoteHandler(deps),
		commentHandler: newCommentHandler(deps),
		contactHandler: newContactHandler(deps),
		eventsHandler:  newEventsHandler(deps),
		oauthHandler:   newOAuthHandler(deps),
		mediaHandler:   newMediaHandler(deps),
		healthHandler:  newHealthHandler(deps),
	}
}
