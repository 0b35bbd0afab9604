package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/catalog"
	"github.com/saqr-syn/portfolio-backend/config"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/feed"
	"github.com/saqr-syn/portfolio-backend/locale"
	"github.com/saqr-syn/portfolio-backend/services"
	"github.com/saqr-syn/portfolio-backend/session"
	"github.com/saqr-syn/portfolio-backend/votes"
)

const devSessionSecret = "portfolio-dev-session-secret"

type Server struct {
	*http.Server
	startupTime time.Time
	drain       func()
}

func NewServer(ctx context.Context, database database.Database, c map[string]string) (Server, error) {
	// Ensure correct port is set
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	media, err := services.NewMediaStoreFromConfig(ctx, c)
	if err != nil {
		log.Warn().Err(err).Msg("media uploads disabled")
		media = nil
	}

	secret, err := sessionSecret(c)
	if err != nil {
		return Server{}, err
	}
	InitOAuthProviders(
		config.GetString(c, "OAUTH_CALLBACK_BASE_URL", "http://localhost:"+port),
		secret,
		config.GetString(c, "GOOGLE_CLIENT_ID", ""),
		config.GetString(c, "GOOGLE_CLIENT_SECRET", ""),
		isProduction(c),
	)

	router, drain, err := newRouter(database,
		withConfig(c),
		withStartupTime(startupTime),
		withMailer(services.NewMailer(c)),
		withMediaStore(media),
	)
	if err != nil {
		return Server{}, err
	}

	// Get timeout values from config with sensible defaults
	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second

	// Event streams hang off baseCtx and end when shutdown starts.
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,  // Timeout for reading the entire request
		WriteTimeout: writeTimeout, // Timeout for writing the response
		IdleTimeout:  idleTimeout,  // Timeout for idle connections
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	return Server{server, startupTime, drain}, nil
}

func isProduction(c map[string]string) bool {
	return strings.EqualFold(config.GetString(c, "APP_ENV", "development"), "production")
}

// sessionSecret refuses to run production without SESSION_SECRET.
func sessionSecret(c map[string]string) (string, error) {
	secret := config.GetString(c, "SESSION_SECRET", "")
	if secret != "" {
		return secret, nil
	}
	if isProduction(c) {
		return "", errors.New("SESSION_SECRET is required in production")
	}
	log.Warn().Msg("SESSION_SECRET not set, using the development secret")
	return devSessionSecret, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	mailer      *services.Mailer
	media       *services.MediaStore
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withMailer(m *services.Mailer) func(*router) {
	return func(r *router) {
		r.mailer = m
	}
}

func withMediaStore(m *services.MediaStore) func(*router) {
	return func(r *router) {
		r.media = m
	}
}

// newRouter wires every handler and middleware. The returned drain function blocks until
// background work started by requests (view increments, contact e-mails) has finished.
func newRouter(database database.Database, opts ...func(*router)) (*chi.Mux, func(), error) {
	router := router{config: map[string]string{}, startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}
	c := router.config
	if router.mailer == nil {
		router.mailer = services.NewMailer(c)
	}

	secret, err := sessionSecret(c)
	if err != nil {
		return nil, nil, err
	}

	locales := locale.DefaultConfig()
	locales.Default = config.GetString(c, "DEFAULT_LOCALE", locales.Default)
	locales.Supported = config.GetStrings(c, "SUPPORTED_LOCALES", locales.Supported)
	if !locales.IsSupported(locales.Default) {
		return nil, nil, fmt.Errorf("DEFAULT_LOCALE %q is not in SUPPORTED_LOCALES", locales.Default)
	}

	visitorLimit, err := visitorRateLimiter(config.GetString(c, "RATE_LIMIT_PER_IP", "30-M"))
	if err != nil {
		return nil, nil, fmt.Errorf("RATE_LIMIT_PER_IP: %w", err)
	}

	m := newMetrics()
	hub := feed.NewHub(0)
	projectCatalog := catalog.New(database.ProjectRepo(),
		catalog.WithPageSize(config.GetInt(c, "PAGE_SIZE", catalog.DefaultPageSize)),
		catalog.WithPublisher(hub),
	)
	voteService := votes.NewService(database.ProjectRepo(),
		votes.WithPublisher(hub),
		votes.WithCastHook(m.recordVote),
	)
	issuer := session.NewIssuer(secret, time.Duration(config.GetInt(c, "SESSION_TTL_HOURS", 0))*time.Hour)
	adminEmail := config.GetString(c, "ADMIN_EMAIL", "")
	background := &sync.WaitGroup{}

	// Initialize all handlers
	handlers := initializeHandlers(handlerDeps{
		database:      database,
		catalog:       projectCatalog,
		votes:         voteService,
		hub:           hub,
		issuer:        issuer,
		mailer:        router.mailer,
		media:         router.media,
		locales:       locales,
		siteBaseURL:   config.GetString(c, "SITE_BASE_URL", services.DefaultSiteBaseURL),
		adminEmail:    adminEmail,
		frontendURL:   config.GetString(c, "FRONTEND_URL", ""),
		secureCookies: config.GetBool(c, "SECURE_COOKIES", isProduction(c)),
		startupTime:   router.startupTime,
		background:    background,
	})

	// Initialize auth middleware
	authMiddleware := newAuthMiddleware(issuer, adminEmail)

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	// Forwarding headers are client-controlled unless a proxy overwrites them.
	if config.GetBool(c, "TRUST_PROXY_HEADERS", false) {
		chiRouter.Use(middleware.RealIP)
	}
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(m.middleware)
	chiRouter.Use(secureHeaders(!isProduction(c)))

	// Apply CORS middleware
	acceptedOrigins := config.GetStrings(c, "ACCEPTED_ORIGINS", []string{"http://localhost:3000"})
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsHandler(acceptedOrigins))

	chiRouter.Use(locale.Middleware(locales))
	if config.GetString(c, "LOG_FORMAT", "json") == "console" {
		chiRouter.Use(ColoredHTTPLoggingMiddleware)
	} else {
		chiRouter.Use(HTTPLoggingMiddleware(log.Logger))
	}
	chiRouter.Use(authMiddleware.identify)

	notFound := NewResponder(log.With().Str("handlerName", "router").Logger())
	chiRouter.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound.WriteError(w, errs.NewNotFoundError("route "+r.URL.Path))
	})
	chiRouter.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		notFound.WriteError(w, errs.NewApiErr(http.StatusMethodNotAllowed, "method not allowed"))
	})

	// Setup all route types
	setupAPIRoutes(chiRouter, handlers, authMiddleware, visitorLimit, m)
	setupSiteRoutes(chiRouter, handlers)

	drain := func() {
		projectCatalog.Wait()
		background.Wait()
	}
	return chiRouter, drain, nil
}

// Start blocks serving requests. A graceful shutdown is not an error.
func (s Server) Start() error {
	log.Info().Msgf("Server started on: %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}

	if s.drain != nil {
		s.drain()
	}
}
