package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/unrolled/secure"
)

func secureHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		IsDevelopment:      isDevelopment,
		ContentTypeNosniff: true,
		FrameDeny:          true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		// JSON API only; the site renderer lives on another origin.
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	}).Handler
}

func corsHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// visitorRateLimiter limits visitor writes (votes, comments, contact form) per client IP.
// rateFormatted follows limiter's "<limit>-<period>" format, e.g. "30-M". Empty disables it.
func visitorRateLimiter(rateFormatted string) (func(http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}

	responder := NewResponder(log.With().Str("handlerName", "rateLimiter").Logger())
	instance := limiter.New(memory.NewStore(), rate)
	return stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			responder.WriteError(w, errs.NewApiErr(http.StatusTooManyRequests, "rate limit exceeded"))
		}),
	).Handler, nil
}
