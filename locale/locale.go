// Package locale decides whether a request path carries a supported language prefix
// and where to redirect it when it does not.
package locale

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

const (
	English = "en"
	Arabic  = "ar"
)

var fileExtension = regexp.MustCompile(`\.[^/]+$`)

// Config is the static routing configuration. Supported must contain Default.
type Config struct {
	Default          string
	Supported        []string
	ExcludedPrefixes []string
	ExcludedPaths    []string
}

// DefaultConfig mirrors the public site: English by default, Arabic as the second language.
func DefaultConfig() Config {
	return Config{
		Default:          English,
		Supported:        []string{English, Arabic},
		ExcludedPrefixes: []string{"/_next", "/api", "/static", "/assets"},
		ExcludedPaths:    []string{"/favicon.ico"},
	}
}

func (c Config) IsSupported(code string) bool {
	for _, s := range c.Supported {
		if s == code {
			return true
		}
	}
	return false
}

type Action int

const (
	PassThrough Action = iota
	Redirect
)

// Decision is the outcome of Resolve. Target is set only for Redirect and has no query string.
type Decision struct {
	Action Action
	Locale string
	Target string
}

// Resolve is total over every path string.
func Resolve(path string, cfg Config) Decision {
	if isExcluded(path, cfg) {
		return Decision{Action: PassThrough}
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return Decision{Action: Redirect, Locale: cfg.Default, Target: "/" + cfg.Default}
	}

	if cfg.IsSupported(segments[0]) {
		return Decision{Action: PassThrough, Locale: segments[0]}
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Decision{Action: Redirect, Locale: cfg.Default, Target: "/" + cfg.Default + path}
}

func isExcluded(path string, cfg Config) bool {
	for _, prefix := range cfg.ExcludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, p := range cfg.ExcludedPaths {
		if path == p {
			return true
		}
	}
	return fileExtension.MatchString(path)
}

// Direction returns the text direction the renderer should use for code.
func Direction(code string) string {
	if code == Arabic {
		return "rtl"
	}
	return "ltr"
}

type contextKey struct{}

func WithLocale(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, contextKey{}, code)
}

// FromContext returns the locale stored by Middleware, or "" for excluded paths.
func FromContext(ctx context.Context) string {
	code, _ := ctx.Value(contextKey{}).(string)
	return code
}

// Middleware redirects unqualified paths with 307 Temporary Redirect, keeping the query string.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Resolve(r.URL.Path, cfg)
			if d.Action == Redirect {
				target := d.Target
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}
			if d.Locale != "" {
				r = r.WithContext(WithLocale(r.Context(), d.Locale))
			}
			next.ServeHTTP(w, r)
		})
	}
}
