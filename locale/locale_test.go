package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		path   string
		action Action
		target string
		locale string
	}{
		{"root", "/", Redirect, "/en", "en"},
		{"empty", "", Redirect, "/en", "en"},
		{"double slash root", "//", Redirect, "/en", "en"},
		{"unqualified", "/projects", Redirect, "/en/projects", "en"},
		{"nested unqualified", "/projects/whispr", Redirect, "/en/projects/whispr", "en"},
		{"arabic", "/ar/projects", PassThrough, "", "ar"},
		{"english root", "/en", PassThrough, "", "en"},
		{"case sensitive", "/EN/projects", Redirect, "/en/EN/projects", "en"},
		{"no prefix match", "/english", Redirect, "/en/english", "en"},
		{"unsupported locale", "/fr/projects", Redirect, "/en/fr/projects", "en"},
		{"api", "/api/projects/whispr", PassThrough, "", ""},
		{"framework assets", "/_next/static/chunk.js", PassThrough, "", ""},
		{"static", "/static/logo", PassThrough, "", ""},
		{"assets", "/assets/cv", PassThrough, "", ""},
		{"favicon", "/favicon.ico", PassThrough, "", ""},
		{"file extension", "/robots.txt", PassThrough, "", ""},
		{"sitemap", "/sitemap.xml", PassThrough, "", ""},
		{"dot in middle segment", "/v1.2/notes", Redirect, "/en/v1.2/notes", "en"},
		{"no leading slash", "projects", Redirect, "/en/projects", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(tt.path, cfg)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.target, d.Target)
			assert.Equal(t, tt.locale, d.Locale)
		})
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "rtl", Direction(Arabic))
	assert.Equal(t, "ltr", Direction(English))
}

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(DefaultConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("redirect keeps query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects?q=chat&tag=ai", nil))

		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/en/projects?q=chat&tag=ai", rec.Header().Get("Location"))
	})

	t.Run("pass through stores locale", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ar/projects", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "ar", seen)
	})
}
