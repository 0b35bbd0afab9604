package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/saqr-syn/portfolio-backend/services"
	"github.com/saqr-syn/portfolio-backend/session"
	"github.com/stretchr/testify/require"
)

const (
	testSecret     = "test-session-secret"
	testAdminEmail = "owner@example.com"
)

var (
	visitor = session.Identity{ID: "google:111", DisplayName: "Lina", PhotoURL: "https://img.example.com/lina.png", Email: "lina@example.com"}
	admin   = session.Identity{ID: "google:999", DisplayName: "Owner", Email: testAdminEmail}
)

type testEnv struct {
	db      database.Database
	handler http.Handler
	drain   func()
	issuer  *session.Issuer
}

func newTestEnv(t *testing.T, overrides map[string]string) *testEnv {
	t.Helper()

	c := map[string]string{
		"SESSION_SECRET":    testSecret,
		"ADMIN_EMAIL":       testAdminEmail,
		"RATE_LIMIT_PER_IP": "1000-M",
		"SITE_BASE_URL":     "https://portfolio.example.com",
	}
	for k, v := range overrides {
		c[k] = v
	}

	db, err := database.NewMemory()
	require.NoError(t, err)

	mux, drain, err := newRouter(db,
		withConfig(c),
		withStartupTime(time.Now()),
		withMailer(services.NewMailer(map[string]string{})),
	)
	require.NoError(t, err)
	t.Cleanup(drain)

	return &testEnv{db: db, handler: mux, drain: drain, issuer: session.NewIssuer(testSecret, 0)}
}

// seed stores projects with strictly decreasing creation times, so the first argument is the newest.
func (e *testEnv) seed(t *testing.T, projects ...*models.Project) {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range projects {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = base.Add(-time.Duration(i) * time.Hour)
		}
		require.NoError(t, e.db.ProjectRepo().Add(context.Background(), p))
	}
}

func (e *testEnv) token(t *testing.T, id session.Identity) string {
	t.Helper()
	token, err := e.issuer.Issue(id)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newCookieRequest(t *testing.T, env *testEnv, path string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(env.issuer.Cookie(env.token(t, visitor), false))
	return req
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}
