package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitContact(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/contact", ContactRequest{Name: "Sam", Email: "not-an-email", Message: "hello"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode[ErrorResponse](t, rec).Field)

	rec = env.do(t, http.MethodPost, "/api/contact", ContactRequest{Name: "Sam", Email: "sam@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "message", decode[ErrorResponse](t, rec).Field)

	rec = env.do(t, http.MethodPost, "/api/contact", ContactRequest{Name: "  Sam ", Email: "sam@example.com", Message: "Can we talk?"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msg := decode[models.ContactMessage](t, rec)
	assert.Equal(t, "Sam", msg.Name)

	rec = env.do(t, http.MethodGet, "/api/admin/contact-messages", nil, env.token(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode[[]models.ContactMessage](t, rec)
	require.Len(t, messages, 1)
	assert.Equal(t, "Can we talk?", messages[0].Message)
}

func TestContactMessagesAreAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/admin/contact-messages", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/contact-messages", nil, env.token(t, visitor))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVisitorWritesAreRateLimited(t *testing.T) {
	env := newTestEnv(t, map[string]string{"RATE_LIMIT_PER_IP": "2-M"})
	body := ContactRequest{Name: "Sam", Email: "sam@example.com", Message: "hi"}

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/contact", body, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/contact", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are never limited.
	rec = env.do(t, http.MethodGet, "/api/projects", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func contactFrom(t *testing.T, forwardedFor string) *http.Request {
	t.Helper()
	raw, err := json.Marshal(ContactRequest{Name: "Sam", Email: "sam@example.com", Message: "hi"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.Header.Set("X-Real-IP", forwardedFor)
	return req
}

func TestRateLimitIgnoresForwardingHeadersByDefault(t *testing.T) {
	env := newTestEnv(t, map[string]string{"RATE_LIMIT_PER_IP": "2-M"})

	for i := 0; i < 2; i++ {
		rec := serve(env, contactFrom(t, fmt.Sprintf("203.0.113.%d", i+1)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := serve(env, contactFrom(t, "203.0.113.99"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitKeysOnForwardedClientBehindProxy(t *testing.T) {
	env := newTestEnv(t, map[string]string{"RATE_LIMIT_PER_IP": "2-M", "TRUST_PROXY_HEADERS": "true"})

	for i := 0; i < 2; i++ {
		rec := serve(env, contactFrom(t, "203.0.113.1"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := serve(env, contactFrom(t, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = serve(env, contactFrom(t, "203.0.113.2"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
