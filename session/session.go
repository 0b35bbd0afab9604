// Package session issues and verifies the signed tokens that carry a visitor's identity
// between the browser and the API.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "portfolio_session"
	issuer     = "portfolio-backend"
)

var ErrNoToken = errors.New("no session token")

// Identity is the signed-in principal. Only ID and Email drive decisions; the rest is display data.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Email       string `json:"email"`
}

type claims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"name,omitempty"`
	PhotoURL    string `json:"picture,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Issuer signs identities with HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(id Identity) (string, error) {
	if id.ID == "" {
		return "", errors.New("identity without id")
	}
	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
		Email:       id.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

func (i *Issuer) Parse(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(i.now))
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid || c.Subject == "" {
		return Identity{}, errors.New("invalid session claims")
	}
	return Identity{ID: c.Subject, DisplayName: c.DisplayName, PhotoURL: c.PhotoURL, Email: c.Email}, nil
}

// FromRequest reads the token from a Bearer header first, then from the session cookie.
func (i *Issuer) FromRequest(r *http.Request) (Identity, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else if c, err := r.Cookie(CookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		return Identity{}, ErrNoToken
	}
	return i.Parse(token)
}

// Cookie builds the session cookie for token.
func (i *Issuer) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(i.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity placed by the auth middleware, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.ID != ""
}

// IsAdmin compares emails case-insensitively. An empty admin email admits nobody.
func IsAdmin(id Identity, adminEmail string) bool {
	adminEmail = strings.TrimSpace(adminEmail)
	return adminEmail != "" && strings.EqualFold(id.Email, adminEmail)
}
