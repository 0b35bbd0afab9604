package catalog

import (
	"encoding/base64"
	"encoding/json"

	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
)

// EncodeCursor renders a position as an opaque URL-safe token.
func EncodeCursor(c models.Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token from EncodeCursor. The empty token means the first page.
func DecodeCursor(token string) (*models.Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errs.NewInvalidFieldError("cursor", "not a valid page token")
	}

	var c models.Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" || c.CreatedAt.IsZero() {
		return nil, errs.NewInvalidFieldError("cursor", "not a valid page token")
	}
	return &c, nil
}
