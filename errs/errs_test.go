package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDatabaseErrorMapsCauses(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
		target error
	}{
		{"not found sentinel", fmt.Errorf("project x: %w", ErrNotFound), http.StatusNotFound, ErrNotFound},
		{"slug clash", fmt.Errorf("project x: %w", ErrAlreadyExists), http.StatusConflict, ErrAlreadyExists},
		{"postgres duplicate", errors.New(`duplicate key value violates unique constraint "idx_project_slug"`), http.StatusConflict, ErrAlreadyExists},
		{"lost connection", errors.New("failed to connect: connection refused"), http.StatusServiceUnavailable, ErrDatabaseConnection},
		{"anything else", errors.New("syntax error"), http.StatusInternalServerError, ErrDatabaseQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("find", "project", tt.cause)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestSentinelHelpers(t *testing.T) {
	assert.True(t, IsAlreadyExists(NewDatabaseError("add", "project", ErrAlreadyExists)))
	assert.True(t, IsNotFound(NewNotFoundError("project whispr")))
	assert.True(t, IsInvalidFieldError(NewInvalidFieldError("star", "out of range")))
	assert.False(t, IsNotFound(NewForbiddenError("admins only")))
	assert.ErrorIs(t, Unauthorized, ErrUnauthorized)
}
