// Copyright (c) 2026 Atelier. All rights reserved.

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/platform/apperr"
)

/*
TestConstructors verifies the code/status mapping of the error taxonomy.
*/
func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperr.AppError
		wantCode   string
		wantStatus int
	}{
		{"not_found", apperr.NotFound("User"), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("no session"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"authentication", apperr.Authentication("bad password"), "AUTHENTICATION_FAILED", http.StatusUnauthorized},
		{"conflict", apperr.Conflict("duplicate"), "CONFLICT", http.StatusConflict},
		{"validation", apperr.ValidationError("bad input"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"internal", apperr.Internal(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

/*
TestUnwrap verifies that wrapped causes survive errors.Is / errors.As.
*/
func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Internal(cause)

	assert.ErrorIs(t, err, cause)

	// AppErrors remain recognizable through further fmt wrapping.
	wrapped := fmt.Errorf("repo_call_failed: %w", err)
	assert.True(t, apperr.IsAppError(wrapped))

	found := apperr.As(wrapped)
	require.NotNil(t, found)
	assert.Equal(t, "INTERNAL_ERROR", found.Code)
}

/*
TestValidationDetails verifies field-level detail accumulation.
*/
func TestValidationDetails(t *testing.T) {
	err := apperr.ValidationError("Validation failed",
		apperr.FieldError{Field: "email", Message: "required"},
		apperr.FieldError{Field: "password", Message: "too short"},
	)

	require.Len(t, err.Details, 2)
	assert.Equal(t, "email", err.Details[0].Field)
	assert.Equal(t, "password", err.Details[1].Field)
}
