package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{ErrCodeValidation, http.StatusUnprocessableEntity},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeAccountLocked, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"UNAUTHENTICATED", ErrCodeUnauthorized},
		{"INVALID_CREDENTIALS", ErrCodeUnauthorized},
		{"FORBIDDEN", ErrCodeForbidden},
		{"ACCOUNT_LOCKED", ErrCodeAccountLocked},
		{"TOKEN_REVOKED", ErrCodeTokenRevoked},
		{"SERVICE_UNAVAILABLE", ErrCodeServiceUnavailable},
		// Already normalized and unknown codes pass through
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestNewDeniedResponse(t *testing.T) {
	resp := NewDeniedResponse("Access denied", "req-1", "resident_dashboard", "capability_missing")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, false, body["success"])
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, ErrCodeForbidden, errInfo["code"])
	assert.Equal(t, "req-1", errInfo["request_id"])
	details := errInfo["details"].(map[string]any)
	assert.Equal(t, "resident_dashboard", details["redirect"])
	assert.NotContains(t, details, "fields")
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Validation failed", "", []shared.FieldError{{Field: "name", Message: "name is required"}})

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.NotNil(t, resp.Error.Details)
	assert.Equal(t, "name", resp.Error.Details.Fields[0].Field)
	assert.Empty(t, resp.Error.Details.Redirect)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 1, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta([]int{}, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}
