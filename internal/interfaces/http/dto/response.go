package dto

import (
	"net/http"

	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	RequestID string        `json:"request_id,omitempty"`
	Details   *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries the machine-readable part of a failure
type ErrorDetails struct {
	// Redirect is the decided target of a denied request
	Redirect string `json:"redirect,omitempty"`
	// Reason explains a denial
	Reason string `json:"reason,omitempty"`
	// Fields lists per-field validation failures
	Fields []shared.FieldError `json:"fields,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithMeta creates a success response with pagination meta
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request id
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a per-field validation failure response
func NewValidationErrorResponse(message, requestID string, fields []shared.FieldError) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = &ErrorDetails{Fields: fields}
	return resp
}

// NewDeniedResponse creates a 403 body naming where the caller should go
func NewDeniedResponse(message, requestID, redirect, reason string) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeForbidden, message, requestID)
	resp.Error.Details = &ErrorDetails{Redirect: redirect, Reason: reason}
	return resp
}

// NewDecisionResponse maps a denied decision to its HTTP status and body.
// An unresolved map is 401; a missing or out-of-scope capability is 403.
func NewDecisionResponse(d access.Decision, requestID string) (int, Response) {
	if d.Outcome == access.DeniedUnauthorized {
		resp := NewDeniedResponse("Authentication required", requestID, string(d.Target), string(d.Reason))
		resp.Error.Code = ErrCodeUnauthorized
		return http.StatusUnauthorized, resp
	}
	return http.StatusForbidden, NewDeniedResponse("Permission denied", requestID, string(d.Target), string(d.Reason))
}

// ListRequest represents common list/pagination request parameters
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=number tower floor created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
}

// DefaultListRequest returns a list request with defaults
func DefaultListRequest() ListRequest {
	return ListRequest{
		Page:     1,
		PageSize: 20,
		OrderBy:  "number",
		OrderDir: "asc",
	}
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
