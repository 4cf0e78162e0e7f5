package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/infrastructure/logger"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/society/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// errNoIdentity is returned when a route behind the JWT middleware finds no claims
var errNoIdentity = shared.NewDomainError("UNAUTHENTICATED", "Authentication required")

// caller returns the company and user of the authenticated caller
func caller(c *gin.Context) (companyID, userID uuid.UUID, err error) {
	companyID, err = uuid.Parse(middleware.GetJWTCompanyID(c))
	if err != nil {
		return uuid.Nil, uuid.Nil, errNoIdentity
	}
	userID, err = uuid.Parse(middleware.GetJWTUserID(c))
	if err != nil {
		return uuid.Nil, uuid.Nil, errNoIdentity
	}
	return companyID, userID, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError answers a request whose body or URI failed to bind
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	h.ValidationFailed(c, middleware.BindingError(err))
}

// ValidationFailed sends the 422 per-field failure response
func (h *BaseHandler) ValidationFailed(c *gin.Context, verr *shared.ValidationError) {
	c.JSON(http.StatusUnprocessableEntity,
		dto.NewValidationErrorResponse("Request validation failed", getRequestID(c), verr.Fields))
}

// HandleError maps an application error onto the response envelope.
// Validation failures carry their fields, denials carry the redirect target,
// domain errors keep their code, and anything else is a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		h.ValidationFailed(c, verr)
		return
	}

	var denied *accessapp.DeniedError
	if errors.As(err, &denied) {
		status, body := dto.NewDecisionResponse(denied.Decision, getRequestID(c))
		c.JSON(status, body)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
