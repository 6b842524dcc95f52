// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase and snake_case. They supplement the HTTP status
// with a machine-readable value clients can branch on; the message carries
// the human-readable reason produced by the service layer.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "Intent already exists!"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failErr maps a service error to its status and code and aborts c.
//
//	*domain.ValidationError, ErrInvalidInput,
//	ErrUnknownCollection                          -> 400 bad_request
//	ErrAlreadyExists family                       -> 409 conflict
//	ErrDocumentNotFound, ErrChannelNotConfigured  -> 404 not_found
//	anything else                                 -> 500 internal_error
func failErr(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnknownCollection):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrAlreadyExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrChannelNotConfigured):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, services.ErrInternal.Error())
	}
}
