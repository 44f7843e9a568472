package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/server/http/dto"
)

const (
	messageInternal   = "internal server error"
	messageUpstream   = "payment or storage provider unavailable"
	messageNoDownload = "download not permitted"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrValidation), errors.Is(err, domainErrors.ErrSignatureInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrPaymentAttemptsExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domainErrors.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError records err on the context and writes the mapped status.
// Internal details are not exposed for 5xx answers.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := StatusFor(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = messageInternal
	case http.StatusBadGateway:
		message = messageUpstream
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Message: message})
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
}
