package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/escrow-backend/internal/escrow"
	"github.com/yungbote/escrow-backend/internal/pkg/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps service errors onto HTTP statuses: contract
// domain errors by kind, apierr by its own status, everything else 500.
func RespondServiceError(c *gin.Context, err error) {
	var domainErr *escrow.Error
	if errors.As(err, &domainErr) {
		RespondError(c, domainStatus(domainErr.Kind), domainErr.Code, err)
		return
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		RespondError(c, apiErr.Status, apiErr.Code, err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
}

func domainStatus(kind escrow.Kind) int {
	switch kind {
	case escrow.KindUnauthorized:
		return http.StatusForbidden
	case escrow.KindInvalidState, escrow.KindAlreadyDone:
		return http.StatusConflict
	case escrow.KindInvalidID:
		return http.StatusNotFound
	case escrow.KindInvalidInput:
		return http.StatusBadRequest
	case escrow.KindTransferFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
