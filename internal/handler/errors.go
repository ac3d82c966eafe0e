package handler

import (
	"errors"
	"log"
	"net/http"

	"invoicedesk/internal/export"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// MsgValidationFailed is the detail of a 422 response.
const MsgValidationFailed = "invoice validation failed"

var statusByError = []struct {
	err  error
	code int
}{
	{service.ErrInvoiceNotFound, http.StatusNotFound},
	{service.ErrCompanyNotFound, http.StatusNotFound},
	{service.ErrCompanyAccessDenied, http.StatusForbidden},
	{service.ErrDuplicateInvoiceNumber, http.StatusConflict},
	{service.ErrCompanyExists, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidID, http.StatusBadRequest},
	{service.ErrInvalidPeriod, http.StatusBadRequest},
	{export.ErrUnsupportedFormat, http.StatusBadRequest},
}

// writeError maps a service error onto the response envelope.
func writeError(c *gin.Context, err error) {
	var vErr *service.ValidationFailedError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, MsgValidationFailed, vErr.Errors))
		return
	}

	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			c.JSON(m.code, response.Error(m.code, err.Error()))
			return
		}
	}

	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
