// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/cmi-charts/internal/application/services"
)

// envelope is the body of every JSON answer.
type envelope struct {
	Success bool `json:"success"`
	Value   any  `json:"value"`
}

func respondValue(c *gin.Context, value any) {
	c.JSON(http.StatusOK, envelope{Success: true, Value: value})
}

// respondPageError answers a page route with the status matching err.
func respondPageError(c *gin.Context, err error) {
	c.JSON(statusFor(err), envelope{Success: false, Value: err.Error()})
}

// respondFailure answers a JSON endpoint. These always use 200 so callers
// only look at the success flag.
func respondFailure(c *gin.Context, err error) {
	c.JSON(http.StatusOK, envelope{Success: false, Value: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidDay), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrRestricted):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
