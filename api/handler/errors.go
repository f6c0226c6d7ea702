package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
)

// toScrapeError normalises any error into a ScrapeError for clients.
func toScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeCanceled, "session canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "session timed out", err)
	default:
		return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
}

// respondError writes err as an ErrorResponse with a status matching its code.
func respondError(c *gin.Context, err error) {
	se := toScrapeError(err)
	c.JSON(mapErrorToStatus(se), models.ErrorResponse{
		Success: false,
		Error:   se.ToDetail(),
	})
}

// mapErrorToStatus maps ScrapeError codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeElementNotFound:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
