package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/queries"
	domainbooking "vehiclerental/internal/domain/booking"
)

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeBookingError maps the booking error taxonomy onto status codes.
// Unexpected errors are logged by the access log and reported without detail.
func writeBookingError(c *gin.Context, err error) {
	var (
		invalid  *domainbooking.ValidationError
		conflict *domainbooking.ConflictError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid booking request", Fields: invalid.Fields})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, errorResponse{Message: conflict.Error()})
	case errors.Is(err, domainbooking.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Message: "booking not found"})
	case errors.Is(err, commands.ErrNilBus), errors.Is(err, queries.ErrNilBus):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Message: "service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Message: "could not complete the request, please retry"})
	}
}

func writeBadRequest(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Message: "invalid booking request",
		Fields:  map[string]string{field: msg},
	})
}
