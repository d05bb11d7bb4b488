package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/dto"
	bookingapp "vehiclerental/internal/app/handlers/booking"
	"vehiclerental/internal/app/queries"
	domainbooking "vehiclerental/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	VehicleID int64  `json:"vehicleId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "request body must be a JSON booking: " + err.Error()})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		VehicleID:       req.VehicleID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeBadRequest(c, "id", "must be a positive integer")
		return
	}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.Booking](c.Request.Context(), h.Queries, bookingapp.GetBookingQuery{ID: id})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListByVehicle serves GET /bookings?vehicleId=.
func (h BookingHandler) ListByVehicle(c *gin.Context) {
	vehicleID, err := strconv.ParseInt(c.Query("vehicleId"), 10, 64)
	if err != nil {
		writeBadRequest(c, domainbooking.FieldVehicleID, "is required")
		return
	}
	query := bookingapp.ListVehicleBookingsQuery{VehicleID: vehicleID}
	result, err := queries.Ask[bookingapp.ListVehicleBookingsQuery, []dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
