package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"vehiclerental/internal/app/dto"
	catalogapp "vehiclerental/internal/app/handlers/catalog"
	"vehiclerental/internal/app/queries"
	domainbooking "vehiclerental/internal/domain/booking"
)

// CatalogHandler wires catalog queries to HTTP.
type CatalogHandler struct {
	Queries queries.Bus
}

func (h CatalogHandler) VehicleTypes(c *gin.Context) {
	result, err := queries.Ask[catalogapp.ListVehicleTypesQuery, []dto.VehicleType](c.Request.Context(), h.Queries, catalogapp.ListVehicleTypesQuery{})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Vehicles lists the available vehicles of a type. An unknown type yields an empty list.
func (h CatalogHandler) Vehicles(c *gin.Context) {
	typeID, err := strconv.ParseInt(c.Param("typeId"), 10, 64)
	if err != nil {
		writeBadRequest(c, "typeId", "must be a positive integer")
		return
	}
	result, err := queries.Ask[catalogapp.ListVehiclesQuery, []dto.Vehicle](c.Request.Context(), h.Queries, catalogapp.ListVehiclesQuery{TypeID: typeID})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CatalogHandler) Quote(c *gin.Context) {
	vehicleID, err := strconv.ParseInt(c.Query("vehicleId"), 10, 64)
	if err != nil {
		writeBadRequest(c, domainbooking.FieldVehicleID, "is required")
		return
	}
	query := catalogapp.QuoteQuery{
		VehicleID: vehicleID,
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	result, err := queries.Ask[catalogapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CatalogHTTP = CatalogHandler{}
