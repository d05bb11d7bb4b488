// Package handlers registers the booking and catalog use cases on the buses.
package handlers

import (
	"vehiclerental/internal/app/commands"
	bookingapp "vehiclerental/internal/app/handlers/booking"
	catalogapp "vehiclerental/internal/app/handlers/catalog"
	"vehiclerental/internal/app/queries"
	"vehiclerental/internal/app/uow"
)

func RegisterCommands(bus *commands.InMemoryBus, service bookingapp.Attempter) {
	commands.RegisterHandler(bus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{Service: service})
}

func RegisterQueries(bus *queries.InMemoryBus, factory uow.UoWFactory) {
	queries.RegisterHandler(bus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, bookingapp.ListVehicleBookingsQuery{}.Key(), &bookingapp.ListVehicleBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, catalogapp.ListVehicleTypesQuery{}.Key(), &catalogapp.ListVehicleTypesHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, catalogapp.ListVehiclesQuery{}.Key(), &catalogapp.ListVehiclesHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, catalogapp.QuoteQuery{}.Key(), &catalogapp.QuoteHandler{UoWFactory: factory})
}
