package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/handlers"
	"vehiclerental/internal/app/middleware"
	"vehiclerental/internal/app/queries"
	bookingsvc "vehiclerental/internal/app/services/booking"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/domain/shared/money"
	ginserver "vehiclerental/internal/infra/http/gin"
	"vehiclerental/internal/infra/obs"
	"vehiclerental/internal/infra/storage/memory"
	"vehiclerental/internal/wizard"
)

func request(start, end string) domainbooking.Request {
	r, err := daterange.Parse(start, end)
	if err != nil {
		panic(err)
	}
	return domainbooking.Request{
		VehicleID: 7,
		Range:     r,
		Customer:  domainbooking.Customer{FirstName: "Asha", LastName: "Rao"},
	}
}

func stub(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func TestAttemptMapsStatusCodes(t *testing.T) {
	ctx := context.Background()

	_, err := stub(t, http.StatusBadRequest, `{"message":"invalid booking request","fields":{"firstName":"is required"}}`).
		Attempt(ctx, request("2025-01-10", "2025-01-12"))
	var verr *domainbooking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["firstName"])

	_, err = stub(t, http.StatusBadRequest, `bad body`).Attempt(ctx, request("2025-01-10", "2025-01-12"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "bad body", verr.Fields["request"])

	_, err = stub(t, http.StatusConflict, `{"message":"vehicle 7 is already booked from 2025-01-11 to 2025-01-14"}`).
		Attempt(ctx, request("2025-01-10", "2025-01-12"))
	var conflict *domainbooking.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domaincatalog.VehicleID(7), conflict.VehicleID)
	assert.Equal(t, "vehicle 7 is already booked from 2025-01-11 to 2025-01-14", conflict.Error())

	_, err = stub(t, http.StatusInternalServerError, `{"message":"could not complete the request, please retry"}`).
		Attempt(ctx, request("2025-01-10", "2025-01-12"))
	assert.ErrorIs(t, err, domainbooking.ErrTransient)
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusInternalServerError, status.Code)

	_, err = stub(t, http.StatusCreated, `{not json`).Attempt(ctx, request("2025-01-10", "2025-01-12"))
	assert.ErrorIs(t, err, domainbooking.ErrTransient)
}

func TestAttemptNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL, time.Second)
	srv.Close()

	_, err := c.Attempt(context.Background(), request("2025-01-10", "2025-01-12"))
	assert.ErrorIs(t, err, domainbooking.ErrTransient)
	assert.False(t, errors.Is(err, domainbooking.ErrConflict))
}

func TestAttemptSendsIdempotencyKey(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Idempotency-Key")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"firstName":"Asha","lastName":"Rao","vehicleId":7,"startDate":"2025-01-10","endDate":"2025-01-12","createdAt":"2025-01-05T09:00:00Z"}`))
	}))
	defer srv.Close()
	c := New(srv.URL+"/", time.Second)
	c.NewIdempotencyKey = func() string { return "fixed" }

	b, err := c.Attempt(context.Background(), request("2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
	assert.Equal(t, domainbooking.BookingID(1), b.ID)
	assert.Equal(t, 3, b.Range.DurationDays())
}

func TestAgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cat := memory.NewCatalogRepository()
	require.NoError(t, cat.Upsert(ctx,
		[]domaincatalog.VehicleType{{ID: 2, Name: "Sedan", Wheels: domaincatalog.FourWheeler}},
		[]domaincatalog.Vehicle{
			{ID: 7, Name: "Skoda Slavia", TypeID: 2, PricePerDay: money.Must(200000, "INR"), IsAvailable: true},
			{ID: 6, Name: "Maruti Ciaz", TypeID: 2, PricePerDay: money.Must(170000, "INR"), IsAvailable: false},
		}))
	factory := memory.Factory{BookingRepo: memory.NewBookingRepository(), CatalogRepo: cat, Outbox: memory.NewOutboxStore()}
	cmdBus := commands.NewInMemoryBus()
	handlers.RegisterCommands(cmdBus, &bookingsvc.Service{
		UoW: factory,
		Now: func() time.Time { return time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC) },
	})
	queryBus := queries.NewInMemoryBus()
	handlers.RegisterQueries(queryBus, factory)
	router := ginserver.NewRouter(obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: middleware.ChainCommands(cmdBus, middleware.Validation(middleware.SelfValidator{})),
			Queries:  queryBus,
		},
		Catalog: ginserver.CatalogHandler{Queries: queryBus},
	})
	srv := httptest.NewServer(router)
	defer srv.Close()
	c := New(srv.URL+"/api/v1", time.Second)
	require.NoError(t, c.Ping(ctx))

	types, err := c.VehicleTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, domaincatalog.FourWheeler, types[0].Wheels)

	vehicles, err := c.VehiclesByType(ctx, 2)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, money.Must(200000, "INR"), vehicles[0].PricePerDay)

	b, err := c.Attempt(ctx, request("2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	assert.NotZero(t, b.ID)

	_, err = c.Attempt(ctx, request("2025-01-12", "2025-01-14"))
	assert.ErrorIs(t, err, domainbooking.ErrConflict)
	assert.Contains(t, err.Error(), "2025-01-10 to 2025-01-12")
}

func TestAttemptPrefersRequestKey(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Idempotency-Key")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"firstName":"Asha","lastName":"Rao","vehicleId":7,"startDate":"2025-01-10","endDate":"2025-01-12","createdAt":"2025-01-05T09:00:00Z"}`))
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)
	c.NewIdempotencyKey = func() string { return "generated" }

	req := request("2025-01-10", "2025-01-12")
	req.IdempotencyKey = "submission-1"
	_, err := c.Attempt(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "submission-1", got)
}

// slowFirstPost commits the first booking POST but answers only after the
// client has given up on it.
type slowFirstPost struct {
	next  http.Handler
	delay time.Duration
	posts atomic.Int32
}

func (h *slowFirstPost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || h.posts.Add(1) != 1 {
		h.next.ServeHTTP(w, r)
		return
	}
	rec := httptest.NewRecorder()
	h.next.ServeHTTP(rec, r)
	time.Sleep(h.delay)
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

func TestWizardRetryAfterLostResponseReturnsSameBooking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	today := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	cat := memory.NewCatalogRepository()
	sedan := domaincatalog.VehicleType{ID: 2, Name: "Sedan", Wheels: domaincatalog.FourWheeler}
	slavia := domaincatalog.Vehicle{ID: 7, Name: "Skoda Slavia", TypeID: 2, PricePerDay: money.Must(200000, "INR"), IsAvailable: true}
	require.NoError(t, cat.Upsert(ctx, []domaincatalog.VehicleType{sedan}, []domaincatalog.Vehicle{slavia}))
	bookings := memory.NewBookingRepository()
	factory := memory.Factory{BookingRepo: bookings, CatalogRepo: cat, Outbox: memory.NewOutboxStore()}
	cmdBus := commands.NewInMemoryBus()
	handlers.RegisterCommands(cmdBus, &bookingsvc.Service{UoW: factory, Now: func() time.Time { return today }})
	router := ginserver.NewRouter(obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: middleware.ChainCommands(cmdBus,
				middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil, nil),
				middleware.Validation(middleware.SelfValidator{}),
			),
		},
	})
	srv := httptest.NewServer(&slowFirstPost{next: router, delay: 400 * time.Millisecond})
	defer srv.Close()

	c := New(srv.URL+"/api/v1", 100*time.Millisecond)
	m := wizard.New(wizard.Options{Submitter: c, Now: func() time.Time { return today }})
	for _, ev := range []wizard.Event{
		wizard.UpdateField{Field: wizard.FieldFirstName, Value: "Asha"},
		wizard.UpdateField{Field: wizard.FieldLastName, Value: "Rao"},
		wizard.Advance{},
		wizard.UpdateField{Field: wizard.FieldWheelClass, Value: domaincatalog.FourWheeler},
		wizard.Advance{},
		wizard.UpdateField{Field: wizard.FieldVehicleType, Value: sedan},
		wizard.Advance{},
		wizard.UpdateField{Field: wizard.FieldVehicle, Value: slavia},
		wizard.Advance{},
		wizard.UpdateField{Field: wizard.FieldRange, Value: daterange.Must(today.AddDate(0, 0, 5), today.AddDate(0, 0, 7))},
		wizard.Advance{},
	} {
		_, err := m.Dispatch(ev)
		require.NoError(t, err)
	}
	require.Equal(t, wizard.StepReview, m.Draft().Step)

	d, err := m.Submit(ctx)
	require.ErrorIs(t, err, domainbooking.ErrTransient)
	assert.Equal(t, wizard.GenericSubmitFailure, d.Errors[wizard.FieldSubmit])

	// Let the first request finish committing before retrying.
	time.Sleep(500 * time.Millisecond)
	d, err = m.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepSuccess, d.Step)

	stored, err := bookings.ListByVehicle(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, stored[0].ID, d.Booking.ID)
}
