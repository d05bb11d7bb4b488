// Package client talks to the rental HTTP API on behalf of the booking wizard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vehiclerental/internal/app/dto"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/domain/shared/money"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCurrency = "INR"
	maxErrorBody    = 64 << 10
)

// Client implements catalog.Gateway and submits bookings.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Currency is assumed for prices the server sends without one.
	Currency string
	// NewIdempotencyKey names submissions whose request carries no key;
	// defaults to a random UUID.
	NewIdempotencyKey func() string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) VehicleTypes(ctx context.Context) ([]domaincatalog.VehicleType, error) {
	var body []dto.VehicleType
	if err := c.get(ctx, "/vehicle-types", &body); err != nil {
		return nil, err
	}
	out := make([]domaincatalog.VehicleType, 0, len(body))
	for _, t := range body {
		out = append(out, domaincatalog.VehicleType{
			ID:     domaincatalog.TypeID(t.ID),
			Name:   t.Name,
			Wheels: domaincatalog.WheelClass(t.Wheels),
		})
	}
	return out, nil
}

func (c *Client) VehiclesByType(ctx context.Context, typeID domaincatalog.TypeID) ([]domaincatalog.Vehicle, error) {
	var body []dto.Vehicle
	if err := c.get(ctx, "/vehicles/"+strconv.FormatInt(int64(typeID), 10), &body); err != nil {
		return nil, err
	}
	out := make([]domaincatalog.Vehicle, 0, len(body))
	for _, v := range body {
		currency := v.Currency
		if currency == "" {
			currency = c.currency()
		}
		price, err := money.FromMajor(v.PricePerDay, currency)
		if err != nil {
			return nil, fmt.Errorf("client: vehicle %d price: %w", v.ID, err)
		}
		out = append(out, domaincatalog.Vehicle{
			ID:          domaincatalog.VehicleID(v.ID),
			Name:        v.Name,
			TypeID:      domaincatalog.TypeID(v.TypeID),
			PricePerDay: price,
			IsAvailable: v.IsAvailable,
		})
	}
	return out, nil
}

type createBookingRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	VehicleID int64  `json:"vehicleId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Attempt posts the booking. Errors follow the booking taxonomy: 400 becomes
// *ValidationError, 409 *ConflictError, anything else *TransientError.
func (c *Client) Attempt(ctx context.Context, req domainbooking.Request) (*domainbooking.Booking, error) {
	payload, err := json.Marshal(createBookingRequest{
		FirstName: req.Customer.FirstName,
		LastName:  req.Customer.LastName,
		VehicleID: int64(req.VehicleID),
		StartDate: daterange.FormatDay(req.Range.Start),
		EndDate:   daterange.FormatDay(req.Range.End),
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/bookings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	key := req.IdempotencyKey
	if key == "" {
		key = c.idempotencyKey()
	}
	httpReq.Header.Set("Idempotency-Key", key)

	var created dto.Booking
	if err := c.do(httpReq, &created, req.VehicleID); err != nil {
		return nil, err
	}
	dr, err := daterange.Parse(created.StartDate, created.EndDate)
	if err != nil {
		return nil, domainbooking.Transient("decode booking", err)
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(created.ID),
		Customer:  domainbooking.Customer{FirstName: created.FirstName, LastName: created.LastName},
		VehicleID: domaincatalog.VehicleID(created.VehicleID),
		Range:     dr,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out, 0)
}

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (c *Client) do(req *http.Request, out any, vehicleID domaincatalog.VehicleID) error {
	op := req.Method + " " + req.URL.Path
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domainbooking.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domainbooking.Transient(op, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	if body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		verr := &domainbooking.ValidationError{}
		for field, msg := range body.Fields {
			verr.Add(field, msg)
		}
		if len(verr.Fields) == 0 {
			verr.Add("request", body.Message)
		}
		return verr
	case http.StatusConflict:
		return &domainbooking.ConflictError{VehicleID: vehicleID, Message: body.Message}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domainbooking.ErrNotFound, op)
	}
	return domainbooking.Transient(op, &StatusError{Code: resp.StatusCode, Message: body.Message})
}

// StatusError is an unexpected HTTP status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return &http.Client{Timeout: defaultTimeout}
	}
	return c.HTTP
}

func (c *Client) currency() string {
	if c.Currency == "" {
		return defaultCurrency
	}
	return c.Currency
}

func (c *Client) idempotencyKey() string {
	if c.NewIdempotencyKey != nil {
		return c.NewIdempotencyKey()
	}
	return uuid.NewString()
}

// Ping checks that the API answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return err
	}
	u.Path = "/livez"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

var _ domaincatalog.Gateway = (*Client)(nil)
