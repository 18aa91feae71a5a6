// Package calendar is a thin client for the scheduling provider's v1 HTTP
// API: list slots, create, cancel, reschedule and look up bookings. It does
// no retries and applies no timeouts of its own; every call takes a context.
package calendar

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

	"github.com/administrator-png/vapiwebhook/internal/timefmt"
)

const videoLocation = "integrations:daily"

type Client struct {
	baseURL           string
	apiKey            string
	eventTypeID       int
	loc               *time.Location
	placeholderDomain string
	httpc             *http.Client
}

func NewClient(baseURL, apiKey string, eventTypeID int, loc *time.Location, placeholderDomain string) *Client {
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		apiKey:            apiKey,
		eventTypeID:       eventTypeID,
		loc:               loc,
		placeholderDomain: placeholderDomain,
		httpc:             http.DefaultClient,
	}
}

// Configured reports whether an API key is present. Handlers use this for the
// health endpoint only; calls without a key simply fail at the provider.
func (c *Client) Configured() bool { return c.apiKey != "" }

// ListSlots returns the bookable start times for one calendar day. A day the
// provider has nothing for is a successful empty list, not an error.
func (c *Client) ListSlots(ctx context.Context, date string) ([]Slot, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("eventTypeId", strconv.Itoa(c.eventTypeID))
	q.Set("startTime", date+"T00:00:00Z")
	q.Set("endTime", date+"T23:59:59Z")
	q.Set("timeZone", c.loc.String())

	var out struct {
		Slots map[string][]Slot `json:"slots"`
	}
	if err := c.do(ctx, http.MethodGet, "/slots?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}

	slots := out.Slots[date]
	if slots == nil {
		slots = []Slot{}
	}
	return slots, nil
}

type bookingResponses struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Location bookingLocation `json:"location"`
	Notes    string          `json:"notes,omitempty"`
}

type bookingLocation struct {
	Value       string `json:"value"`
	OptionValue string `json:"optionValue"`
}

type createBookingBody struct {
	EventTypeID int              `json:"eventTypeId"`
	Start       string           `json:"start"`
	TimeZone    string           `json:"timeZone"`
	Language    string           `json:"language"`
	Metadata    map[string]any   `json:"metadata"`
	Responses   bookingResponses `json:"responses"`
}

// CreateBooking books the fixed event type at the spoken date/time. When no
// notes are given a default is attached that records how the booking was
// taken, so staff can tell placeholder-email bookings apart.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	start, err := timefmt.ParseDateTime(req.Date, req.TimeOfDay, c.loc)
	if err != nil {
		return nil, err
	}

	notes := req.Notes
	if notes == "" {
		if c.isPlaceholder(req.Email) {
			notes = "Booked by phone assistant. Email pending customer confirmation."
		} else {
			notes = "Booked by phone assistant."
		}
	}

	body := createBookingBody{
		EventTypeID: c.eventTypeID,
		Start:       start.Format(time.RFC3339),
		TimeZone:    c.loc.String(),
		Language:    "en",
		Metadata:    map[string]any{"phone": req.Phone},
		Responses: bookingResponses{
			Name:     req.Name,
			Email:    req.Email,
			Location: bookingLocation{Value: videoLocation},
			Notes:    notes,
		},
	}
	return c.postBooking(ctx, "/bookings?apiKey="+url.QueryEscape(c.apiKey), body)
}

// CreateBookingAt recreates a booking at an exact instant, used by the email
// correction workflow so the replacement keeps the original start, zone,
// location and metadata.
func (c *Client) CreateBookingAt(ctx context.Context, req RebookRequest) (*Booking, error) {
	metadata := map[string]any{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.Phone != "" {
		metadata["phone"] = req.Phone
	}

	notes := req.Notes
	if notes == "" {
		notes = "Rebooked with corrected email address."
	}

	body := createBookingBody{
		EventTypeID: c.eventTypeID,
		Start:       req.Start.Format(time.RFC3339),
		TimeZone:    c.loc.String(),
		Language:    "en",
		Metadata:    metadata,
		Responses: bookingResponses{
			Name:     req.Name,
			Email:    req.Email,
			Location: bookingLocation{Value: videoLocation},
			Notes:    notes,
		},
	}
	return c.postBooking(ctx, "/bookings?apiKey="+url.QueryEscape(c.apiKey), body)
}

// CancelBooking cancels by uid. An empty reason becomes the standard
// customer-initiated one.
func (c *Client) CancelBooking(ctx context.Context, uid, reason string) error {
	if reason == "" {
		reason = "Cancelled at the customer's request"
	}
	body := map[string]string{"cancellationReason": reason}
	path := fmt.Sprintf("/bookings/%s/cancel?apiKey=%s", url.PathEscape(uid), url.QueryEscape(c.apiKey))
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// RescheduleBooking moves an existing booking to the spoken date/time.
func (c *Client) RescheduleBooking(ctx context.Context, uid, newDate, newTime, reason string) (*Booking, error) {
	start, err := timefmt.ParseDateTime(newDate, newTime, c.loc)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "Rescheduled at the customer's request"
	}
	body := map[string]string{
		"start":              start.Format(time.RFC3339),
		"reschedulingReason": reason,
	}
	path := fmt.Sprintf("/bookings/%s/reschedule?apiKey=%s", url.PathEscape(uid), url.QueryEscape(c.apiKey))
	return c.postBooking(ctx, path, body)
}

// FindBooking looks a booking up by uid via the list endpoint.
func (c *Client) FindBooking(ctx context.Context, uid string) (*Booking, error) {
	var out struct {
		Bookings []Booking `json:"bookings"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings?apiKey="+url.QueryEscape(c.apiKey), nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Bookings {
		if out.Bookings[i].UID == uid {
			return &out.Bookings[i], nil
		}
	}
	return nil, ErrBookingNotFound
}

func (c *Client) isPlaceholder(email string) bool {
	return c.placeholderDomain != "" && strings.Contains(email, "@"+c.placeholderDomain)
}

// postBooking submits a booking mutation and validates the response against
// the documented schema: a 2xx body without a uid is a schema mismatch, not
// something to probe alternative field locations for.
func (c *Client) postBooking(ctx context.Context, path string, body any) (*Booking, error) {
	var b Booking
	if err := c.do(ctx, http.MethodPost, path, body, &b); err != nil {
		return nil, err
	}
	if b.UID == "" {
		return nil, fmt.Errorf("%w: booking response missing uid", ErrSchemaMismatch)
	}
	return &b, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// keep the api key out of error strings
	route, _, _ := strings.Cut(path, "?")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calendar %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("calendar %s %s: status %d: %s", method, route, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}
