package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/administrator-png/vapiwebhook/internal/calendar"
	"github.com/administrator-png/vapiwebhook/internal/correction"
)

const placeholderDomain = "pending-booking.invalid"

type fakeCal struct {
	booking   *calendar.Booking
	findErr   error
	cancelErr error
	createErr error

	cancelled []string
	created   []calendar.RebookRequest
}

func (f *fakeCal) FindBooking(_ context.Context, uid string) (*calendar.Booking, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.booking == nil || f.booking.UID != uid {
		return nil, calendar.ErrBookingNotFound
	}
	return f.booking, nil
}

func (f *fakeCal) CancelBooking(_ context.Context, uid, _ string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, uid)
	return nil
}

func (f *fakeCal) CreateBookingAt(_ context.Context, req calendar.RebookRequest) (*calendar.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &calendar.Booking{
		ID:        2,
		UID:       "new-uid",
		StartTime: req.Start,
		Metadata:  req.Metadata,
	}, nil
}

type fakeMailer struct {
	configured bool
	sendErr    error
	sent       []string // html bodies
	sentTo     []string
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) Send(_ context.Context, to, _, html string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTo = append(f.sentTo, to)
	f.sent = append(f.sent, html)
	return nil
}

func placeholderBooking() *calendar.Booking {
	return &calendar.Booking{
		ID:        1,
		UID:       "orig-uid",
		StartTime: time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC),
		TimeZone:  "Europe/London",
		Attendees: []calendar.Attendee{{
			Name:  "Ada Lovelace",
			Email: "pending-447700900123@" + placeholderDomain,
		}},
		Metadata: map[string]any{"videoCallUrl": "https://meet.example.com/abc"},
	}
}

func realEmailBooking() *calendar.Booking {
	b := placeholderBooking()
	b.Attendees[0].Email = "ada@example.com"
	return b
}

func newTestWorkflow(cal *fakeCal, store correction.Store, mail *fakeMailer) *Workflow {
	return New(cal, store, mail, nil, time.UTC, placeholderDomain)
}

func TestCorrectEmailPlaceholderRebooks(t *testing.T) {
	cal := &fakeCal{booking: placeholderBooking()}
	store := correction.NewMemoryStore()
	mail := &fakeMailer{configured: true}
	w := newTestWorkflow(cal, store, mail)

	resp, err := w.CorrectEmail(context.Background(), Request{
		BookingUID: "orig-uid",
		Email:      "ada@example.com",
		Phone:      "+447700900123",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeRebooked, resp.Outcome)
	require.Equal(t, "new-uid", resp.NewBookingUID)
	require.Equal(t, "Saturday, 14 March 2026", resp.Date)
	require.Equal(t, "2:00 PM", resp.Clock)
	require.Equal(t, "Ada Lovelace", resp.Name)

	require.Equal(t, []string{"orig-uid"}, cal.cancelled)
	require.Len(t, cal.created, 1)
	require.Equal(t, "ada@example.com", cal.created[0].Email)
	require.Equal(t, cal.booking.StartTime, cal.created[0].Start)
	require.Equal(t, cal.booking.Metadata, cal.created[0].Metadata)

	rec, err := store.Get(context.Background(), "orig-uid")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "new-uid", rec.NewBookingUID)
	require.NotEqual(t, rec.BookingUID, rec.NewBookingUID)
	require.Equal(t, "pending-447700900123@"+placeholderDomain, rec.PrevEmail)

	// the provider sends the real confirmation after a rebook
	require.Empty(t, mail.sent)
}

func TestCorrectEmailRealAddressNoRebook(t *testing.T) {
	cal := &fakeCal{booking: realEmailBooking()}
	store := correction.NewMemoryStore()
	mail := &fakeMailer{configured: true}
	w := newTestWorkflow(cal, store, mail)

	resp, err := w.CorrectEmail(context.Background(), Request{
		BookingUID: "orig-uid",
		Email:      "ada@newmail.com",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeFallbackNotified, resp.Outcome)
	require.Empty(t, resp.NewBookingUID)

	require.Empty(t, cal.cancelled)
	require.Empty(t, cal.created)

	rec, err := store.Get(context.Background(), "orig-uid")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Empty(t, rec.NewBookingUID)

	require.Equal(t, []string{"ada@newmail.com"}, mail.sentTo)
	require.Contains(t, mail.sent[0], "https://meet.example.com/abc")
}

func TestCorrectEmailRebookFailureFallsBack(t *testing.T) {
	cal := &fakeCal{booking: placeholderBooking(), createErr: errors.New("status 400")}
	store := correction.NewMemoryStore()
	mail := &fakeMailer{configured: true}
	w := newTestWorkflow(cal, store, mail)

	resp, err := w.CorrectEmail(context.Background(), Request{
		BookingUID: "orig-uid",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeFallbackNotified, resp.Outcome)
	require.Empty(t, resp.NewBookingUID)
	// response still carries the original booking's date and time
	require.Equal(t, "2:00 PM", resp.Clock)

	rec, err := store.Get(context.Background(), "orig-uid")
	require.NoError(t, err)
	require.Empty(t, rec.NewBookingUID)
	require.Len(t, mail.sent, 1)
}

func TestCorrectEmailCancelFailureStillRebooks(t *testing.T) {
	cal := &fakeCal{booking: placeholderBooking(), cancelErr: errors.New("status 500")}
	w := newTestWorkflow(cal, correction.NewMemoryStore(), &fakeMailer{configured: true})

	resp, err := w.CorrectEmail(context.Background(), Request{
		BookingUID: "orig-uid",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeRebooked, resp.Outcome)
	require.Len(t, cal.created, 1)
}

func TestCorrectEmailMissingFields(t *testing.T) {
	cal := &fakeCal{booking: placeholderBooking()}
	w := newTestWorkflow(cal, correction.NewMemoryStore(), &fakeMailer{})

	_, err := w.CorrectEmail(context.Background(), Request{Email: "ada@example.com"})
	require.ErrorIs(t, err, ErrMissingField)

	_, err = w.CorrectEmail(context.Background(), Request{BookingUID: "orig-uid"})
	require.ErrorIs(t, err, ErrMissingField)

	// precondition failures make no remote calls
	require.Empty(t, cal.cancelled)
	require.Empty(t, cal.created)
}

func TestCorrectEmailBookingNotFound(t *testing.T) {
	w := newTestWorkflow(&fakeCal{}, correction.NewMemoryStore(), &fakeMailer{})

	_, err := w.CorrectEmail(context.Background(), Request{BookingUID: "nope", Email: "a@b.c"})
	require.ErrorIs(t, err, calendar.ErrBookingNotFound)
}

func TestCorrectEmailMailerFailureIsSoft(t *testing.T) {
	cal := &fakeCal{booking: realEmailBooking()}
	mail := &fakeMailer{configured: true, sendErr: errors.New("status 500")}
	w := newTestWorkflow(cal, correction.NewMemoryStore(), mail)

	resp, err := w.CorrectEmail(context.Background(), Request{BookingUID: "orig-uid", Email: "a@b.c"})
	require.NoError(t, err)
	require.Equal(t, OutcomeFallbackNotified, resp.Outcome)
}

func TestCorrectEmailUnconfiguredMailerIsSoft(t *testing.T) {
	cal := &fakeCal{booking: realEmailBooking()}
	w := newTestWorkflow(cal, correction.NewMemoryStore(), &fakeMailer{configured: false})

	resp, err := w.CorrectEmail(context.Background(), Request{BookingUID: "orig-uid", Email: "a@b.c"})
	require.NoError(t, err)
	require.Equal(t, OutcomeFallbackNotified, resp.Outcome)
}
