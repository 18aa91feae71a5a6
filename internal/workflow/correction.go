// Package workflow implements the email correction flow: look the booking up,
// decide whether its address is a synthesized placeholder, and either cancel
// and rebook it under the real address or record the correction and notify
// manually. The two terminal paths are explicit outcomes, not control flow
// hidden in error handling.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/administrator-png/vapiwebhook/internal/calendar"
	"github.com/administrator-png/vapiwebhook/internal/correction"
	"github.com/administrator-png/vapiwebhook/internal/events"
	"github.com/administrator-png/vapiwebhook/internal/timefmt"
	"github.com/administrator-png/vapiwebhook/pkg/mq"
)

// ErrMissingField means the request lacked bookingUid or email; no remote
// call is made in that case.
var ErrMissingField = errors.New("correction: missing required field")

type Outcome string

const (
	// OutcomeRebooked: the placeholder booking was cancelled and recreated
	// under the real address, so the provider sends a genuine confirmation.
	OutcomeRebooked Outcome = "rebooked"
	// OutcomeFallbackNotified: the booking was left in place and the customer
	// was notified manually. This covers real-email bookings and the case
	// where the rebook attempt failed partway.
	OutcomeFallbackNotified Outcome = "fallback_notified"
)

type CalendarAPI interface {
	FindBooking(ctx context.Context, uid string) (*calendar.Booking, error)
	CancelBooking(ctx context.Context, uid, reason string) error
	CreateBookingAt(ctx context.Context, req calendar.RebookRequest) (*calendar.Booking, error)
}

type Mailer interface {
	Configured() bool
	Send(ctx context.Context, to, subject, html string) error
}

type Request struct {
	BookingUID string `json:"bookingUid"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Name       string `json:"name"`
}

type Response struct {
	Outcome       Outcome
	NewBookingUID string
	Date          string
	Clock         string
	Name          string
}

type Workflow struct {
	cal               CalendarAPI
	store             correction.Store
	mail              Mailer
	pub               *mq.Publisher
	loc               *time.Location
	placeholderDomain string
}

func New(cal CalendarAPI, store correction.Store, mail Mailer, pub *mq.Publisher, loc *time.Location, placeholderDomain string) *Workflow {
	return &Workflow{
		cal:               cal,
		store:             store,
		mail:              mail,
		pub:               pub,
		loc:               loc,
		placeholderDomain: placeholderDomain,
	}
}

// CorrectEmail runs the full correction for one booking. It returns
// calendar.ErrBookingNotFound when the uid is unknown and ErrMissingField on
// an incomplete request; any other error is unexpected.
func (w *Workflow) CorrectEmail(ctx context.Context, req Request) (*Response, error) {
	if req.BookingUID == "" {
		return nil, fmt.Errorf("%w: bookingUid", ErrMissingField)
	}
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	}

	booking, err := w.cal.FindBooking(ctx, req.BookingUID)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = booking.AttendeeName()
	}

	outcome := OutcomeFallbackNotified
	effective := booking
	var newUID string

	if correction.IsPlaceholderEmail(booking.AttendeeEmail(), w.placeholderDomain) {
		if rebooked := w.rebook(ctx, booking, name, req); rebooked != nil {
			outcome = OutcomeRebooked
			effective = rebooked
			newUID = rebooked.UID
		}
	}

	rec := &correction.Record{
		BookingUID:    req.BookingUID,
		NewBookingUID: newUID,
		Name:          name,
		Email:         req.Email,
		Phone:         req.Phone,
		PrevName:      booking.AttendeeName(),
		PrevEmail:     booking.AttendeeEmail(),
		CorrectedAt:   time.Now().UTC(),
	}
	if err := w.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store correction: %w", err)
	}

	if outcome == OutcomeFallbackNotified {
		w.sendConfirmationEmail(ctx, effective, name, req.Email)
	}

	if err := w.pub.PublishJSON(ctx, events.RKBookingCorrected, events.BookingCorrected{
		BookingUID:    req.BookingUID,
		NewBookingUID: newUID,
		Email:         req.Email,
		Rebooked:      outcome == OutcomeRebooked,
	}); err != nil {
		log.Printf("[correction] publish %s: %v", events.RKBookingCorrected, err)
	}

	return &Response{
		Outcome:       outcome,
		NewBookingUID: newUID,
		Date:          timefmt.FormatDate(effective.StartTime, w.loc),
		Clock:         timefmt.FormatClock(effective.StartTime, w.loc),
		Name:          name,
	}, nil
}

// rebook cancels the placeholder booking and recreates it with the corrected
// identity. A cancel failure is logged and does not block the rebook; a
// create failure returns nil so the caller falls back to manual notification
// with the original booking data.
func (w *Workflow) rebook(ctx context.Context, booking *calendar.Booking, name string, req Request) *calendar.Booking {
	if err := w.cal.CancelBooking(ctx, booking.UID, "Rebooking with corrected email address"); err != nil {
		log.Printf("[correction] cancel uid=%s: %v (continuing to rebook)", booking.UID, err)
	}

	replacement, err := w.cal.CreateBookingAt(ctx, calendar.RebookRequest{
		Name:     name,
		Email:    req.Email,
		Phone:    req.Phone,
		Start:    booking.StartTime,
		Metadata: booking.Metadata,
	})
	if err != nil {
		log.Printf("[correction] rebook uid=%s: %v (falling back to manual notification)", booking.UID, err)
		return nil
	}
	return replacement
}

// sendConfirmationEmail is best-effort; an unconfigured or failing mailer is
// logged and never fails the correction.
func (w *Workflow) sendConfirmationEmail(ctx context.Context, booking *calendar.Booking, name, email string) {
	if !w.mail.Configured() {
		log.Printf("[correction] email provider not configured, skipping confirmation for uid=%s", booking.UID)
		return
	}

	when := fmt.Sprintf("%s at %s", timefmt.FormatDate(booking.StartTime, w.loc), timefmt.FormatClock(booking.StartTime, w.loc))
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Your appointment is confirmed for <strong>%s</strong>.</p>`, name, when)
	if link := booking.JoinURL(); link != "" {
		html += fmt.Sprintf(`<p>Join your appointment here: <a href=%q>%s</a></p>`, link, link)
	}
	html += `<p>See you then!</p>`

	if err := w.mail.Send(ctx, email, "Your appointment is confirmed", html); err != nil {
		log.Printf("[correction] confirmation email uid=%s: %v", booking.UID, err)
	}
}
