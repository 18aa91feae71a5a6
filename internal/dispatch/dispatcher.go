// Package dispatch routes voice-assistant tool calls to the scheduling
// operations and turns every outcome, including failures, into a spoken-ready
// result. A failing call never takes its siblings in the same batch down.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/administrator-png/vapiwebhook/internal/calendar"
	"github.com/administrator-png/vapiwebhook/internal/correction"
	"github.com/administrator-png/vapiwebhook/internal/events"
	"github.com/administrator-png/vapiwebhook/internal/timefmt"
	"github.com/administrator-png/vapiwebhook/pkg/mq"
)

const (
	ToolGetAvailableSlots     = "getAvailableSlots"
	ToolBookAppointment       = "bookAppointment"
	ToolCancelAppointment     = "cancelAppointment"
	ToolRescheduleAppointment = "rescheduleAppointment"
)

const genericApology = "I'm sorry, I wasn't able to do that just now. Could you try again?"

type CalendarAPI interface {
	ListSlots(ctx context.Context, date string) ([]calendar.Slot, error)
	CreateBooking(ctx context.Context, req calendar.CreateBookingRequest) (*calendar.Booking, error)
	CancelBooking(ctx context.Context, uid, reason string) error
	RescheduleBooking(ctx context.Context, uid, newDate, newTime, reason string) (*calendar.Booking, error)
}

type Messenger interface {
	Configured() bool
	Send(ctx context.Context, to, body string) error
}

type Dispatcher struct {
	cal               CalendarAPI
	wa                Messenger
	pub               *mq.Publisher
	loc               *time.Location
	placeholderDomain string
	publicBaseURL     string
}

func New(cal CalendarAPI, wa Messenger, pub *mq.Publisher, loc *time.Location, placeholderDomain, publicBaseURL string) *Dispatcher {
	return &Dispatcher{
		cal:               cal,
		wa:                wa,
		pub:               pub,
		loc:               loc,
		placeholderDomain: placeholderDomain,
		publicBaseURL:     strings.TrimRight(publicBaseURL, "/"),
	}
}

// Dispatch runs the batch strictly in order, one result per function call,
// each tagged with the call's id. Non-function entries are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []ToolCall) []TaggedResult {
	results := make([]TaggedResult, 0, len(calls))
	for _, call := range calls {
		if call.Type != "function" {
			continue
		}
		results = append(results, TaggedResult{
			ToolCallID: call.ID,
			Result:     d.dispatchOne(ctx, call.Function),
		})
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, fn FunctionCall) Result {
	switch fn.Name {
	case ToolGetAvailableSlots:
		return d.getAvailableSlots(ctx, fn.Arguments)
	case ToolBookAppointment:
		return d.bookAppointment(ctx, fn.Arguments)
	case ToolCancelAppointment:
		return d.cancelAppointment(ctx, fn.Arguments)
	case ToolRescheduleAppointment:
		return d.rescheduleAppointment(ctx, fn.Arguments)
	default:
		return Result{
			Success: false,
			Error:   fmt.Sprintf("unknown tool %q", fn.Name),
			Message: genericApology,
		}
	}
}

func (d *Dispatcher) getAvailableSlots(ctx context.Context, args Args) Result {
	date := args.String("date")
	if date == "" {
		return Result{
			Success: false,
			Error:   "missing required argument: date",
			Message: "Which day would you like to come in? I can check availability for any date.",
		}
	}

	slots, err := d.cal.ListSlots(ctx, date)
	if err != nil {
		log.Printf("[dispatch] list slots date=%s: %v", date, err)
		return Result{
			Success: false,
			Error:   err.Error(),
			Message: "I'm sorry, I couldn't check availability just now. Could you try again in a moment?",
		}
	}

	times := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Time)
	}
	formatted := timefmt.FormatSlots(times, d.loc)

	if len(formatted) == 0 {
		return Result{
			Success: true,
			Slots:   formatted,
			Message: fmt.Sprintf("I don't have any openings on %s. Would a different day work for you?", date),
		}
	}
	return Result{
		Success: true,
		Slots:   formatted,
		Message: fmt.Sprintf("On %s I have: %s. Which time works for you?", date, strings.Join(formatted, ", ")),
	}
}

func (d *Dispatcher) bookAppointment(ctx context.Context, args Args) Result {
	name := args.String("name")
	phone := args.String("phone")
	email := args.String("email")
	date := args.String("date")
	timeOfDay := args.String("time")

	if missing := firstMissing(map[string]string{
		"name": name, "phone": phone, "date": date, "time": timeOfDay,
	}); missing != "" {
		return Result{
			Success: false,
			Error:   "missing required argument: " + missing,
			Message: "I'm missing a few details to book that. Could you give me your name, phone number, and the date and time you'd like?",
		}
	}

	placeholder := email == ""
	if placeholder {
		email = correction.PlaceholderEmail(phone, d.placeholderDomain)
	}

	b, err := d.cal.CreateBooking(ctx, calendar.CreateBookingRequest{
		Name:      name,
		Email:     email,
		Phone:     phone,
		Date:      date,
		TimeOfDay: timeOfDay,
		Notes:     args.String("notes"),
	})
	if err != nil {
		log.Printf("[dispatch] create booking: %v", err)
		return Result{
			Success: false,
			Error:   err.Error(),
			Message: "I'm sorry, that time may no longer be available. Could we try a different time?",
		}
	}

	waSent := d.sendBookingWhatsApp(ctx, b, name, phone, placeholder)

	if err := d.pub.PublishJSON(ctx, events.RKBookingCreated, events.BookingCreated{
		BookingUID:       b.UID,
		Name:             name,
		Phone:            phone,
		Email:            email,
		Start:            b.StartTime.Unix(),
		PlaceholderEmail: placeholder,
	}); err != nil {
		log.Printf("[dispatch] publish %s: %v", events.RKBookingCreated, err)
	}

	msg := fmt.Sprintf("You're booked in for %s at %s.",
		timefmt.FormatDate(b.StartTime, d.loc), timefmt.FormatClock(b.StartTime, d.loc))
	if placeholder {
		msg += " I'll send you a WhatsApp message with a link to confirm your email address."
	} else {
		msg += fmt.Sprintf(" A confirmation is on its way to %s.", email)
	}

	return Result{
		Success:      true,
		Message:      msg,
		BookingID:    b.ID,
		BookingUID:   b.UID,
		WhatsAppSent: &waSent,
	}
}

// sendBookingWhatsApp is best-effort: a messaging failure is reported in the
// result's side channel but never flips the booking's own success flag.
func (d *Dispatcher) sendBookingWhatsApp(ctx context.Context, b *calendar.Booking, name, phone string, placeholder bool) bool {
	when := fmt.Sprintf("%s at %s", timefmt.FormatDate(b.StartTime, d.loc), timefmt.FormatClock(b.StartTime, d.loc))

	var body string
	if placeholder {
		link := fmt.Sprintf("%s/update-email?bookingUid=%s", d.publicBaseURL, b.UID)
		body = fmt.Sprintf("Hi %s, your appointment on %s is booked. Please confirm your email address so we can send your booking details: %s", name, when, link)
	} else {
		body = fmt.Sprintf("Hi %s, your appointment on %s is confirmed. Your confirmation number is %s.", name, when, b.UID)
	}

	if err := d.wa.Send(ctx, phone, body); err != nil {
		log.Printf("[dispatch] whatsapp send uid=%s: %v", b.UID, err)
		return false
	}
	return true
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, args Args) Result {
	uid := args.String("bookingUid")
	if uid == "" {
		return Result{
			Success: false,
			Error:   "missing required argument: bookingUid",
			Message: "I need your confirmation number to cancel. Could you read it from your booking message?",
		}
	}

	if err := d.cal.CancelBooking(ctx, uid, args.String("reason")); err != nil {
		log.Printf("[dispatch] cancel booking uid=%s: %v", uid, err)
		return Result{
			Success: false,
			Error:   err.Error(),
			Message: "I'm sorry, I couldn't find a booking under that confirmation number. Could you double-check it for me?",
		}
	}

	if err := d.pub.PublishJSON(ctx, events.RKBookingCancelled, events.BookingCancelled{
		BookingUID: uid,
		Reason:     args.String("reason"),
	}); err != nil {
		log.Printf("[dispatch] publish %s: %v", events.RKBookingCancelled, err)
	}

	return Result{
		Success:    true,
		BookingUID: uid,
		Message:    "Your appointment has been cancelled. Is there anything else I can help with?",
	}
}

func (d *Dispatcher) rescheduleAppointment(ctx context.Context, args Args) Result {
	uid := args.String("bookingUid")
	newDate := args.String("newDate")
	newTime := args.String("newTime")

	if missing := firstMissing(map[string]string{
		"bookingUid": uid, "newDate": newDate, "newTime": newTime,
	}); missing != "" {
		return Result{
			Success: false,
			Error:   "missing required argument: " + missing,
			Message: "To move your appointment I need your confirmation number and the new date and time you'd like.",
		}
	}

	b, err := d.cal.RescheduleBooking(ctx, uid, newDate, newTime, args.String("reason"))
	if err != nil {
		log.Printf("[dispatch] reschedule uid=%s: %v", uid, err)
		return Result{
			Success: false,
			Error:   err.Error(),
			Message: "I'm sorry, that new time may no longer be available. Could we try a different time?",
		}
	}

	if err := d.pub.PublishJSON(ctx, events.RKBookingRescheduled, events.BookingRescheduled{
		BookingUID: b.UID,
		Start:      b.StartTime.Unix(),
	}); err != nil {
		log.Printf("[dispatch] publish %s: %v", events.RKBookingRescheduled, err)
	}

	return Result{
		Success:    true,
		BookingUID: b.UID,
		Message: fmt.Sprintf("All set. Your appointment has been moved to %s at %s.",
			timefmt.FormatDate(b.StartTime, d.loc), timefmt.FormatClock(b.StartTime, d.loc)),
	}
}

// firstMissing returns a stable choice among the empty values so error
// details don't flap between runs.
func firstMissing(fields map[string]string) string {
	order := []string{"name", "phone", "date", "time", "bookingUid", "newDate", "newTime"}
	for _, k := range order {
		if v, ok := fields[k]; ok && v == "" {
			return k
		}
	}
	return ""
}
