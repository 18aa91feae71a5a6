package calendar

import (
	"errors"
	"time"
)

var (
	// ErrBookingNotFound means the provider has no booking for the given uid.
	ErrBookingNotFound = errors.New("calendar: booking not found")
	// ErrSchemaMismatch means the provider answered 2xx but the body did not
	// match the documented response schema.
	ErrSchemaMismatch = errors.New("calendar: unexpected response schema")
)

// Slot is a bookable start time for one calendar day.
type Slot struct {
	Time time.Time `json:"time"`
}

// Attendee mirrors the provider's attendee record.
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
}

// Booking is the provider-owned appointment entity. id is the internal
// numeric key, uid the stable external identifier used in all booking URLs.
type Booking struct {
	ID          int64          `json:"id"`
	UID         string         `json:"uid"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	TimeZone    string         `json:"timeZone"`
	Attendees   []Attendee     `json:"attendees"`
	Metadata    map[string]any `json:"metadata"`
}

// AttendeeEmail returns the first attendee's email, or "" when none exists.
func (b *Booking) AttendeeEmail() string {
	if len(b.Attendees) == 0 {
		return ""
	}
	return b.Attendees[0].Email
}

// AttendeeName returns the first attendee's name, or "" when none exists.
func (b *Booking) AttendeeName() string {
	if len(b.Attendees) == 0 {
		return ""
	}
	return b.Attendees[0].Name
}

// JoinURL extracts the videoconference link from booking metadata, if any.
func (b *Booking) JoinURL() string {
	if b.Metadata == nil {
		return ""
	}
	if v, ok := b.Metadata["videoCallUrl"].(string); ok {
		return v
	}
	return ""
}

// CreateBookingRequest carries the spoken booking details; Date and TimeOfDay
// are converted to an instant in the business zone by the client.
type CreateBookingRequest struct {
	Name      string
	Email     string
	Phone     string
	Date      string
	TimeOfDay string
	Notes     string
}

// RebookRequest recreates a booking at an exact instant, carrying over the
// original metadata so the replacement is indistinguishable from the original
// apart from the corrected attendee identity.
type RebookRequest struct {
	Name     string
	Email    string
	Phone    string
	Start    time.Time
	Metadata map[string]any
	Notes    string
}
