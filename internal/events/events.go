package events

// Routing keys published on the booking exchange. Downstream consumers
// (notification workers, analytics) bind on booking.*.
const (
	RKBookingCreated     = "booking.created"
	RKBookingCancelled   = "booking.cancelled"
	RKBookingRescheduled = "booking.rescheduled"
	RKBookingCorrected   = "booking.corrected"
)

type BookingCreated struct {
	BookingUID       string `json:"booking_uid"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Start            int64  `json:"start"` // unix seconds
	PlaceholderEmail bool   `json:"placeholder_email"`
}

type BookingCancelled struct {
	BookingUID string `json:"booking_uid"`
	Reason     string `json:"reason,omitempty"`
}

type BookingRescheduled struct {
	BookingUID string `json:"booking_uid"`
	Start      int64  `json:"start"`
}

type BookingCorrected struct {
	BookingUID    string `json:"booking_uid"`
	NewBookingUID string `json:"new_booking_uid,omitempty"`
	Email         string `json:"email"`
	Rebooked      bool   `json:"rebooked"`
}
