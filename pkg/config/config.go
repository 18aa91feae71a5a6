package config

import (
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// HTTP
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	// Calendar provider
	CalAPIKey      string `envconfig:"CAL_API_KEY"`
	CalBaseURL     string `envconfig:"CAL_API_BASE_URL" default:"https://api.cal.com/v1"`
	CalEventTypeID int    `envconfig:"CAL_EVENT_TYPE_ID" default:"1"`
	BusinessTZ     string `envconfig:"BUSINESS_TZ" default:"Europe/London"`

	// Bookings taken over the phone without an email address get a synthesized
	// one under this domain; the correction workflow branches on it.
	PlaceholderEmailDomain string `envconfig:"PLACEHOLDER_EMAIL_DOMAIN" default:"pending-booking.invalid"`

	// WhatsApp via Twilio
	TwilioAccountSID   string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `envconfig:"TWILIO_WHATSAPP_FROM"`

	// Transactional email via Resend
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"bookings@example.com"`

	// Optional backing services; empty means the in-memory/no-op fallback
	PGDSN           string `envconfig:"PG_DSN"`
	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
