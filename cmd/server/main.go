package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/administrator-png/vapiwebhook/internal/calendar"
	"github.com/administrator-png/vapiwebhook/internal/correction"
	"github.com/administrator-png/vapiwebhook/internal/dispatch"
	"github.com/administrator-png/vapiwebhook/internal/notify"
	"github.com/administrator-png/vapiwebhook/internal/server"
	"github.com/administrator-png/vapiwebhook/internal/workflow"
	"github.com/administrator-png/vapiwebhook/pkg/config"
	"github.com/administrator-png/vapiwebhook/pkg/db"
	"github.com/administrator-png/vapiwebhook/pkg/mq"
	"github.com/administrator-png/vapiwebhook/pkg/obs"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	_ = godotenv.Load()

	cfg := must(config.Load())

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown := obs.InitTracer("vapi-webhook")
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	loc := must(time.LoadLocation(cfg.BusinessTZ))

	// Correction store: volatile by default, Postgres when a DSN is given.
	var store correction.Store = correction.NewMemoryStore()
	if cfg.PGDSN != "" {
		gs := correction.NewGormStore(db.Open(cfg.PGDSN))
		must(0, gs.Migrate())
		store = gs
		log.Println("[server] corrections persisted to postgres")
	} else {
		log.Println("[server] corrections held in memory only (lost on restart)")
	}

	// Event publisher: nil publisher is a no-op when RabbitMQ is absent.
	var pub *mq.Publisher
	if cfg.RabbitURL != "" {
		pub = must(mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange))
		defer pub.Close()
	}

	cal := calendar.NewClient(cfg.CalBaseURL, cfg.CalAPIKey, cfg.CalEventTypeID, loc, cfg.PlaceholderEmailDomain)
	wa := notify.NewWhatsApp(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	mail := notify.NewEmail(cfg.ResendAPIKey, cfg.EmailFrom)

	disp := dispatch.New(cal, wa, pub, loc, cfg.PlaceholderEmailDomain, cfg.PublicBaseURL)
	wf := workflow.New(cal, store, mail, pub, loc, cfg.PlaceholderEmailDomain)

	srv := server.New(disp, wf, cal.Configured(), map[string]bool{
		"whatsappConfigured": wa.Configured(),
		"emailConfigured":    mail.Configured(),
		"eventsConfigured":   pub != nil,
		"storePersistent":    cfg.PGDSN != "",
	})

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		log.Println("[server] listening on", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
	log.Println("[server] stopped")
}
