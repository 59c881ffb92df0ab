package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/kakuu-clinic/contact-service/internal/captcha"
	"github.com/kakuu-clinic/contact-service/internal/config"
	"github.com/kakuu-clinic/contact-service/internal/contact"
	"github.com/kakuu-clinic/contact-service/internal/health"
	"github.com/kakuu-clinic/contact-service/internal/logger"
	"github.com/kakuu-clinic/contact-service/internal/mailer"
	"github.com/kakuu-clinic/contact-service/internal/metrics"
	appmw "github.com/kakuu-clinic/contact-service/internal/middleware"
	"github.com/kakuu-clinic/contact-service/internal/ratelimit"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())
	slog.SetDefault(log)

	// Pipeline components, explicitly constructed and injected rather
	// than living in package-level state.
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	defer limiter.Stop()

	guard := contact.NewSpamGuard(limiter, cfg.SpamGuard.MinElapsed)
	verifier := captcha.New(cfg.Captcha, log)
	transport := mailer.NewTransport(cfg.Mail, log)

	service := contact.NewService(guard, verifier, transport, contact.DefaultLimits(), cfg.Site.Name, log)
	handler := contact.NewHandler(service, log)

	healthHandler := health.NewHandler(health.Config{
		MailConfigured:    cfg.Mail.Configured(),
		CaptchaConfigured: verifier.Configured(),
		Version:           version,
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(appmw.StructuredLogger(log))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		contact.RegisterRoutes(r, handler)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server",
			slog.String("addr", addr),
			slog.Bool("mail_configured", cfg.Mail.Configured()),
			slog.Bool("captcha_configured", verifier.Configured()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server exited")
}
