package contact

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kakuu-clinic/contact-service/internal/captcha"
	"github.com/kakuu-clinic/contact-service/internal/logger"
	"github.com/kakuu-clinic/contact-service/internal/mailer"
	"github.com/kakuu-clinic/contact-service/internal/metrics"
)

// CaptchaVerifier is the capability the orchestrator needs from the
// CAPTCHA subsystem.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) captcha.Verdict
}

// Service orchestrates one submission through the pipeline: spam guard,
// sanitizer, validator, optional CAPTCHA, mail dispatch. The stages run
// strictly in sequence; each stage's precondition is the previous
// stage's outcome.
type Service struct {
	guard     *SpamGuard
	verifier  CaptchaVerifier
	transport mailer.Transport
	limits    FieldLimits
	siteName  string
	logger    *slog.Logger
}

// NewService wires the pipeline components together.
func NewService(guard *SpamGuard, verifier CaptchaVerifier, transport mailer.Transport, limits FieldLimits, siteName string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		guard:     guard,
		verifier:  verifier,
		transport: transport,
		limits:    limits,
		siteName:  siteName,
		logger:    logger,
	}
}

// Submit processes one raw submission and returns its terminal outcome.
// It never panics: anything unexpected is mapped to a delivery failure
// at this boundary so the caller never sees a raw stack trace.
func (s *Service) Submit(ctx context.Context, raw SubmissionInput, meta ClientMeta) (result Result) {
	id := uuid.NewString()
	log := logger.WithCorrelationID(ctx, s.logger).With(slog.String("submission_id", id))

	defer func() {
		if r := recover(); r != nil {
			log.Error("submission pipeline panic", slog.Any("panic", r))
			result = Result{Outcome: OutcomeDeliveryFailed}
		}
		metrics.SubmissionsTotal.WithLabelValues(result.Outcome.String()).Inc()
	}()

	verdict := s.guard.Evaluate(raw, ClientKey(meta.IP, meta.UserAgent), time.Now())
	metrics.SpamVerdictsTotal.WithLabelValues(verdict.String()).Inc()

	switch verdict {
	case VerdictRateLimited:
		log.Warn("submission rate limited", slog.String("ip", meta.IP))
		return Result{Outcome: OutcomeRateLimited}
	case VerdictHoneypot:
		// Silent accept: the submission is discarded but the caller
		// sees a success, so bots get no signal to adapt on.
		log.Info("honeypot tripped, discarding submission", slog.String("ip", meta.IP))
		return Result{Outcome: OutcomeAccepted}
	case VerdictTooFast:
		log.Info("submission arrived too fast after page load", slog.String("ip", meta.IP))
		return Result{Outcome: OutcomeRejectedAsSpam}
	}

	fields := Sanitize(raw, s.limits)

	validation := Validate(fields)
	if !validation.Valid {
		log.Info("submission rejected as invalid", slog.Any("fields", validation.Fields()))
		return Result{Outcome: OutcomeRejectedAsInvalid, FieldErrors: validation.FieldErrors}
	}

	cv := s.verifier.Verify(ctx, raw.CaptchaToken)
	if cv.Verified {
		metrics.CaptchaVerificationsTotal.WithLabelValues("passed").Inc()
	} else {
		metrics.CaptchaVerificationsTotal.WithLabelValues("failed").Inc()
		log.Info("captcha verification failed")
		return Result{Outcome: OutcomeRejectedByCaptcha}
	}

	msg := mailer.BuildMessage(mailer.BuildInput{
		SiteName:  s.siteName,
		Name:      fields.Name,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Subject:   fields.Subject,
		Body:      fields.Message,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Now:       time.Now(),
	})

	start := time.Now()
	receipt, err := s.transport.Send(ctx, msg)
	if err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("failed").Inc()
		// The message body stays out of the log; the operator needs
		// the error, not the submitter's PII.
		log.Error("mail delivery failed", slog.String("error", err.Error()))
		return Result{Outcome: OutcomeDeliveryFailed}
	}

	transportLabel := "smtp"
	if receipt.DryRun {
		transportLabel = "dry_run"
	}
	metrics.MailDeliveryDuration.WithLabelValues(transportLabel).Observe(time.Since(start).Seconds())
	metrics.MailDeliveriesTotal.WithLabelValues("delivered").Inc()

	log.Info("submission accepted", slog.Bool("dry_run", receipt.DryRun))
	return Result{Outcome: OutcomeAccepted}
}
