package contact

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kakuu-clinic/contact-service/internal/captcha"
	"github.com/kakuu-clinic/contact-service/internal/logger"
	"github.com/kakuu-clinic/contact-service/internal/mailer"
	"github.com/kakuu-clinic/contact-service/internal/ratelimit"
)

// stubTransport records sent messages and can be made to fail.
type stubTransport struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (s *stubTransport) Send(ctx context.Context, msg *mailer.Message) (*mailer.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, msg)
	return &mailer.Receipt{DeliveredAt: time.Now()}, nil
}

func (s *stubTransport) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// stubVerifier returns a fixed verdict.
type stubVerifier struct {
	verdict captcha.Verdict
}

func (s *stubVerifier) Verify(ctx context.Context, token string) captcha.Verdict {
	return s.verdict
}

func newTestService(t *testing.T, transport mailer.Transport, verifier CaptchaVerifier) *Service {
	t.Helper()
	limiter := ratelimit.New(5, time.Minute)
	t.Cleanup(limiter.Stop)
	guard := NewSpamGuard(limiter, 2*time.Second)
	if verifier == nil {
		verifier = &stubVerifier{verdict: captcha.Verdict{Verified: true}}
	}
	return NewService(guard, verifier, transport, DefaultLimits(), "架空クリニック", nil)
}

func validInput() SubmissionInput {
	return SubmissionInput{
		Name:    "田中",
		Email:   "tanaka@example.com",
		Message: "相談したいです",
		Consent: true,
	}
}

func TestSubmitAccepted(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, nil)

	result := svc.Submit(context.Background(), validInput(), ClientMeta{IP: "203.0.113.7", UserAgent: "test"})

	if result.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, want accepted", result.Outcome)
	}
	if transport.sentCount() != 1 {
		t.Fatalf("transport invoked %d times, want 1", transport.sentCount())
	}
	msg := transport.sent[0]
	if !strings.Contains(msg.Subject, "田中") {
		t.Errorf("subject %q does not contain the submitter name", msg.Subject)
	}
	if msg.ReplyTo != "tanaka@example.com" {
		t.Errorf("reply-to = %q, want submitter email", msg.ReplyTo)
	}
}

func TestSubmitHoneypotSilentAccept(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, nil)

	input := validInput()
	input.Honeypot = "http://spam.example"

	result := svc.Submit(context.Background(), input, ClientMeta{IP: "203.0.113.7"})

	// The caller sees a success, but nothing was sent.
	if result.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, want accepted", result.Outcome)
	}
	if transport.sentCount() != 0 {
		t.Fatalf("transport invoked %d times, want 0", transport.sentCount())
	}
}

func TestSubmitInvalidEmail(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, nil)

	input := validInput()
	input.Email = "not-an-email"

	result := svc.Submit(context.Background(), input, ClientMeta{IP: "203.0.113.7"})

	if result.Outcome != OutcomeRejectedAsInvalid {
		t.Fatalf("outcome = %v, want rejected as invalid", result.Outcome)
	}
	if _, ok := result.FieldErrors["email"]; !ok {
		t.Errorf("field errors %v do not include email", result.FieldErrors)
	}
	if transport.sentCount() != 0 {
		t.Fatal("mail sent for invalid submission")
	}
}

func TestSubmitRateLimited(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, nil)
	meta := ClientMeta{IP: "203.0.113.7", UserAgent: "same-agent"}

	for i := 0; i < 5; i++ {
		result := svc.Submit(context.Background(), validInput(), meta)
		if result.Outcome != OutcomeAccepted {
			t.Fatalf("submission %d: outcome = %v, want accepted", i+1, result.Outcome)
		}
	}

	result := svc.Submit(context.Background(), validInput(), meta)
	if result.Outcome != OutcomeRateLimited {
		t.Fatalf("sixth submission: outcome = %v, want rate limited", result.Outcome)
	}
	if transport.sentCount() != 5 {
		t.Fatalf("transport invoked %d times, want 5", transport.sentCount())
	}
}

func TestSubmitTooFast(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, nil)

	input := validInput()
	input.ClientTimestamp = time.Now().Add(-500 * time.Millisecond).UnixMilli()

	result := svc.Submit(context.Background(), input, ClientMeta{IP: "203.0.113.7"})

	if result.Outcome != OutcomeRejectedAsSpam {
		t.Fatalf("outcome = %v, want rejected as spam", result.Outcome)
	}
	if transport.sentCount() != 0 {
		t.Fatal("mail sent for too-fast submission")
	}
}

func TestSubmitCaptchaRejected(t *testing.T) {
	transport := &stubTransport{}
	score := 0.1
	verifier := &stubVerifier{verdict: captcha.Verdict{Verified: false, Score: &score}}
	svc := newTestService(t, transport, verifier)

	result := svc.Submit(context.Background(), validInput(), ClientMeta{IP: "203.0.113.7"})

	if result.Outcome != OutcomeRejectedByCaptcha {
		t.Fatalf("outcome = %v, want rejected by captcha", result.Outcome)
	}
	if transport.sentCount() != 0 {
		t.Fatal("mail sent despite captcha rejection")
	}
}

func TestSubmitDeliveryFailed(t *testing.T) {
	transport := &stubTransport{err: errors.New("connection refused")}
	svc := newTestService(t, transport, nil)

	result := svc.Submit(context.Background(), validInput(), ClientMeta{IP: "203.0.113.7"})

	if result.Outcome != OutcomeDeliveryFailed {
		t.Fatalf("outcome = %v, want delivery failed", result.Outcome)
	}
}

func TestSubmitLogsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	limiter := ratelimit.New(5, time.Minute)
	t.Cleanup(limiter.Stop)
	guard := NewSpamGuard(limiter, 2*time.Second)
	verifier := &stubVerifier{verdict: captcha.Verdict{Verified: true}}
	svc := NewService(guard, verifier, &stubTransport{}, DefaultLimits(), "架空クリニック", log)

	ctx := logger.SetCorrelationID(context.Background(), "req-abc-123")
	result := svc.Submit(ctx, validInput(), ClientMeta{IP: "203.0.113.7"})

	if result.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, want accepted", result.Outcome)
	}
	if !strings.Contains(buf.String(), "req-abc-123") {
		t.Errorf("pipeline logs do not carry the request correlation id:\n%s", buf.String())
	}
}

// panicTransport simulates an unexpected failure inside a component.
type panicTransport struct{}

func (p *panicTransport) Send(ctx context.Context, msg *mailer.Message) (*mailer.Receipt, error) {
	panic("transport exploded")
}

func TestSubmitRecoversFromPanic(t *testing.T) {
	svc := newTestService(t, &panicTransport{}, nil)

	result := svc.Submit(context.Background(), validInput(), ClientMeta{IP: "203.0.113.7"})

	if result.Outcome != OutcomeDeliveryFailed {
		t.Fatalf("outcome = %v, want delivery failed", result.Outcome)
	}
}
