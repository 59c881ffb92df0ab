package contact

import (
	"strings"
	"testing"
	"time"

	"github.com/kakuu-clinic/contact-service/internal/ratelimit"
)

func newTestGuard(t *testing.T, limit int) *SpamGuard {
	t.Helper()
	limiter := ratelimit.New(limit, time.Minute)
	t.Cleanup(limiter.Stop)
	return NewSpamGuard(limiter, 2*time.Second)
}

func TestEvaluateClean(t *testing.T) {
	g := newTestGuard(t, 5)

	verdict := g.Evaluate(SubmissionInput{Name: "田中"}, "key", time.Now())
	if verdict != VerdictClean {
		t.Fatalf("verdict = %v, want clean", verdict)
	}
}

func TestEvaluateHoneypot(t *testing.T) {
	g := newTestGuard(t, 5)

	tests := []struct {
		name     string
		honeypot string
		want     Verdict
	}{
		{"empty honeypot is clean", "", VerdictClean},
		{"whitespace-only honeypot trips", "   ", VerdictHoneypot},
		{"filled honeypot trips", "http://spam.example", VerdictHoneypot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Evaluate(SubmissionInput{Honeypot: tt.honeypot}, "key-"+tt.name, time.Now())
			if got != tt.want {
				t.Errorf("verdict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTiming(t *testing.T) {
	g := newTestGuard(t, 5)
	now := time.Now()

	tests := []struct {
		name string
		ts   int64
		want Verdict
	}{
		{"no timestamp skips the check", 0, VerdictClean},
		{"submitted half a second after load", now.Add(-500 * time.Millisecond).UnixMilli(), VerdictTooFast},
		{"submitted five seconds after load", now.Add(-5 * time.Second).UnixMilli(), VerdictClean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Evaluate(SubmissionInput{ClientTimestamp: tt.ts}, "key-"+tt.name, now)
			if got != tt.want {
				t.Errorf("verdict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateRateLimit(t *testing.T) {
	g := newTestGuard(t, 5)
	now := time.Now()

	for i := 0; i < 5; i++ {
		if got := g.Evaluate(SubmissionInput{}, "shared", now); got != VerdictClean {
			t.Fatalf("submission %d: verdict = %v, want clean", i+1, got)
		}
	}

	if got := g.Evaluate(SubmissionInput{}, "shared", now); got != VerdictRateLimited {
		t.Fatalf("sixth submission: verdict = %v, want rate limited", got)
	}
}

func TestRateLimitCheckedBeforeHoneypot(t *testing.T) {
	g := newTestGuard(t, 1)
	now := time.Now()

	g.Evaluate(SubmissionInput{}, "shared", now)

	// Even a honeypot-tripping submission counts against, and is
	// reported as, the rate limit once the window is exhausted.
	got := g.Evaluate(SubmissionInput{Honeypot: "spam"}, "shared", now)
	if got != VerdictRateLimited {
		t.Fatalf("verdict = %v, want rate limited", got)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		ip        string
		userAgent string
		want      string
	}{
		{"ip and agent", "203.0.113.7", "Mozilla/5.0", "203.0.113.7|Mozilla/5.0"},
		{"missing ip falls back to sentinel", "", "Mozilla/5.0", "unknown|Mozilla/5.0"},
		{"long agent truncated", "203.0.113.7", strings.Repeat("x", 100), "203.0.113.7|" + strings.Repeat("x", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientKey(tt.ip, tt.userAgent); got != tt.want {
				t.Errorf("ClientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
