package contact

import (
	"time"

	"github.com/kakuu-clinic/contact-service/internal/ratelimit"
)

// Verdict is the spam guard's classification of one submission.
type Verdict int

const (
	// VerdictClean means no spam heuristic tripped.
	VerdictClean Verdict = iota
	// VerdictHoneypot means the hidden field arrived non-empty.
	VerdictHoneypot
	// VerdictTooFast means the form was submitted sooner after page
	// load than a human plausibly could.
	VerdictTooFast
	// VerdictRateLimited means the client key exhausted its window.
	VerdictRateLimited
)

// String returns the verdict name used in logs and metrics labels.
func (v Verdict) String() string {
	switch v {
	case VerdictClean:
		return "clean"
	case VerdictHoneypot:
		return "honeypot"
	case VerdictTooFast:
		return "too_fast"
	case VerdictRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// SpamGuard combines the honeypot check, the page-load timing check and
// the per-client rate limit. It owns the limiter; no other component
// touches rate-limit state.
type SpamGuard struct {
	limiter    *ratelimit.Limiter
	minElapsed time.Duration
}

// NewSpamGuard creates a guard around the given limiter. minElapsed is
// the shortest page-load-to-submit interval accepted from clients that
// report one.
func NewSpamGuard(limiter *ratelimit.Limiter, minElapsed time.Duration) *SpamGuard {
	return &SpamGuard{limiter: limiter, minElapsed: minElapsed}
}

// Evaluate classifies the submission. The rate limit is consulted
// first: it is the cheapest check and shields the rest of the pipeline
// from load. The timing check only runs when the client supplied a
// page-load timestamp.
func (g *SpamGuard) Evaluate(raw SubmissionInput, clientKey string, now time.Time) Verdict {
	if !g.limiter.Allow(clientKey, now) {
		return VerdictRateLimited
	}

	// The hidden field must arrive exactly empty; browsers never put
	// whitespace in an untouched input, so any content at all is a bot.
	if raw.Honeypot != "" {
		return VerdictHoneypot
	}

	if raw.ClientTimestamp > 0 {
		elapsed := now.Sub(time.UnixMilli(raw.ClientTimestamp))
		if elapsed < g.minElapsed {
			return VerdictTooFast
		}
	}

	return VerdictClean
}

// ClientKey derives the rate-limit key from the first-hop client
// address and a truncated user agent. The user agent component keeps
// distinct clients behind a shared NAT or proxy from colliding onto one
// key. A missing address falls back to a sentinel so the limit still
// applies.
func ClientKey(remoteIP, userAgent string) string {
	if remoteIP == "" {
		remoteIP = "unknown"
	}
	if len(userAgent) > 32 {
		userAgent = userAgent[:32]
	}
	return remoteIP + "|" + userAgent
}
