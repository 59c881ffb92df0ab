// Package captcha verifies client-supplied CAPTCHA tokens against an
// external verification endpoint. The whole package is optional: with
// no secret configured, every submission passes as not-applicable.
package captcha

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kakuu-clinic/contact-service/internal/config"
)

// Verdict is the outcome of one verification attempt.
type Verdict struct {
	Verified bool
	// Score is the service-reported confidence, when present.
	Score *float64
}

// Verifier calls the external verification service.
type Verifier struct {
	secret    string
	verifyURL string
	threshold float64
	client    *http.Client
	logger    *slog.Logger
}

// New creates a Verifier from configuration. The HTTP client carries a
// hard timeout so a hung verification service cannot stall submissions.
func New(cfg config.CaptchaConfig, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		threshold: cfg.Threshold,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// verifyResponse is the service's JSON reply. The score is optional;
// v2-style endpoints omit it.
type verifyResponse struct {
	Success bool     `json:"success"`
	Score   *float64 `json:"score"`
}

// Verify checks the client token. With no secret configured or no token
// supplied, verification is not applicable and the verdict is verified.
// Transport errors, non-2xx statuses and malformed responses all fail
// closed. A reported score below the threshold fails even when the raw
// success flag is true.
func (v *Verifier) Verify(ctx context.Context, token string) Verdict {
	if v.secret == "" || token == "" {
		return Verdict{Verified: true}
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		v.logger.Error("captcha request build failed", slog.String("error", err.Error()))
		return Verdict{Verified: false}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("captcha verification unreachable", slog.String("error", err.Error()))
		return Verdict{Verified: false}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		v.logger.Warn("captcha verification rejected", slog.Int("status", resp.StatusCode))
		return Verdict{Verified: false}
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		v.logger.Warn("captcha verification malformed", slog.String("error", err.Error()))
		return Verdict{Verified: false}
	}

	verdict := Verdict{Verified: body.Success, Score: body.Score}
	if body.Score != nil && *body.Score < v.threshold {
		verdict.Verified = false
		v.logger.Info("captcha score below threshold",
			slog.Float64("score", *body.Score),
			slog.Float64("threshold", v.threshold))
	}
	return verdict
}

// Configured reports whether a verification secret is present.
func (v *Verifier) Configured() bool {
	return v.secret != ""
}
