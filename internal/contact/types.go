// Package contact implements the inbound contact-form pipeline:
// intake, sanitization, spam heuristics, validation, optional CAPTCHA
// verification, and mail dispatch.
package contact

import "sort"

// SubmissionInput is the raw, untrusted payload from the client. Every
// field is optional at the boundary; nothing is trusted until it passes
// the sanitizer and validator.
type SubmissionInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Consent bool   `json:"consent"`

	// Honeypot is a form field hidden from real users ("website").
	// It must arrive empty.
	Honeypot string `json:"website"`

	// ClientTimestamp is the page-load time in epoch milliseconds,
	// if the form supplied one.
	ClientTimestamp int64 `json:"ts"`

	// CaptchaToken is the client-side CAPTCHA response, if any.
	CaptchaToken string `json:"captcha"`
}

// SanitizedFields holds bounded, line-injection-safe versions of the
// textual inputs. Single-line fields contain no CR or LF.
type SanitizedFields struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
	Consent bool
}

// FieldLimits bounds the length of each sanitized field.
type FieldLimits struct {
	Name    int
	Email   int
	Phone   int
	Subject int
	Message int
}

// DefaultLimits returns the field bounds used by the clinic site form.
func DefaultLimits() FieldLimits {
	return FieldLimits{
		Name:    100,
		Email:   254,
		Phone:   40,
		Subject: 150,
		Message: 4000,
	}
}

// ErrorKind classifies a single field validation failure.
type ErrorKind string

const (
	// ErrRequired marks a missing required field.
	ErrRequired ErrorKind = "required"
	// ErrFormat marks a malformed field value.
	ErrFormat ErrorKind = "format"
	// ErrConsent marks a missing or declined consent checkbox.
	ErrConsent ErrorKind = "consent"
)

// ValidationResult reports all failing fields of one submission attempt.
type ValidationResult struct {
	Valid       bool
	FieldErrors map[string]ErrorKind
}

// Fields returns the names of the failing fields in sorted order.
func (r ValidationResult) Fields() []string {
	if len(r.FieldErrors) == 0 {
		return nil
	}
	fields := make([]string, 0, len(r.FieldErrors))
	for name := range r.FieldErrors {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Outcome is the terminal state of one submission attempt.
type Outcome int

const (
	// OutcomeAccepted means the message was dispatched (or silently
	// discarded under the honeypot policy).
	OutcomeAccepted Outcome = iota
	// OutcomeRejectedAsSpam means a spam heuristic tripped.
	OutcomeRejectedAsSpam
	// OutcomeRejectedAsInvalid means one or more fields failed validation.
	OutcomeRejectedAsInvalid
	// OutcomeRejectedByCaptcha means CAPTCHA verification failed.
	OutcomeRejectedByCaptcha
	// OutcomeRateLimited means the client key exhausted its window.
	OutcomeRateLimited
	// OutcomeDeliveryFailed means the mail transport reported an error.
	OutcomeDeliveryFailed
)

// String returns the outcome name used in logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejectedAsSpam:
		return "rejected_spam"
	case OutcomeRejectedAsInvalid:
		return "rejected_invalid"
	case OutcomeRejectedByCaptcha:
		return "rejected_captcha"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Result is the orchestrator's response contract.
type Result struct {
	Outcome     Outcome
	FieldErrors map[string]ErrorKind
}

// ClientMeta carries request metadata included in the mail footer.
type ClientMeta struct {
	IP        string
	UserAgent string
}
