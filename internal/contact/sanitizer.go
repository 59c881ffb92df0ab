package contact

import "strings"

// Sanitize normalizes the raw textual inputs into bounded,
// line-injection-safe fields. Content is otherwise preserved verbatim:
// staff read these values as plain text, and HTML escaping happens at
// mail render time, not here. It is a pure function of the input and
// limits: every input, however malformed, maps to some bounded string,
// and sanitizing twice yields the same result as sanitizing once.
func Sanitize(raw SubmissionInput, limits FieldLimits) SanitizedFields {
	return SanitizedFields{
		Name:    sanitizeLine(raw.Name, limits.Name),
		Email:   strings.ToLower(sanitizeLine(raw.Email, limits.Email)),
		Phone:   sanitizeLine(raw.Phone, limits.Phone),
		Subject: sanitizeLine(raw.Subject, limits.Subject),
		Message: sanitizeMessage(raw.Message, limits.Message),
		Consent: raw.Consent,
	}
}

// sanitizeLine collapses a value to a single trimmed line and truncates
// it. Stripping CR/LF here is the header-injection defense: these
// fields end up in mail headers (subject, reply-to) and must never be
// able to introduce additional headers.
func sanitizeLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(truncate(s, max))
}

// sanitizeMessage normalizes line endings to LF and truncates, but
// otherwise preserves the body including embedded newlines.
func sanitizeMessage(s string, max int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSpace(s)
	return strings.TrimSpace(truncate(s, max))
}

// truncate bounds s to max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !isRuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
