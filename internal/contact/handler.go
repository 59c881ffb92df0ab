package contact

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes bounds the request body before any parsing happens.
const maxBodyBytes = 64 << 10

// Handler adapts HTTP requests to the submission pipeline.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// boolish accepts the loose truthy encodings browsers and JSON clients
// send for a checkbox: true, "on", "true", "1", "yes", 1.
type boolish bool

func (b *boolish) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = boolish(t)
	case string:
		*b = boolish(truthy(t))
	case float64:
		*b = boolish(t != 0)
	default:
		*b = false
	}
	return nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// jsonPayload is the JSON wire shape. Every field is optional at the
// boundary; the pipeline decides what is missing.
type jsonPayload struct {
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Tel     string      `json:"tel"`
	Phone   string      `json:"phone"`
	Subject string      `json:"subject"`
	Message string      `json:"message"`
	Agree   boolish     `json:"agree"`
	Consent boolish     `json:"consent"`
	Website string      `json:"website"`
	TS      json.Number `json:"ts"`
	Captcha string      `json:"captcha"`
}

// Submit handles POST /api/v1/contact for form-encoded and JSON bodies.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	raw, ok := h.decode(w, r)
	if !ok {
		return
	}

	meta := ClientMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}

	result := h.service.Submit(r.Context(), raw, meta)
	h.writeOutcome(w, result)
}

// decode parses the request body according to its content type.
// Anything other than form-encoded or JSON is an unsupported payload,
// rejected before any processing.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (SubmissionInput, bool) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, http.StatusUnsupportedMediaType, "unsupported payload")
		return SubmissionInput{}, false
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payload")
			return SubmissionInput{}, false
		}
		ts, _ := strconv.ParseInt(r.PostForm.Get("ts"), 10, 64)
		return SubmissionInput{
			Name:            r.PostForm.Get("name"),
			Email:           r.PostForm.Get("email"),
			Phone:           firstNonEmpty(r.PostForm.Get("tel"), r.PostForm.Get("phone")),
			Subject:         r.PostForm.Get("subject"),
			Message:         r.PostForm.Get("message"),
			Consent:         truthy(firstNonEmpty(r.PostForm.Get("agree"), r.PostForm.Get("consent"))),
			Honeypot:        r.PostForm.Get("website"),
			ClientTimestamp: ts,
			CaptchaToken:    r.PostForm.Get("captcha"),
		}, true

	case "application/json":
		var p jsonPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payload")
			return SubmissionInput{}, false
		}
		ts, _ := p.TS.Int64()
		return SubmissionInput{
			Name:            p.Name,
			Email:           p.Email,
			Phone:           firstNonEmpty(p.Tel, p.Phone),
			Subject:         p.Subject,
			Message:         p.Message,
			Consent:         bool(p.Agree) || bool(p.Consent),
			Honeypot:        p.Website,
			ClientTimestamp: ts,
			CaptchaToken:    p.Captcha,
		}, true

	default:
		h.writeError(w, http.StatusUnsupportedMediaType, "unsupported payload")
		return SubmissionInput{}, false
	}
}

// writeOutcome maps the pipeline outcome to the wire contract.
func (h *Handler) writeOutcome(w http.ResponseWriter, result Result) {
	switch result.Outcome {
	case OutcomeAccepted:
		h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case OutcomeRateLimited:
		h.writeError(w, http.StatusTooManyRequests, "too many requests")
	case OutcomeRejectedAsSpam:
		h.writeError(w, http.StatusBadRequest, "rejected")
	case OutcomeRejectedAsInvalid:
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid fields",
			"fields": ValidationResult{FieldErrors: result.FieldErrors}.Fields(),
		})
	case OutcomeRejectedByCaptcha:
		h.writeError(w, http.StatusBadRequest, "captcha failed")
	default:
		h.writeError(w, http.StatusInternalServerError, "send failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// clientIP returns the first hop of X-Forwarded-For, then X-Real-IP,
// then the connection's remote address. Only the first forwarded hop is
// trusted; subsequent entries are attacker-controllable.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
