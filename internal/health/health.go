// Package health provides health check endpoints for the contact service.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Response is the health check payload. The service has no hard
// external dependencies; mail and CAPTCHA are reported as informational
// capabilities since both degrade gracefully when unconfigured.
type Response struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Features  map[string]string `json:"features"`
	Version   string            `json:"version,omitempty"`
}

// ReadinessResponse is the readiness probe payload.
type ReadinessResponse struct {
	Ready     bool   `json:"ready"`
	Timestamp string `json:"timestamp"`
}

// Handler handles health check requests
type Handler struct {
	mailConfigured    bool
	captchaConfigured bool
	version           string
	ready             bool
	mu                sync.RWMutex
}

// Config holds health handler configuration
type Config struct {
	MailConfigured    bool
	CaptchaConfigured bool
	Version           string
}

// NewHandler creates a new health check handler
func NewHandler(cfg Config) *Handler {
	return &Handler{
		mailConfigured:    cfg.MailConfigured,
		captchaConfigured: cfg.CaptchaConfigured,
		version:           cfg.Version,
		ready:             true,
	}
}

// SetReady sets the readiness state, used during graceful shutdown.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns the current readiness state.
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Health handles the main health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	features := map[string]string{
		"mail":    featureState(h.mailConfigured, "dry-run"),
		"captcha": featureState(h.captchaConfigured, "disabled"),
	}

	response := Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Features:  features,
		Version:   h.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Readiness handles the readiness probe endpoint.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ready := h.IsReady()

	response := ReadinessResponse{
		Ready:     ready,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func featureState(configured bool, fallback string) string {
	if configured {
		return "configured"
	}
	return fallback
}
