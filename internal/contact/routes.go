package contact

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the contact form routes with the chi router.
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Post("/contact", handler.Submit)
}
