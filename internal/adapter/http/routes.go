package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Documents
		r.Post("/documents", h.CreateDocument)
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents/retry-pending", h.RetryPending)
		r.Get("/documents/{id}", h.GetDocument)
		r.Get("/documents/{id}/assessments", h.ListDocumentAssessments)

		// Reviews
		r.Post("/reviews/{workflowID}", h.SubmitReview)
		r.Get("/reviews/{workflowID}", h.GetReviewStatus)
		r.Get("/reviews/{workflowID}/decisions", h.ListReviewDecisions)

		// Inbox
		r.Get("/inbox", h.ListInbox)
		r.Post("/inbox/{id}/read", h.MarkInboxRead)

		// Engine operations
		r.Get("/engine/status", h.GetEngineStatus)
		r.Post("/engine/reset", h.ResetEngine)
	})
}
