package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/starford/hashdb/internal/recordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// addLimit throttles record submissions; nil means unlimited.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *recordservice.Service, addLimit *rate.Limiter, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Pages, newest first.
	r.Get("/pages", h.GetPage)
	r.Get("/pages/{page}", h.GetPage)
	r.Get("/tags/{tag}/pages/{page}", h.GetPage)

	// Records.
	r.With(RateLimit(addLimit)).Post("/hashes", h.AddHash)
	r.Get("/hashes/{hash}", h.LookupHash)

	r.Get("/tags", h.ListTags)
	r.Get("/status", h.Status)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
