package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/dotmjsc/pwl-editor/internal/waveformservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *waveformservice.Service, ops *Ops, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, ops)
	sh := NewSamplesHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Waveform file CRUD.
	r.Get("/waveforms", h.ListWaveforms)
	r.Post("/waveforms", h.CreateWaveform)
	r.Get("/waveforms/*", h.GetWaveform)
	r.Put("/waveforms/*", h.UpdateWaveform)
	r.Delete("/waveforms/*", h.DeleteWaveform)

	// Search.
	r.Get("/search", h.Search)

	// Stateless document operations.
	r.Post("/ops/analyze", h.Analyze)
	r.Post("/ops/repair", h.Repair)
	r.Post("/ops/generate/{shape}", h.Generate)
	r.Post("/ops/insert", h.Insert)
	r.Post("/ops/convert", h.Convert)
	r.Post("/ops/select", h.Select)

	// Discretized CSV export.
	r.Get("/samples", sh.Export)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
