package pairings

import "github.com/go-chi/chi/v5"

// Routes returns the pairings subrouter. Every route requires a signed-in
// user; participant checks happen per handler.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/current", h.ServeCurrent)
	r.Post("/", h.HandleCreate)
	r.Post("/join", h.HandleJoin)

	r.Route("/{pairingID}", func(r chi.Router) {
		r.Post("/invite-code", h.HandleRegenerateCode)
		r.Post("/covenant", h.HandleSignCovenant)
		r.Get("/progress", h.ServeProgress)
		r.Put("/assignments/{assignmentID}/progress", h.HandleSaveProgress)
		r.Post("/encouragement", h.HandleEncourage)
	})
	return r
}
