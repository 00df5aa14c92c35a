package profile

import "github.com/go-chi/chi/v5"

// Routes returns the profile subrouter. Mount it behind auth.RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeProfile)
	r.Put("/", h.HandleUpdate)
	r.Put("/settings", h.HandleUpdateSettings)
	r.Post("/onboarding", h.HandleOnboarding)
	return r
}
