package weeks

import "github.com/go-chi/chi/v5"

// Routes is mounted under /pairings/{pairingID}/weeks.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{week}", h.ServeWeek)
	r.Get("/{week}/reflections", h.ServeReflections)
	r.Post("/{week}/reflections", h.HandleCreateReflection)
	return r
}
