package push

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/public-key", h.ServePublicKey)
	r.Post("/subscriptions", h.HandleSubscribe)
	r.Delete("/subscriptions", h.HandleUnsubscribe)
	return r
}
