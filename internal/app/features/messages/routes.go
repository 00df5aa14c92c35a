package messages

import "github.com/go-chi/chi/v5"

// Routes is mounted under /pairings/{pairingID}/messages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleSend)
	r.Post("/read", h.HandleMarkRead)
	r.Get("/unread-count", h.ServeUnreadCount)
	return r
}
