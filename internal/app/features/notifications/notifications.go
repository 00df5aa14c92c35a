// internal/app/features/notifications/notifications.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	notificationstore "github.com/dalemusser/pathway/internal/app/store/notifications"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// feedLimit is the number of notifications returned, newest first.
const feedLimit = 50

type countResponse struct {
	Count int64 `json:"count"`
}

// ServeList returns the caller's newest notifications.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := notificationstore.New(h.DB).ListForUser(ctx, u.ID, feedLimit)
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not load notifications", err))
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	httpjson.OK(w, list)
}

func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := notificationstore.New(h.DB).UnreadCount(ctx, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not count notifications", err))
		return
	}
	httpjson.OK(w, countResponse{Count: n})
}

func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := notificationstore.New(h.DB).MarkAllRead(ctx, u.ID)
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not mark notifications read", err))
		return
	}
	httpjson.OK(w, countResponse{Count: n})
}

// HandleMarkRead marks one notification read. Another user's
// notification looks the same as a missing one.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *notificationstore.Store, id primitive.ObjectID, uid string) error {
		return s.MarkRead(ctx, id, uid)
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *notificationstore.Store, id primitive.ObjectID, uid string) error {
		return s.Delete(ctx, id, uid)
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *notificationstore.Store, primitive.ObjectID, string) error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.NotFound("notification not found"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = fn(ctx, notificationstore.New(h.DB), id, u.ID)
	if errors.Is(err, notificationstore.ErrNotFound) {
		httpjson.Error(w, r, h.Log, apperr.NotFound("notification not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not update notification", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
