// internal/app/features/push/push.go
package push

import (
	"context"
	"net/http"

	pushsubstore "github.com/dalemusser/pathway/internal/app/store/pushsubs"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/inputval"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/apperr"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.uber.org/zap"
)

// subscribeRequest mirrors the browser's PushSubscription.toJSON().
type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,httpurl,max=2048"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required,max=256"`
		Auth   string `json:"auth" validate:"required,max=256"`
	} `json:"keys"`
	ExpirationTime *int64 `json:"expirationTime,omitempty"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,max=2048"`
}

// ServePublicKey returns the VAPID public key, or 404 when push is off.
func (h *Handler) ServePublicKey(w http.ResponseWriter, r *http.Request) {
	if h.PublicKey == "" {
		httpjson.Error(w, r, h.Log, apperr.NotFound("push notifications are not enabled"))
		return
	}
	httpjson.OK(w, map[string]string{"public_key": h.PublicKey})
}

// HandleSubscribe stores the caller's push endpoint.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}
	var req subscribeRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := pushsubstore.New(h.DB).Save(ctx, models.PushSubscription{
		UserID:   u.ID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not save subscription", err))
		return
	}
	h.Log.Info("push subscription saved", zap.String("user_id", u.ID))
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnsubscribe removes the caller's push endpoint.
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, r, h.Log, apperr.Unauthorized("sign in required"))
		return
	}
	var req unsubscribeRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := pushsubstore.New(h.DB).DeleteForUser(ctx, u.ID, req.Endpoint); err != nil {
		httpjson.Error(w, r, h.Log, apperr.Persistence("could not remove subscription", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
