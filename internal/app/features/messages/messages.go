// internal/app/features/messages/messages.go
package messages

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/pathway/internal/app/policy/pairingpolicy"
	pairingstore "github.com/dalemusser/pathway/internal/app/store/pairings"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/httpjson"
	"github.com/dalemusser/pathway/internal/app/system/inputval"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// defaultLimit caps a conversation page when no limit is given.
const defaultLimit = 200

type sendRequest struct {
	Content string `json:"content" validate:"notblank,max=4000"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *Handler) pairing(ctx context.Context, r *http.Request) (models.Pairing, string, error) {
	p, _, err := pairingpolicy.ForParticipant(ctx, pairingstore.New(h.DB), r, chi.URLParam(r, "pairingID"))
	if err != nil {
		return models.Pairing{}, "", err
	}
	u, _ := auth.CurrentUser(r)
	return p, u.ID, nil
}

// ServeList returns the newest messages oldest first. ?limit=0 returns
// the whole conversation.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, uid, err := h.pairing(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	msgs, err := h.Messaging.List(ctx, p.ID, uid, limit)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	httpjson.OK(w, msgs)
}

// HandleSend appends a message from the caller.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Check(req); err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, uid, err := h.pairing(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	m, err := h.Messaging.Send(ctx, p.ID, uid, req.Content)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, m)
}

// HandleMarkRead marks everything the caller received as read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, uid, err := h.pairing(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	n, err := h.Messaging.MarkRead(ctx, p.ID, uid)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.OK(w, countResponse{Count: n})
}

func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, uid, err := h.pairing(ctx, r)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	n, err := h.Messaging.UnreadCount(ctx, p.ID, uid)
	if err != nil {
		httpjson.Error(w, r, h.Log, err)
		return
	}
	httpjson.OK(w, countResponse{Count: n})
}
