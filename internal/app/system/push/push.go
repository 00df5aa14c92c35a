// Package push delivers Web Push notifications to a user's registered
// browsers.
//
// Delivery is best-effort. Failures are logged and counted, never
// returned to the code that raised the notification. Subscriptions the
// push service reports as gone (404/410) are removed.
package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/domain/models"
	"go.uber.org/zap"
)

// Message is one push addressed to every device of a user.
type Message struct {
	UserID string
	Title  string
	Body   string
	URL    string
	Tag    string
}

// payload is the JSON the service worker receives.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

// Sender sends one encoded payload to one subscription. gone reports that
// the push service no longer knows the subscription.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, body []byte) (gone bool, err error)
}

// Subscriptions is the subset of the push subscription store used here.
type Subscriptions interface {
	ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	DeleteEndpoint(ctx context.Context, endpoint string) error
}

// VAPIDConfig holds the application server keys.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string // mailto: or https: contact for the push service
	TTL        int
}

// Enabled reports whether both keys are configured.
func (c VAPIDConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// WebPushSender sends payloads with VAPID authentication.
type WebPushSender struct {
	cfg    VAPIDConfig
	client *http.Client
}

// NewWebPushSender builds a sender using cfg.
func NewWebPushSender(cfg VAPIDConfig) *WebPushSender {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * 60 * 60
	}
	return &WebPushSender{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, body []byte) (bool, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             s.cfg.TTL,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return true, nil
	case resp.StatusCode >= 400:
		return false, &StatusError{Code: resp.StatusCode}
	}
	return false, nil
}

// StatusError is returned for a non-success push service response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "push service responded " + http.StatusText(e.Code)
}

// Deliverer fans a Message out to every subscription of its user.
type Deliverer struct {
	subs   Subscriptions
	sender Sender
	log    *zap.Logger
}

// NewDeliverer returns a Deliverer. A nil sender disables delivery.
func NewDeliverer(subs Subscriptions, sender Sender, logger *zap.Logger) *Deliverer {
	return &Deliverer{subs: subs, sender: sender, log: logger}
}

// Deliver sends m to each of the user's devices.
func (d *Deliverer) Deliver(ctx context.Context, m Message) {
	if d.sender == nil {
		return
	}
	subs, err := d.subs.ListForUser(ctx, m.UserID)
	if err != nil {
		d.log.Warn("push: loading subscriptions failed", zap.String("user_id", m.UserID), zap.Error(err))
		metrics.PushDeliveries.WithLabelValues("error").Inc()
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload{Title: m.Title, Body: m.Body, URL: m.URL, Tag: m.Tag})
	if err != nil {
		d.log.Error("push: encoding payload failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		gone, err := d.sender.Send(ctx, sub, body)
		switch {
		case gone:
			metrics.PushDeliveries.WithLabelValues("gone").Inc()
			if err := d.subs.DeleteEndpoint(ctx, sub.Endpoint); err != nil {
				d.log.Warn("push: removing stale subscription failed", zap.Error(err))
			}
		case err != nil:
			metrics.PushDeliveries.WithLabelValues("error").Inc()
			d.log.Warn("push: send failed",
				zap.String("user_id", m.UserID),
				zap.String("tag", m.Tag),
				zap.Error(err))
		default:
			metrics.PushDeliveries.WithLabelValues("sent").Inc()
		}
	}
}
