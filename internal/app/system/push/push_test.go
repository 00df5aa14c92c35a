package push_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/pathway/internal/app/system/push"
	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type fakeSubs struct {
	mu      sync.Mutex
	subs    map[string][]models.PushSubscription
	deleted []string
}

func (f *fakeSubs) ListForUser(_ context.Context, userID string) ([]models.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[userID], nil
}

func (f *fakeSubs) DeleteEndpoint(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, endpoint)
	return nil
}

type fakeSender struct {
	gone   map[string]bool
	fail   map[string]bool
	bodies map[string][]byte
}

func (f *fakeSender) Send(_ context.Context, sub models.PushSubscription, body []byte) (bool, error) {
	if f.bodies == nil {
		f.bodies = map[string][]byte{}
	}
	f.bodies[sub.Endpoint] = body
	if f.fail[sub.Endpoint] {
		return false, errors.New("network down")
	}
	return f.gone[sub.Endpoint], nil
}

func TestDeliverer_RemovesGoneSubscriptions(t *testing.T) {
	subs := &fakeSubs{subs: map[string][]models.PushSubscription{
		"user-1": {
			{Endpoint: "https://push/ok"},
			{Endpoint: "https://push/gone"},
			{Endpoint: "https://push/fail"},
		},
	}}
	sender := &fakeSender{
		gone: map[string]bool{"https://push/gone": true},
		fail: map[string]bool{"https://push/fail": true},
	}

	d := push.NewDeliverer(subs, sender, zap.NewNop())
	d.Deliver(context.Background(), push.Message{
		UserID: "user-1",
		Title:  "Week 2 Unlocked!",
		Body:   "Congratulations!",
		URL:    "/dashboard",
		Tag:    "notif-1",
	})

	if diff := cmp.Diff([]string{"https://push/gone"}, subs.deleted); diff != "" {
		t.Errorf("deleted endpoints mismatch (-want +got):\n%s", diff)
	}

	var got map[string]string
	if err := json.Unmarshal(sender.bodies["https://push/ok"], &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	want := map[string]string{"title": "Week 2 Unlocked!", "body": "Congratulations!", "url": "/dashboard", "tag": "notif-1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDeliverer_NilSenderIsNoop(t *testing.T) {
	subs := &fakeSubs{subs: map[string][]models.PushSubscription{"user-1": {{Endpoint: "x"}}}}
	d := push.NewDeliverer(subs, nil, zap.NewNop())
	d.Deliver(context.Background(), push.Message{UserID: "user-1"})
	if len(subs.deleted) != 0 {
		t.Error("nil sender must not touch subscriptions")
	}
}

func TestVAPIDConfig_Enabled(t *testing.T) {
	if (push.VAPIDConfig{PublicKey: "pub"}).Enabled() {
		t.Error("config with one key should not be enabled")
	}
	if !(push.VAPIDConfig{PublicKey: "pub", PrivateKey: "priv"}).Enabled() {
		t.Error("config with both keys should be enabled")
	}
}
