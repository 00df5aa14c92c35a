// Package metrics holds the Prometheus collectors for pairing activity
// and notification delivery, and the /metrics handler that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "pathway"

var (
	// PairingEvents counts pairing lifecycle transitions by event
	// (created, joined, code_regenerated, covenant_signed, covenant_complete).
	PairingEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pairing_events_total",
		Help:      "Pairing lifecycle transitions.",
	}, []string{"event"})

	// JoinFailures counts rejected join attempts by reason.
	JoinFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "join_failures_total",
		Help:      "Rejected invite code redemptions.",
	}, []string{"reason"})

	// AssignmentsCompleted counts completions recorded by role.
	AssignmentsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_completed_total",
		Help:      "Assignment completions recorded.",
	}, []string{"role"})

	// WeeksUnlocked counts week advancements by the week that was unlocked.
	WeeksUnlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weeks_unlocked_total",
		Help:      "Curriculum weeks unlocked.",
	}, []string{"week"})

	// JourneysCompleted counts pairings that finished the final week.
	JourneysCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journeys_completed_total",
		Help:      "Pairings that completed every assignment of the final week.",
	})

	// MessagesSent counts messages appended to pairing conversations.
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Messages sent between pairing participants.",
	})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_created_total",
		Help:      "In-app notifications persisted.",
	}, []string{"type"})

	// NotificationFailures counts notifications that could not be persisted.
	NotificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Notifications that failed to persist.",
	})

	// PushDeliveries counts push attempts by outcome (sent, gone, error, dropped).
	PushDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_deliveries_total",
		Help:      "Web Push delivery attempts by outcome.",
	}, []string{"outcome"})
)

// NewRegistry returns a registry holding the runtime collectors and every
// collector declared in this package.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		PairingEvents,
		JoinFailures,
		AssignmentsCompleted,
		WeeksUnlocked,
		JourneysCompleted,
		MessagesSent,
		NotificationsCreated,
		NotificationFailures,
		PushDeliveries,
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry, logger *zap.Logger) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      zapErrorLog{logger},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// zapErrorLog adapts a zap logger to promhttp.Logger.
type zapErrorLog struct {
	log *zap.Logger
}

func (l zapErrorLog) Println(v ...interface{}) {
	l.log.Sugar().Error(v...)
}
