// Package realtime publishes change events so connected clients can
// refresh without polling.
//
// Events are best-effort: a publish failure is logged and dropped. The
// database stays the source of truth, and clients fall back to polling
// when no broker is configured.
package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Change describes a row that was inserted or updated.
type Change struct {
	Table  string    `json:"table"`
	Op     string    `json:"op"` // insert | update
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Fields any       `json:"fields,omitempty"`
}

// Publisher sends change events.
type Publisher interface {
	// PairingChanged announces a change scoped to a pairing's participants.
	PairingChanged(pairingID string, c Change)
	// UserChanged announces a change scoped to one user.
	UserChanged(userID string, c Change)
	Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) PairingChanged(string, Change) {}
func (Nop) UserChanged(string, Change)    {}
func (Nop) Close()                        {}

// NATS publishes JSON change events on subjects of the form
// <prefix>.pairings.<id>.<table> and <prefix>.users.<id>.<table>.
type NATS struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

// Connect dials url and returns a publisher.
func Connect(url, prefix string, logger *zap.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("pathway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "pathway"
	}
	return &NATS{conn: conn, prefix: prefix, log: logger}, nil
}

func (n *NATS) PairingChanged(pairingID string, c Change) {
	n.publish(Subject(n.prefix, "pairings", pairingID, c.Table), c)
}

func (n *NATS) UserChanged(userID string, c Change) {
	n.publish(Subject(n.prefix, "users", userID, c.Table), c)
}

func (n *NATS) publish(subject string, c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	data, err := json.Marshal(c)
	if err != nil {
		n.log.Warn("realtime: encoding change failed", zap.Error(err))
		return
	}
	if err := n.conn.Publish(subject, data); err != nil {
		n.log.Warn("realtime: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// Close flushes pending events and closes the connection.
func (n *NATS) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

// Subject builds a NATS subject, replacing characters that NATS treats
// as separators or wildcards inside a token.
func Subject(prefix, scope, id, table string) string {
	clean := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return prefix + "." + scope + "." + clean.Replace(id) + "." + clean.Replace(table)
}
