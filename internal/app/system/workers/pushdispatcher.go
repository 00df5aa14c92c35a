// internal/app/system/workers/pushdispatcher.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/push"
	"go.uber.org/zap"
)

// PushDeliverer sends one push message.
type PushDeliverer interface {
	Deliver(ctx context.Context, m push.Message)
}

// PushDispatcher runs push deliveries on a fixed pool of goroutines so
// request handlers never wait on a push service. When the queue is full
// new messages are dropped; the in-app notification row already exists.
type PushDispatcher struct {
	deliverer PushDeliverer
	log       *zap.Logger
	workers   int
	timeout   time.Duration
	queue     chan push.Message

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPushDispatcher creates a dispatcher with the given pool and queue size.
func NewPushDispatcher(d PushDeliverer, logger *zap.Logger, workers, queueSize int) *PushDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &PushDispatcher{
		deliverer: d,
		log:       logger,
		workers:   workers,
		timeout:   15 * time.Second,
		queue:     make(chan push.Message, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *PushDispatcher) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	p.log.Info("push dispatcher started",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.queue)))
}

// Enqueue schedules m for delivery. It never blocks and reports whether
// the message was accepted.
func (p *PushDispatcher) Enqueue(m push.Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.queue <- m:
		return true
	default:
		metrics.PushDeliveries.WithLabelValues("dropped").Inc()
		p.log.Warn("push queue full, dropping message",
			zap.String("user_id", m.UserID),
			zap.String("tag", m.Tag))
		return false
	}
}

// Stop stops accepting messages, drains the queue and waits for the
// workers to finish.
func (p *PushDispatcher) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("push dispatcher stopped")
}

func (p *PushDispatcher) run() {
	defer p.wg.Done()
	for m := range p.queue {
		p.deliver(m)
	}
}

func (p *PushDispatcher) deliver(m push.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.deliverer.Deliver(ctx, m)
}
