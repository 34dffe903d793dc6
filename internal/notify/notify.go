package notify

import (
	"context"
	"sync"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
)

// Notifier accepts events without waiting for delivery
type Notifier interface {
	Notify(ctx context.Context, ev *domain.Event)
}

// Sink delivers one event to an external system
type Sink interface {
	Name() string
	Send(ctx context.Context, ev *domain.Event) error
}

// Discard drops every event
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(context.Context, *domain.Event) {}

const sendTimeout = 10 * time.Second

// Dispatcher queues events and fans them out to every sink on a background
// worker. A full queue drops the event with a warning; sink failures are
// logged and never reach the engine caller.
type Dispatcher struct {
	sinks  []Sink
	events chan *domain.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sinks:  sinks,
		events: make(chan *domain.Event, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Notify(_ context.Context, ev *domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Warn("Notification dropped after shutdown", "event_type", ev.Type, "equipment_id", ev.EquipmentID)
		return
	}

	select {
	case d.events <- ev:
	default:
		logger.Warn("Notification queue full, event dropped", "event_type", ev.Type, "equipment_id", ev.EquipmentID)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		for _, sink := range d.sinks {
			d.deliver(sink, ev)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, ev *domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Notification sink panicked", "sink", sink.Name(), "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	logger.ExternalServiceCall(sink.Name(), string(ev.Type), "event_id", ev.ID)
	err := sink.Send(ctx, ev)
	logger.ExternalServiceResult(sink.Name(), string(ev.Type), err, "event_id", ev.ID)
}

// Close stops accepting events and waits until the queue is drained
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	<-d.done
}
