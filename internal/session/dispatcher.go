package session

import (
	"sync"
	"time"

	"github.com/golang-collections/go-datastructures/queue"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// scheduled is an event waiting for its delivery time.
type scheduled struct {
	event contracts.Event
	due   time.Time
}

// dispatcher delivers the events of one session in decode order, each no earlier
// than its due time. Waiting for a delayed event never blocks Feed.
type dispatcher struct {
	clock  contracts.Clock
	target func() chan contracts.Event
	filter *contracts.MessageFilter
	logger contracts.Logger

	limit   int64
	pending *queue.Queue
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func newDispatcher(clock contracts.Clock, target func() chan contracts.Event, filter *contracts.MessageFilter, limit int, logger contracts.Logger) *dispatcher {
	if limit <= 0 {
		limit = contracts.DefaultMaxPendingEvents
	}
	d := &dispatcher{
		clock:   clock,
		target:  target,
		filter:  filter,
		logger:  logger,
		limit:   int64(limit),
		pending: queue.New(16),
		done:    make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) enqueue(ev contracts.Event) {
	if !d.filter.Allows(ev.Message.Kind()) {
		return
	}
	if d.pending.Len() >= d.limit {
		d.logger.Warn("Event buffer full; dropping MIDI event",
			d.logger.Field().String("endpoint", string(ev.Endpoint)),
			d.logger.Field().String("kind", ev.Message.Kind().String()))
		return
	}
	if err := d.pending.Put(scheduled{event: ev, due: d.clock.Now().Add(ev.Delay)}); err != nil {
		d.logger.Debug("event dropped after detach", d.logger.Field().String("kind", ev.Message.Kind().String()))
	}
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		items, err := d.pending.Get(1)
		if err != nil {
			return
		}
		for _, item := range items {
			if !d.deliver(item.(scheduled)) {
				return
			}
		}
	}
}

func (d *dispatcher) deliver(s scheduled) bool {
	alarm, cancel := d.clock.Alarm(s.due)
	select {
	case <-alarm:
	case <-d.done:
		cancel()
		return false
	}

	ch := d.target()
	if ch == nil {
		d.logger.Debug("no event channel; dropping event", d.logger.Field().String("kind", s.event.Message.Kind().String()))
		return true
	}
	select {
	case ch <- s.event:
		return true
	case <-d.done:
		return false
	}
}

// stop drops pending events and waits for the delivery goroutine to exit.
func (d *dispatcher) stop() {
	d.once.Do(func() {
		close(d.done)
		d.pending.Dispose()
		d.wg.Wait()
	})
}
