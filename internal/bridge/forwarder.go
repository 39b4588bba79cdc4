// Package bridge forwards MIDI from local input devices to BLE-MIDI sessions.
// Platform bindings live in the bridgedarwin and bridgewindows subpackages.
package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/blemidi/internal/midiconv"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// DefaultBuffer is the number of raw input packets held while the target is busy.
const DefaultBuffer = 256

type senderBox struct {
	sender contracts.Sender
}

// Forwarder decouples driver input callbacks from BLE writes: Handle never blocks,
// and a single goroutine parses and sends in arrival order.
type Forwarder struct {
	logger contracts.Logger
	filter *contracts.MessageFilter

	input  chan []byte
	target atomic.Value // senderBox
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewForwarder(logger contracts.Logger, filter *contracts.MessageFilter, buffer int) *Forwarder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	f := &Forwarder{
		logger: logger,
		filter: filter,
		input:  make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// SetTarget sets where parsed messages are sent. A nil target drops input.
func (f *Forwarder) SetTarget(target contracts.Sender) {
	f.target.Store(senderBox{sender: target})
}

// Handle queues raw MIDI bytes from a driver callback. raw is copied.
func (f *Forwarder) Handle(raw []byte) {
	select {
	case <-f.done:
		return
	default:
	}

	packet := append([]byte(nil), raw...)
	select {
	case f.input <- packet:
	default:
		f.logger.Warn("Forward buffer full; dropping MIDI input", f.logger.Field().Hex("data", packet))
	}
}

func (f *Forwarder) run() {
	defer f.wg.Done()
	for {
		select {
		case raw := <-f.input:
			f.forward(raw)
		case <-f.done:
			return
		}
	}
}

func (f *Forwarder) forward(raw []byte) {
	box, _ := f.target.Load().(senderBox)
	if box.sender == nil {
		f.logger.Debug("no forwarding target; MIDI input dropped", f.logger.Field().Hex("data", raw))
		return
	}

	for _, msg := range midiconv.Parse(raw) {
		if !f.filter.Allows(msg.Kind()) {
			continue
		}
		if err := box.sender.Send(context.Background(), msg); err != nil {
			f.logger.Warn("Failed to forward MIDI message",
				f.logger.Field().String("kind", msg.Kind().String()),
				f.logger.Field().Error("error", err))
		}
	}
}

// Stop discards queued input and waits for an in-flight send to finish.
func (f *Forwarder) Stop() {
	f.once.Do(func() {
		close(f.done)
		f.wg.Wait()
	})
}
