package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leandrodaf/blemidi/internal/logger"
	"github.com/leandrodaf/blemidi/internal/midiconv"
	"github.com/leandrodaf/blemidi/sdk/blemidi"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// loopback delivers written packets to an endpoint of another manager, standing in
// for the BLE link between a central and a peripheral.
type loopback struct {
	peer contracts.Manager
	id   contracts.EndpointID
}

func (l loopback) Write(_ context.Context, payload []byte) error {
	return l.peer.Notify(l.id, payload)
}

func main() {
	log := logger.NewDevelopmentLogger()

	receiver, err := blemidi.NewManager(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithMessageFilter(contracts.MessageFilter{
			Kinds: []contracts.Kind{contracts.KindNoteOn, contracts.KindNoteOff, contracts.KindRPN, contracts.KindSystemExclusive},
		}),
	)
	if err != nil {
		log.Error("Failed to initialize receiver", log.Field().Error("error", err))
		return
	}
	defer receiver.Close()

	sender, err := blemidi.NewManager(contracts.WithLogger(log), contracts.WithMaxPacketSize(10))
	if err != nil {
		log.Error("Failed to initialize sender", log.Field().Error("error", err))
		return
	}
	defer sender.Close()

	if _, err := receiver.Attach(contracts.EndpointInfo{ID: "controller", Name: "Controller"}, nil); err != nil {
		log.Error("Failed to attach controller", log.Field().Error("error", err))
		return
	}
	synth, err := sender.Attach(contracts.EndpointInfo{ID: "synth", Name: "Synth"}, loopback{peer: receiver, id: "controller"})
	if err != nil {
		log.Error("Failed to attach synth", log.Field().Error("error", err))
		return
	}

	eventChannel := make(chan contracts.Event, 100)
	receiver.StartCapture(eventChannel)
	go func() {
		for event := range eventChannel {
			fmt.Printf("%-10s ts=%4d delay=%-6s %s\n", event.Endpoint, event.Timestamp, event.Delay, midiconv.Describe(event.Message))
		}
	}()

	ctx := context.Background()
	steps := []func() error{
		func() error { return synth.SendNoteOn(ctx, 0, 60, 100) },
		func() error { return synth.SendRPN(ctx, 0, 0, 2<<7) }, // pitch bend range: 2 semitones
		func() error {
			return synth.SendSystemExclusive(ctx, []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0x00, 0x01, 0x02, 0x03, 0xF7})
		},
		func() error { return synth.SendNoteOff(ctx, 0, 60, 0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			log.Error("Send failed", log.Field().Error("error", err))
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
}
