package bridge

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/blemidi/internal/logger"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []contracts.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg contracts.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) messages() []contracts.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contracts.Message(nil), s.sent...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestForwarderSendsParsedMessages(t *testing.T) {
	f := NewForwarder(logger.NewNopLogger(), nil, 0)
	defer f.Stop()

	target := &recordingSender{}
	f.SetTarget(target)
	f.Handle([]byte{0x90, 60, 100, 62, 100})
	f.Handle([]byte{0xF8})

	want := []contracts.Message{
		contracts.NoteOn{Channel: 0, Note: 60, Velocity: 100},
		contracts.NoteOn{Channel: 0, Note: 62, Velocity: 100},
		contracts.TimingClock{},
	}
	waitFor(t, func() bool { return len(target.messages()) == len(want) })
	if got := target.messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("sent %#v, want %#v", got, want)
	}
}

func TestForwarderFilter(t *testing.T) {
	f := NewForwarder(logger.NewNopLogger(), &contracts.MessageFilter{Kinds: []contracts.Kind{contracts.KindStart}}, 4)
	defer f.Stop()

	target := &recordingSender{}
	f.SetTarget(target)
	f.Handle([]byte{0xF8, 0xFA, 0xF8})

	waitFor(t, func() bool { return len(target.messages()) > 0 })
	time.Sleep(10 * time.Millisecond)
	if got := target.messages(); !reflect.DeepEqual(got, []contracts.Message{contracts.Start{}}) {
		t.Errorf("sent %#v, want only Start", got)
	}
}

func TestForwarderKeepsGoingAfterSendError(t *testing.T) {
	f := NewForwarder(logger.NewNopLogger(), nil, 0)
	defer f.Stop()

	target := &recordingSender{err: errors.New("not connected")}
	f.SetTarget(target)
	f.Handle([]byte{0xFA, 0xFC})

	waitFor(t, func() bool { return len(target.messages()) == 2 })
}

func TestForwarderWithoutTargetDropsInput(t *testing.T) {
	f := NewForwarder(logger.NewNopLogger(), nil, 0)
	f.Handle([]byte{0xFA})
	f.Stop()

	// after Stop, Handle must neither block nor panic
	f.Handle([]byte{0xFC})
}
