package gatt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/currantlabs/ble"
	"github.com/leandrodaf/blemidi/internal/logger"
	"github.com/leandrodaf/blemidi/sdk/blemidi"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

type fakeAddr string

func (a fakeAddr) String() string { return string(a) }

type write struct {
	value []byte
	noRsp bool
}

// fakeClient is an in-memory BLE-MIDI peripheral.
type fakeClient struct {
	profile *ble.Profile
	mtu     int

	mu           sync.Mutex
	handler      ble.NotificationHandler
	writes       []write
	unsubscribed bool
	disconnected chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		profile: &ble.Profile{Services: []*ble.Service{
			{UUID: ble.MustParse("180A")},
			{UUID: ServiceUUID, Characteristics: []*ble.Characteristic{
				{UUID: CharacteristicUUID, Property: ble.CharNotify | ble.CharWriteNR},
			}},
		}},
		mtu:          104,
		disconnected: make(chan struct{}),
	}
}

func (f *fakeClient) Address() ble.Addr { return fakeAddr("c0:ff:ee:00:00:01") }
func (f *fakeClient) Name() string      { return "Pocket Synth" }

func (f *fakeClient) DiscoverProfile(bool) (*ble.Profile, error) { return f.profile, nil }

func (f *fakeClient) ExchangeMTU(rxMTU int) (int, error) {
	if f.mtu == 0 {
		return 0, errors.New("mtu exchange not supported")
	}
	return f.mtu, nil
}

func (f *fakeClient) Subscribe(_ *ble.Characteristic, _ bool, h ble.NotificationHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	return nil
}

func (f *fakeClient) Unsubscribe(*ble.Characteristic, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = true
	return nil
}

func (f *fakeClient) WriteCharacteristic(_ *ble.Characteristic, value []byte, noRsp bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, write{value: append([]byte(nil), value...), noRsp: noRsp})
	return nil
}

func (f *fakeClient) Disconnected() <-chan struct{} { return f.disconnected }

func (f *fakeClient) notify(payload []byte) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(payload)
}

func newManager(t *testing.T) contracts.Manager {
	t.Helper()
	m, err := blemidi.NewManager(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestFindCharacteristic(t *testing.T) {
	if _, err := FindCharacteristic(newFakeClient().profile); err != nil {
		t.Errorf("FindCharacteristic() error = %v", err)
	}

	noService := &ble.Profile{Services: []*ble.Service{{UUID: ble.MustParse("180A")}}}
	if _, err := FindCharacteristic(noService); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("error = %v, want ErrServiceNotFound", err)
	}

	noChar := &ble.Profile{Services: []*ble.Service{{UUID: ServiceUUID}}}
	if _, err := FindCharacteristic(noChar); !errors.Is(err, ErrCharacteristicNotFound) {
		t.Errorf("error = %v, want ErrCharacteristicNotFound", err)
	}
}

func TestAttachRoutesTraffic(t *testing.T) {
	m := newManager(t)
	defer m.Close()
	events := make(chan contracts.Event, 4)
	m.StartCapture(events)

	client := newFakeClient()
	s, err := Attach(m, client, 0)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	info := s.Info()
	if info.ID != "c0:ff:ee:00:00:01" || info.Name != "Pocket Synth" {
		t.Errorf("Info() = %#v", info)
	}
	if info.MaxPacketSize != 101 {
		t.Errorf("MaxPacketSize = %d, want 101", info.MaxPacketSize)
	}

	client.notify([]byte{0x80, 0x81, 0x90, 60, 100})
	select {
	case ev := <-events:
		if ev.Message != (contracts.NoteOn{Channel: 0, Note: 60, Velocity: 100}) {
			t.Errorf("event = %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}

	if err := s.SendStart(context.Background()); err != nil {
		t.Fatalf("SendStart() error = %v", err)
	}
	client.mu.Lock()
	writes := client.writes
	client.mu.Unlock()
	if len(writes) != 1 || !writes[0].noRsp || writes[0].value[2] != 0xFA {
		t.Errorf("writes = %#v, want one write-without-response of Start", writes)
	}
}

func TestAttachFallsBackToDefaultPacketSize(t *testing.T) {
	m := newManager(t)
	defer m.Close()

	client := newFakeClient()
	client.mtu = 0
	s, err := Attach(m, client, 0)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got := s.Info().MaxPacketSize; got != contracts.DefaultMaxPacketSize {
		t.Errorf("MaxPacketSize = %d, want %d", got, contracts.DefaultMaxPacketSize)
	}
}

func TestDisconnectDetaches(t *testing.T) {
	m := newManager(t)
	defer m.Close()

	client := newFakeClient()
	s, err := Attach(m, client, 0)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	close(client.disconnected)

	deadline := time.Now().Add(time.Second)
	for len(m.Endpoints()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("endpoint still attached after disconnect")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.SendStart(context.Background()); !errors.Is(err, contracts.ErrSessionClosed) {
		t.Errorf("SendStart() after disconnect error = %v, want ErrSessionClosed", err)
	}
}

func TestDetachUnsubscribes(t *testing.T) {
	m := newManager(t)
	defer m.Close()

	client := newFakeClient()
	s, err := Attach(m, client, 0)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Detach(s.Info().ID); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if !client.unsubscribed {
		t.Error("Detach() did not unsubscribe")
	}
}
