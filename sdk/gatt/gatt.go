// Package gatt connects BLE-MIDI peripherals reached through github.com/currantlabs/ble
// to a session manager.
package gatt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/currantlabs/ble"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

var (
	// ServiceUUID identifies the BLE-MIDI service.
	ServiceUUID = ble.MustParse("03B80E5A-EDE8-4B33-A751-6CE34EC4C700")
	// CharacteristicUUID identifies the MIDI I/O characteristic.
	CharacteristicUUID = ble.MustParse("7772E5DB-3868-4112-A1A9-F2669D106BF3")
)

var (
	ErrServiceNotFound        = errors.New("BLE-MIDI service not found")
	ErrCharacteristicNotFound = errors.New("BLE-MIDI characteristic not found")
)

// DefaultMTU is the ATT MTU requested from peripherals.
const DefaultMTU = 247

// Client is the part of ble.Client used to drive a BLE-MIDI peripheral.
type Client interface {
	Address() ble.Addr
	Name() string
	DiscoverProfile(force bool) (*ble.Profile, error)
	ExchangeMTU(rxMTU int) (txMTU int, err error)
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	Unsubscribe(c *ble.Characteristic, ind bool) error
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	Disconnected() <-chan struct{}
}

var _ Client = ble.Client(nil)

// FindCharacteristic returns the MIDI I/O characteristic of profile.
func FindCharacteristic(profile *ble.Profile) (*ble.Characteristic, error) {
	if profile == nil {
		return nil, ErrServiceNotFound
	}
	for _, s := range profile.Services {
		if !s.UUID.Equal(ServiceUUID) {
			continue
		}
		for _, c := range s.Characteristics {
			if c.UUID.Equal(CharacteristicUUID) {
				return c, nil
			}
		}
		return nil, ErrCharacteristicNotFound
	}
	return nil, ErrServiceNotFound
}

// Attach discovers the BLE-MIDI characteristic of a connected peripheral, attaches
// it to manager and routes its notifications there. The endpoint is detached when
// the peripheral disconnects.
//
// mtu is the ATT MTU to request; 0 uses DefaultMTU.
func Attach(manager contracts.Manager, client Client, mtu int) (contracts.Session, error) {
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		return nil, fmt.Errorf("discover profile: %w", err)
	}
	char, err := FindCharacteristic(profile)
	if err != nil {
		return nil, err
	}

	if mtu == 0 {
		mtu = DefaultMTU
	}
	size := contracts.DefaultMaxPacketSize
	if txMTU, err := client.ExchangeMTU(mtu); err == nil {
		size = contracts.PacketSizeForMTU(txMTU)
	}

	info := contracts.EndpointInfo{
		ID:            contracts.EndpointID(client.Address().String()),
		Name:          client.Name(),
		MaxPacketSize: size,
	}
	s, err := manager.Attach(info, &characteristicSink{client: client, char: char})
	if err != nil {
		return nil, err
	}

	handler := func(req []byte) {
		_ = manager.Notify(info.ID, req)
	}
	if err := client.Subscribe(char, false, handler); err != nil {
		_ = manager.Detach(info.ID)
		return nil, fmt.Errorf("subscribe to %s: %w", info.ID, err)
	}

	go func() {
		<-client.Disconnected()
		// a reconnect may have attached a new session under the same ID
		if current, ok := manager.Session(info.ID); ok && current == s {
			_ = manager.Detach(info.ID)
		}
	}()
	return s, nil
}

// characteristicSink writes packets to the MIDI I/O characteristic without response.
type characteristicSink struct {
	client Client
	char   *ble.Characteristic
	once   sync.Once
}

func (c *characteristicSink) Write(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.client.Disconnected():
		return contracts.ErrNotConnected
	default:
	}
	if err := c.client.WriteCharacteristic(c.char, payload, true); err != nil {
		return fmt.Errorf("write characteristic: %w", err)
	}
	return nil
}

// Close unsubscribes from notifications unless the link is already gone.
func (c *characteristicSink) Close() error {
	var err error
	c.once.Do(func() {
		select {
		case <-c.client.Disconnected():
			return
		default:
		}
		err = c.client.Unsubscribe(c.char, false)
	})
	return err
}
