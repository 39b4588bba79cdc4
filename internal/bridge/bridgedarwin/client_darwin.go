//go:build darwin
// +build darwin

package bridgedarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/blemidi/internal/bridge"
	"github.com/leandrodaf/blemidi/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

var (
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Bridge forwards a CoreMIDI input source to a BLE-MIDI session.
type Bridge struct {
	logger    contracts.Logger
	client    coremidi.Client    // CoreMIDI client instance for MIDI operations.
	inputPort coremidi.InputPort // Input port for receiving MIDI packets.
	portConn  internalPortConnection
	forwarder *bridge.Forwarder
	mu        sync.Mutex
	stopOnce  sync.Once
}

// NewBridge creates the CoreMIDI client named by options.CoreMIDIConfig.
func NewBridge(options *contracts.Options) (contracts.Bridge, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client created", options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Bridge{
		logger:    options.Logger,
		client:    client,
		forwarder: bridge.NewForwarder(options.Logger, options.MessageFilter, bridge.DefaultBuffer),
	}, nil
}

// ListDevices returns the CoreMIDI input sources in index order.
func (m *Bridge) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source at deviceID, replacing any previous connection.
func (m *Bridge) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(contracts.ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("%w: %d", contracts.ErrInvalidMIDIDevice, deviceID)
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	m.inputPort, err = coremidi.NewInputPort(m.client, "BLE-MIDI Bridge Input", m.handlePacket)
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// handlePacket runs on a CoreMIDI thread; the forwarder takes it from there.
func (m *Bridge) handlePacket(_ coremidi.Source, packet coremidi.Packet) {
	m.forwarder.Handle(packet.Data)
}

// StartForwarding sends everything received from the selected source to target.
func (m *Bridge) StartForwarding(target contracts.Sender) {
	if target == nil {
		m.logger.Error("StartForwarding called with nil target")
		return
	}
	m.forwarder.SetTarget(target)
	m.logger.Info("Forwarding MIDI input")
}

// Stop disconnects the source and stops forwarding. Later calls are no-ops.
func (m *Bridge) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		m.forwarder.Stop()
		m.logger.Info("MIDI forwarding stopped")
	})
	return nil
}
