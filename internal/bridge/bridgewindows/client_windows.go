//go:build windows
// +build windows

package bridgewindows

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/blemidi/internal/bridge"
	"github.com/leandrodaf/blemidi/internal/midiconv"
	"github.com/leandrodaf/blemidi/sdk/contracts"
	"golang.org/x/sys/windows"
)

// HMIDIIN is a winmm MIDI input handle.
type HMIDIIN windows.Handle

const (
	CALLBACK_FUNCTION = 0x00030000
	MIDI_IO_STATUS    = 0x00000020
)

// winmm input messages
const (
	MIM_OPEN      = 0x3C1
	MIM_CLOSE     = 0x3C2
	MIM_DATA      = 0x3C3
	MIM_ERROR     = 0x3C5
	MIM_LONGERROR = 0x3C6
	MIM_MOREDATA  = 0x3CC
)

type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Bridge forwards a winmm MIDI input device to a BLE-MIDI session.
type Bridge struct {
	logger    contracts.Logger
	handle    HMIDIIN
	portConn  bool
	started   bool
	mu        sync.Mutex
	callback  uintptr
	forwarder *bridge.Forwarder
}

var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

func NewBridge(options *contracts.Options) (contracts.Bridge, error) {
	options.Logger.Info("winmm MIDI bridge created")
	return &Bridge{
		logger:    options.Logger,
		forwarder: bridge.NewForwarder(options.Logger, options.MessageFilter, bridge.DefaultBuffer),
	}, nil
}

// ListDevices lists the winmm input devices in index order.
func (m *Bridge) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn("Failed to get MIDI device capabilities", m.logger.Field().Int("deviceID", int(i)))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		}
	}
	return devices, nil
}

// SelectDevice opens the input device at deviceID, closing any previous one.
func (m *Bridge) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portConn {
		if err := m.closeDevice(); err != nil {
			return fmt.Errorf("failed to close previous MIDI device: %w", err)
		}
	}

	m.callback = windows.NewCallback(midiInCallback)
	fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		m.callback,
		uintptr(unsafe.Pointer(m)),
		uintptr(fdwOpen),
	)
	if r1 != 0 {
		m.logger.Error("Failed to open MIDI device", m.logger.Field().Int("deviceID", deviceID), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: open device %d: %v", contracts.ErrInvalidMIDIDevice, deviceID, err)
	}

	m.portConn = true
	m.logger.Info("MIDI device connected", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// StartForwarding starts the opened device and sends its input to target.
func (m *Bridge) StartForwarding(target contracts.Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn || m.handle == 0 {
		m.logger.Error("Cannot start forwarding: no MIDI device selected")
		return
	}
	m.forwarder.SetTarget(target)
	if m.started {
		return
	}

	r1, _, err := procMidiInStart.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error("Failed to start MIDI input", m.logger.Field().Error("error", err))
		return
	}
	m.started = true
	m.logger.Info("Forwarding MIDI input")
}

// midiInCallback runs on a winmm thread; short messages are packed into dwParam1.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	m := (*Bridge)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		m.logger.Info("MIDI device opened")
	case MIM_CLOSE:
		m.logger.Info("MIDI device closed")
	case MIM_DATA:
		raw := []byte{byte(dwParam1), byte(dwParam1 >> 8), byte(dwParam1 >> 16)}
		n := midiconv.DataLength(raw[0])
		if n < 0 {
			n = 0
		}
		m.forwarder.Handle(raw[:1+n])
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Error("MIDI input error", m.logger.Field().Uint64("msg", uint64(wMsg)))
	case MIM_MOREDATA:
		m.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		m.logger.Warn("Unknown MIDI message", m.logger.Field().Uint64("msg", uint64(wMsg)))
	}

	return 0
}

// Stop stops forwarding and closes the device.
func (m *Bridge) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.forwarder.Stop()
	if !m.portConn {
		m.logger.Warn("No MIDI device is connected")
		return nil
	}
	if err := m.closeDevice(); err != nil {
		return fmt.Errorf("failed to stop MIDI input: %w", err)
	}
	m.logger.Info("MIDI forwarding stopped and device closed")
	return nil
}

func (m *Bridge) closeDevice() error {
	if m.handle == 0 {
		return fmt.Errorf("invalid MIDI device handle")
	}

	if m.started {
		r1, _, err := procMidiInStop.Call(uintptr(m.handle))
		if r1 != 0 {
			m.logger.Error("Failed to stop MIDI input", m.logger.Field().Error("error", err))
			return err
		}
	}

	r1, _, err := procMidiInClose.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error("Failed to close MIDI device", m.logger.Field().Error("error", err))
		return err
	}

	m.portConn, m.started = false, false
	m.handle = 0
	return nil
}
