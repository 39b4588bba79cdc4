package contracts

import "errors"

var (
	// ErrNotConnected is returned by sends when the endpoint has no usable sink.
	ErrNotConnected = errors.New("peripheral not connected")
	// ErrInvalidMessage is returned when a message is outside its value ranges
	// or a SysEx payload is not framed by 0xF0 and 0xF7.
	ErrInvalidMessage = errors.New("invalid MIDI message")
	// ErrEndpointAttached is returned when attaching an endpoint id twice.
	ErrEndpointAttached = errors.New("endpoint already attached")
	// ErrUnknownEndpoint is returned for operations on an endpoint that is not attached.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrSessionClosed is returned by operations on a detached session.
	ErrSessionClosed = errors.New("session closed")

	// ErrUnsupportedOS is returned when no local MIDI bridge exists for the operating system.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrNoMIDIDevices is returned when the local MIDI system reports no input sources.
	ErrNoMIDIDevices = errors.New("no MIDI devices found")
	// ErrInvalidMIDIDevice is returned when a device index is out of range.
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
)
