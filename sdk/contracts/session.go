package contracts

import "context"

// Sink accepts framed BLE-MIDI packets for one endpoint.
// Implementations return ErrNotConnected (possibly wrapped) when the peripheral is gone.
type Sink interface {
	Write(ctx context.Context, payload []byte) error
}

// Sender transmits MIDI messages to a peripheral.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Session is the per-endpoint codec: it decodes notifications from the peripheral and
// encodes commands sent to it. Every send method blocks until the packets were written
// and is serialized with the other sends of the same session.
type Session interface {
	Sender

	Info() EndpointInfo
	// Feed decodes one notification payload. Payloads must be fed in arrival order.
	Feed(payload []byte)

	SendNoteOff(ctx context.Context, channel, note, velocity uint8) error
	SendNoteOn(ctx context.Context, channel, note, velocity uint8) error
	SendPolyphonicAftertouch(ctx context.Context, channel, note, pressure uint8) error
	SendControlChange(ctx context.Context, channel, function, value uint8) error
	SendProgramChange(ctx context.Context, channel, program uint8) error
	SendChannelAftertouch(ctx context.Context, channel, pressure uint8) error
	SendPitchWheel(ctx context.Context, channel uint8, amount uint16) error
	SendTimeCodeQuarterFrame(ctx context.Context, timing uint8) error
	SendSongSelect(ctx context.Context, song uint8) error
	SendSongPositionPointer(ctx context.Context, position uint16) error
	SendTuneRequest(ctx context.Context) error
	SendTimingClock(ctx context.Context) error
	SendStart(ctx context.Context) error
	SendContinue(ctx context.Context) error
	SendStop(ctx context.Context) error
	SendActiveSensing(ctx context.Context) error
	SendReset(ctx context.Context) error
	SendSystemExclusive(ctx context.Context, payload []byte) error
	SendRPN(ctx context.Context, channel uint8, function, value uint16) error
	SendRPNParts(ctx context.Context, channel, functionMSB, functionLSB uint8, value uint16) error
	SendNRPN(ctx context.Context, channel uint8, function, value uint16) error
	SendNRPNParts(ctx context.Context, channel, functionMSB, functionLSB uint8, value uint16) error
}

// Endpoint pairs an endpoint description with its output sink.
type Endpoint struct {
	Info EndpointInfo
	Sink Sink
}

// Manager owns one Session per attached endpoint.
type Manager interface {
	// Attach creates the session for a newly connected endpoint.
	Attach(info EndpointInfo, sink Sink) (Session, error)
	// Detach destroys the session and drops its pending deliveries.
	Detach(id EndpointID) error
	// Reconcile attaches endpoints missing from the manager and detaches the ones
	// no longer present, keyed by EndpointID.
	Reconcile(present []Endpoint) (attached, detached []EndpointID, err error)
	// Notify routes a notification payload to the endpoint's session.
	Notify(id EndpointID, payload []byte) error
	Session(id EndpointID) (Session, bool)
	Endpoints() []EndpointInfo
	// StartCapture sets the channel decoded events are delivered to.
	StartCapture(eventChannel chan Event)
	// Close detaches every endpoint.
	Close() error
}

// Bridge forwards messages from a local MIDI input device to a Sender.
type Bridge interface {
	Stop() error                        // Stops forwarding and releases the device.
	ListDevices() ([]DeviceInfo, error) // Lists local MIDI input devices.
	SelectDevice(deviceID int) error    // Connects to the input device with the given index.
	StartForwarding(target Sender)      // Starts forwarding received messages to target.
}
