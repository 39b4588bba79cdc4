package contracts

const (
	// DefaultMaxPacketSize is the write payload budget of a BLE connection that kept
	// the default ATT MTU of 23.
	DefaultMaxPacketSize = 20
	// MinMaxPacketSize fits a header, a timestamp and a three-byte message.
	MinMaxPacketSize = 5
	// DefaultMaxPendingEvents bounds the events a session holds for an undrained event channel.
	DefaultMaxPendingEvents = 1024
)

// PacketSizeForMTU converts a negotiated ATT MTU into a BLE-MIDI packet budget.
func PacketSizeForMTU(mtu int) int {
	size := mtu - 3
	if size < MinMaxPacketSize {
		return DefaultMaxPacketSize
	}
	return size
}

// MessageFilter restricts which message kinds are delivered to the event channel.
type MessageFilter struct {
	Kinds []Kind // Kinds to deliver; every other kind is dropped.
}

// Allows reports whether kind passes the filter.
func (f *MessageFilter) Allows(kind Kind) bool {
	if f == nil {
		return true
	}
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for the CoreMIDI bridge.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// Options defines the configuration of a session manager and its sessions.
type Options struct {
	Logger         Logger           // Logger for logging events and errors.
	LogLevel       LogLevel         // Level of logging to use.
	MaxPacketSize  int              // Default write payload budget per packet.
	TrustTimestamp *bool            // Initial timestamp trust of new decoders; nil means true.
	MessageFilter  *MessageFilter   // Optional filter for delivered events.
	MaxPending     int              // Events held per session before new ones are dropped.
	Clock          Clock            // Time source; nil uses the system clock.
	OnAttach       LifecycleHandler // Called after an endpoint attached.
	OnDetach       LifecycleHandler // Called after an endpoint detached.
	CoreMIDIConfig *CoreMIDIConfig  // Configuration specific to CoreMIDI.
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithMaxPacketSize sets the default payload budget of written packets.
func WithMaxPacketSize(size int) Option {
	return func(opts *Options) {
		opts.MaxPacketSize = size
	}
}

// WithTimestampTrust sets whether new decoders initially honor peer timestamps.
func WithTimestampTrust(trusted bool) Option {
	return func(opts *Options) {
		opts.TrustTimestamp = &trusted
	}
}

// WithMessageFilter delivers only the listed message kinds.
func WithMessageFilter(filter MessageFilter) Option {
	return func(opts *Options) {
		opts.MessageFilter = &filter
	}
}

// WithMaxPendingEvents bounds the events each session holds while the event channel is full.
func WithMaxPendingEvents(n int) Option {
	return func(opts *Options) {
		opts.MaxPending = n
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(opts *Options) {
		opts.Clock = c
	}
}

// WithAttachHandler registers a callback run after each attach.
func WithAttachHandler(h LifecycleHandler) Option {
	return func(opts *Options) {
		opts.OnAttach = h
	}
}

// WithDetachHandler registers a callback run after each detach.
func WithDetachHandler(h LifecycleHandler) Option {
	return func(opts *Options) {
		opts.OnDetach = h
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the local MIDI bridge.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *Options) {
		opts.CoreMIDIConfig = &config
	}
}
