// Package session binds a BLE-MIDI decoder and encoder to one peripheral endpoint
// and manages the set of attached endpoints.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/leandrodaf/blemidi/internal/codec"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// Config carries the per-session settings resolved by the Manager.
type Config struct {
	Clock          contracts.Clock
	Logger         contracts.Logger
	MaxPacketSize  int
	TrustTimestamp bool
	Filter         *contracts.MessageFilter
	MaxPending     int // 0 uses contracts.DefaultMaxPendingEvents
	// Target returns the channel events are delivered to, or nil to drop them.
	Target func() chan contracts.Event
}

// Session implements contracts.Session for one endpoint.
type Session struct {
	info     contracts.EndpointInfo
	instance string
	logger   contracts.Logger
	sink     contracts.Sink

	feedMu     sync.Mutex
	decoder    *codec.Decoder
	dispatcher *dispatcher

	sendMu  sync.Mutex
	encoder *codec.Encoder

	closed atomic.Bool
}

var _ contracts.Session = (*Session)(nil)

// New creates the session of a newly attached endpoint. sink may be nil for
// input-only endpoints; sends then fail with contracts.ErrNotConnected.
func New(info contracts.EndpointInfo, sink contracts.Sink, cfg Config) *Session {
	encoder := codec.NewEncoder(cfg.Clock, cfg.MaxPacketSize)
	info.MaxPacketSize = encoder.MaxPacketSize()

	return &Session{
		info:       info,
		instance:   uuid.New().String(),
		logger:     cfg.Logger,
		sink:       sink,
		decoder:    codec.NewDecoder(cfg.Clock, cfg.Logger, cfg.TrustTimestamp),
		dispatcher: newDispatcher(cfg.Clock, cfg.Target, cfg.Filter, cfg.MaxPending, cfg.Logger),
		encoder:    encoder,
	}
}

func (s *Session) Info() contracts.EndpointInfo { return s.info }

// InstanceID identifies this attachment in logs; it changes on every attach.
func (s *Session) InstanceID() string { return s.instance }

// TimestampTrusted reports whether the peer's timestamps are still honored.
func (s *Session) TimestampTrusted() bool {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	return s.decoder.TimestampTrusted()
}

// Feed decodes a notification payload and schedules its events.
func (s *Session) Feed(payload []byte) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	if s.closed.Load() {
		return
	}
	for _, d := range s.decoder.Feed(payload) {
		s.dispatcher.enqueue(contracts.Event{
			Endpoint:  s.info.ID,
			Message:   d.Message,
			Timestamp: d.Timestamp,
			Delay:     d.Delay,
		})
	}
}

// Send encodes msg and writes its packets in order. A failed write abandons the
// remaining packets of msg.
func (s *Session) Send(ctx context.Context, msg contracts.Message) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return fmt.Errorf("%w: %s", contracts.ErrSessionClosed, s.info.ID)
	}
	packets, err := s.encoder.Encode(msg)
	if err != nil {
		return err
	}
	if s.sink == nil {
		s.logger.Debug("no sink for endpoint; message not sent", s.logger.Field().String("endpoint", string(s.info.ID)))
		return fmt.Errorf("%w: %s", contracts.ErrNotConnected, s.info.ID)
	}

	for i, packet := range packets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sink.Write(ctx, packet); err != nil {
			s.logger.Warn("BLE-MIDI write failed",
				s.logger.Field().String("endpoint", string(s.info.ID)),
				s.logger.Field().String("session", s.instance),
				s.logger.Field().Int("packet", i+1),
				s.logger.Field().Int("packets", len(packets)),
				s.logger.Field().Error("error", err))
			return fmt.Errorf("write packet %d/%d to %s: %w", i+1, len(packets), s.info.ID, err)
		}
	}
	return nil
}

// Close drops pending deliveries and closes the sink if it is an io.Closer.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.feedMu.Lock()
	s.dispatcher.stop()
	s.feedMu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if c, ok := s.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) SendNoteOff(ctx context.Context, channel, note, velocity uint8) error {
	return s.Send(ctx, contracts.NoteOff{Channel: channel, Note: note, Velocity: velocity})
}

func (s *Session) SendNoteOn(ctx context.Context, channel, note, velocity uint8) error {
	return s.Send(ctx, contracts.NoteOn{Channel: channel, Note: note, Velocity: velocity})
}

func (s *Session) SendPolyphonicAftertouch(ctx context.Context, channel, note, pressure uint8) error {
	return s.Send(ctx, contracts.PolyphonicAftertouch{Channel: channel, Note: note, Pressure: pressure})
}

func (s *Session) SendControlChange(ctx context.Context, channel, function, value uint8) error {
	return s.Send(ctx, contracts.ControlChange{Channel: channel, Function: function, Value: value})
}

func (s *Session) SendProgramChange(ctx context.Context, channel, program uint8) error {
	return s.Send(ctx, contracts.ProgramChange{Channel: channel, Program: program})
}

func (s *Session) SendChannelAftertouch(ctx context.Context, channel, pressure uint8) error {
	return s.Send(ctx, contracts.ChannelAftertouch{Channel: channel, Pressure: pressure})
}

func (s *Session) SendPitchWheel(ctx context.Context, channel uint8, amount uint16) error {
	return s.Send(ctx, contracts.PitchWheel{Channel: channel, Amount: amount})
}

func (s *Session) SendTimeCodeQuarterFrame(ctx context.Context, timing uint8) error {
	return s.Send(ctx, contracts.TimeCodeQuarterFrame{Timing: timing})
}

func (s *Session) SendSongSelect(ctx context.Context, song uint8) error {
	return s.Send(ctx, contracts.SongSelect{Song: song})
}

func (s *Session) SendSongPositionPointer(ctx context.Context, position uint16) error {
	return s.Send(ctx, contracts.SongPositionPointer{Position: position})
}

func (s *Session) SendTuneRequest(ctx context.Context) error {
	return s.Send(ctx, contracts.TuneRequest{})
}

func (s *Session) SendTimingClock(ctx context.Context) error {
	return s.Send(ctx, contracts.TimingClock{})
}

func (s *Session) SendStart(ctx context.Context) error { return s.Send(ctx, contracts.Start{}) }

func (s *Session) SendContinue(ctx context.Context) error { return s.Send(ctx, contracts.Continue{}) }

func (s *Session) SendStop(ctx context.Context) error { return s.Send(ctx, contracts.Stop{}) }

func (s *Session) SendActiveSensing(ctx context.Context) error {
	return s.Send(ctx, contracts.ActiveSensing{})
}

func (s *Session) SendReset(ctx context.Context) error { return s.Send(ctx, contracts.Reset{}) }

// SendSystemExclusive sends payload, which must include the 0xF0 and 0xF7 framing.
func (s *Session) SendSystemExclusive(ctx context.Context, payload []byte) error {
	return s.Send(ctx, contracts.SystemExclusive{Payload: payload})
}

func (s *Session) SendRPN(ctx context.Context, channel uint8, function, value uint16) error {
	return s.Send(ctx, contracts.RPN{Channel: channel, Function: function, Value: value})
}

// SendRPNParts is SendRPN with the parameter number given as MSB and LSB.
func (s *Session) SendRPNParts(ctx context.Context, channel, functionMSB, functionLSB uint8, value uint16) error {
	function, err := joinParameter(functionMSB, functionLSB)
	if err != nil {
		return err
	}
	return s.SendRPN(ctx, channel, function, value)
}

func (s *Session) SendNRPN(ctx context.Context, channel uint8, function, value uint16) error {
	return s.Send(ctx, contracts.NRPN{Channel: channel, Function: function, Value: value})
}

// SendNRPNParts is SendNRPN with the parameter number given as MSB and LSB.
func (s *Session) SendNRPNParts(ctx context.Context, channel, functionMSB, functionLSB uint8, value uint16) error {
	function, err := joinParameter(functionMSB, functionLSB)
	if err != nil {
		return err
	}
	return s.SendNRPN(ctx, channel, function, value)
}

func joinParameter(msb, lsb uint8) (uint16, error) {
	if msb > 0x7f || lsb > 0x7f {
		return 0, fmt.Errorf("%w: parameter MSB %d / LSB %d out of range 0..127", contracts.ErrInvalidMessage, msb, lsb)
	}
	return uint16(msb)<<7 | uint16(lsb), nil
}
