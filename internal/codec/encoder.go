package codec

import (
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// Encoder frames messages into BLE-MIDI packets no larger than its packet budget.
// Timestamps are sampled from the clock for every packet. Encoder holds no
// mutable state and is safe for concurrent use.
type Encoder struct {
	clock         contracts.Clock
	maxPacketSize int
}

// NewEncoder returns an Encoder producing packets of at most maxPacketSize bytes.
// Sizes below contracts.MinMaxPacketSize are raised to it.
func NewEncoder(clock contracts.Clock, maxPacketSize int) *Encoder {
	if maxPacketSize < contracts.MinMaxPacketSize {
		maxPacketSize = contracts.MinMaxPacketSize
	}
	return &Encoder{clock: clock, maxPacketSize: maxPacketSize}
}

// MaxPacketSize returns the packet budget.
func (e *Encoder) MaxPacketSize() int { return e.maxPacketSize }

// Encode returns the packets that transmit msg, to be written in order.
// RPN and NRPN expand to one packet per control change.
func (e *Encoder) Encode(msg contracts.Message) ([][]byte, error) {
	if err := contracts.Validate(msg); err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case contracts.RPN:
		return e.encodeControls(ParameterSequence(true, m.Channel, m.Function, m.Value))
	case contracts.NRPN:
		return e.encodeControls(ParameterSequence(false, m.Channel, m.Function, m.Value))
	case contracts.SystemExclusive:
		return e.encodeSysEx(m.Payload), nil
	}

	raw, err := Raw(msg)
	if err != nil {
		return nil, err
	}
	return [][]byte{e.frame(raw)}, nil
}

func (e *Encoder) frame(raw []byte) []byte {
	ts := Tick(e.clock.Now())
	packet := make([]byte, 0, len(raw)+2)
	packet = append(packet, headerByte(ts), timestampByte(ts))
	return append(packet, raw...)
}

func (e *Encoder) encodeControls(controls []contracts.ControlChange) ([][]byte, error) {
	packets := make([][]byte, 0, len(controls))
	for _, cc := range controls {
		raw, err := Raw(cc)
		if err != nil {
			return nil, err
		}
		packets = append(packets, e.frame(raw))
	}
	return packets, nil
}

// encodeSysEx splits a framed SysEx payload. Every packet starts with a header and a
// timestamp; the final 0xF7 gets its own timestamp byte unless it starts a packet.
func (e *Encoder) encodeSysEx(payload []byte) [][]byte {
	budget := e.maxPacketSize - 2
	var packets [][]byte

	rest := payload
	for len(rest) > 0 {
		ts := Tick(e.clock.Now())
		packet := make([]byte, 0, e.maxPacketSize)
		packet = append(packet, headerByte(ts), timestampByte(ts))

		if len(rest) == 1 || len(rest) < budget {
			body := rest[:len(rest)-1]
			packet = append(packet, body...)
			if len(body) > 0 {
				packet = append(packet, timestampByte(ts))
			}
			packets = append(packets, append(packet, sysExEnd))
			break
		}

		n := budget
		if n >= len(rest) {
			// leave the terminator for a packet of its own
			n = len(rest) - 1
		}
		packets = append(packets, append(packet, rest[:n]...))
		rest = rest[n:]
	}
	return packets
}
