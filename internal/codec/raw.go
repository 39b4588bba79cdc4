package codec

import (
	"fmt"

	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// Raw returns the MIDI bytes of msg without BLE-MIDI framing.
// RPN and NRPN have no single-message form; see ParameterSequence.
func Raw(msg contracts.Message) ([]byte, error) {
	if err := contracts.Validate(msg); err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case contracts.NoteOff:
		return []byte{0x80 | m.Channel, m.Note, m.Velocity}, nil
	case contracts.NoteOn:
		return []byte{0x90 | m.Channel, m.Note, m.Velocity}, nil
	case contracts.PolyphonicAftertouch:
		return []byte{0xA0 | m.Channel, m.Note, m.Pressure}, nil
	case contracts.ControlChange:
		return []byte{0xB0 | m.Channel, m.Function, m.Value}, nil
	case contracts.ProgramChange:
		return []byte{0xC0 | m.Channel, m.Program}, nil
	case contracts.ChannelAftertouch:
		return []byte{0xD0 | m.Channel, m.Pressure}, nil
	case contracts.PitchWheel:
		return []byte{0xE0 | m.Channel, byte(m.Amount) & lowMask, byte(m.Amount >> 7)}, nil
	case contracts.TimeCodeQuarterFrame:
		return []byte{0xF1, m.Timing}, nil
	case contracts.SongPositionPointer:
		return []byte{0xF2, byte(m.Position) & lowMask, byte(m.Position >> 7)}, nil
	case contracts.SongSelect:
		return []byte{0xF3, m.Song}, nil
	case contracts.TuneRequest:
		return []byte{0xF6}, nil
	case contracts.TimingClock:
		return []byte{0xF8}, nil
	case contracts.Start:
		return []byte{0xFA}, nil
	case contracts.Continue:
		return []byte{0xFB}, nil
	case contracts.Stop:
		return []byte{0xFC}, nil
	case contracts.ActiveSensing:
		return []byte{0xFE}, nil
	case contracts.Reset:
		return []byte{0xFF}, nil
	case contracts.SystemExclusive:
		return append([]byte(nil), m.Payload...), nil
	}
	return nil, fmt.Errorf("%w: %s has no single-message form", contracts.ErrInvalidMessage, msg.Kind())
}
