package contracts

import "fmt"

// Kind identifies the variant of a Message.
type Kind uint8

const (
	KindNoteOff Kind = iota + 1
	KindNoteOn
	KindPolyphonicAftertouch
	KindControlChange
	KindProgramChange
	KindChannelAftertouch
	KindPitchWheel
	KindRPN
	KindNRPN
	KindTimeCodeQuarterFrame
	KindSongSelect
	KindSongPositionPointer
	KindTuneRequest
	KindTimingClock
	KindStart
	KindContinue
	KindStop
	KindActiveSensing
	KindReset
	KindSystemExclusive
)

var kindNames = map[Kind]string{
	KindNoteOff:              "NoteOff",
	KindNoteOn:               "NoteOn",
	KindPolyphonicAftertouch: "PolyphonicAftertouch",
	KindControlChange:        "ControlChange",
	KindProgramChange:        "ProgramChange",
	KindChannelAftertouch:    "ChannelAftertouch",
	KindPitchWheel:           "PitchWheel",
	KindRPN:                  "RPN",
	KindNRPN:                 "NRPN",
	KindTimeCodeQuarterFrame: "TimeCodeQuarterFrame",
	KindSongSelect:           "SongSelect",
	KindSongPositionPointer:  "SongPositionPointer",
	KindTuneRequest:          "TuneRequest",
	KindTimingClock:          "TimingClock",
	KindStart:                "Start",
	KindContinue:             "Continue",
	KindStop:                 "Stop",
	KindActiveSensing:        "ActiveSensing",
	KindReset:                "Reset",
	KindSystemExclusive:      "SystemExclusive",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the Kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Message is one decoded or to-be-encoded MIDI message.
// The concrete types below are the only implementations.
type Message interface {
	Kind() Kind
}

// NoteOff releases a note.
type NoteOff struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// NoteOn starts a note. A NoteOn with velocity 0 is decoded as NoteOff.
type NoteOn struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type PolyphonicAftertouch struct {
	Channel  uint8
	Note     uint8
	Pressure uint8
}

type ControlChange struct {
	Channel  uint8
	Function uint8
	Value    uint8
}

type ProgramChange struct {
	Channel uint8
	Program uint8
}

type ChannelAftertouch struct {
	Channel  uint8
	Pressure uint8
}

// PitchWheel carries a 14-bit amount, 8192 being the center.
type PitchWheel struct {
	Channel uint8
	Amount  uint16
}

// RPN is a registered parameter change assembled from control changes 101, 100, 6 and 38.
type RPN struct {
	Channel  uint8
	Function uint16
	Value    uint16
}

// NRPN is a non-registered parameter change assembled from control changes 99, 98, 6 and 38.
type NRPN struct {
	Channel  uint8
	Function uint16
	Value    uint16
}

type TimeCodeQuarterFrame struct {
	Timing uint8
}

type SongSelect struct {
	Song uint8
}

// SongPositionPointer carries a 14-bit position counted in sixteenth notes.
type SongPositionPointer struct {
	Position uint16
}

type TuneRequest struct{}

type TimingClock struct{}

type Start struct{}

type Continue struct{}

type Stop struct{}

type ActiveSensing struct{}

type Reset struct{}

// SystemExclusive holds a complete payload including the 0xF0 and 0xF7 framing bytes.
type SystemExclusive struct {
	Payload []byte
}

func (NoteOff) Kind() Kind              { return KindNoteOff }
func (NoteOn) Kind() Kind               { return KindNoteOn }
func (PolyphonicAftertouch) Kind() Kind { return KindPolyphonicAftertouch }
func (ControlChange) Kind() Kind        { return KindControlChange }
func (ProgramChange) Kind() Kind        { return KindProgramChange }
func (ChannelAftertouch) Kind() Kind    { return KindChannelAftertouch }
func (PitchWheel) Kind() Kind           { return KindPitchWheel }
func (RPN) Kind() Kind                  { return KindRPN }
func (NRPN) Kind() Kind                 { return KindNRPN }
func (TimeCodeQuarterFrame) Kind() Kind { return KindTimeCodeQuarterFrame }
func (SongSelect) Kind() Kind           { return KindSongSelect }
func (SongPositionPointer) Kind() Kind  { return KindSongPositionPointer }
func (TuneRequest) Kind() Kind          { return KindTuneRequest }
func (TimingClock) Kind() Kind          { return KindTimingClock }
func (Start) Kind() Kind                { return KindStart }
func (Continue) Kind() Kind             { return KindContinue }
func (Stop) Kind() Kind                 { return KindStop }
func (ActiveSensing) Kind() Kind        { return KindActiveSensing }
func (Reset) Kind() Kind                { return KindReset }
func (SystemExclusive) Kind() Kind      { return KindSystemExclusive }

const (
	maxChannel = 0x0f
	max7Bit    = 0x7f
	max14Bit   = 0x3fff
)

// Validate reports whether every field of msg is inside its MIDI range.
// The returned error wraps ErrInvalidMessage.
func Validate(msg Message) error {
	switch m := msg.(type) {
	case NoteOff:
		return checkChannel(m.Channel, check7("note", m.Note), check7("velocity", m.Velocity))
	case NoteOn:
		return checkChannel(m.Channel, check7("note", m.Note), check7("velocity", m.Velocity))
	case PolyphonicAftertouch:
		return checkChannel(m.Channel, check7("note", m.Note), check7("pressure", m.Pressure))
	case ControlChange:
		return checkChannel(m.Channel, check7("function", m.Function), check7("value", m.Value))
	case ProgramChange:
		return checkChannel(m.Channel, check7("program", m.Program))
	case ChannelAftertouch:
		return checkChannel(m.Channel, check7("pressure", m.Pressure))
	case PitchWheel:
		return checkChannel(m.Channel, check14("amount", m.Amount))
	case RPN:
		return checkChannel(m.Channel, check14("function", m.Function), check14("value", m.Value))
	case NRPN:
		return checkChannel(m.Channel, check14("function", m.Function), check14("value", m.Value))
	case TimeCodeQuarterFrame:
		return check7("timing", m.Timing)
	case SongSelect:
		return check7("song", m.Song)
	case SongPositionPointer:
		return check14("position", m.Position)
	case SystemExclusive:
		return validateSysEx(m.Payload)
	case TuneRequest, TimingClock, Start, Continue, Stop, ActiveSensing, Reset:
		return nil
	case nil:
		return fmt.Errorf("%w: nil message", ErrInvalidMessage)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidMessage, msg)
	}
}

func checkChannel(channel uint8, errs ...error) error {
	if channel > maxChannel {
		return fmt.Errorf("%w: channel %d out of range 0..15", ErrInvalidMessage, channel)
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func check7(name string, v uint8) error {
	if v > max7Bit {
		return fmt.Errorf("%w: %s %d out of range 0..127", ErrInvalidMessage, name, v)
	}
	return nil
}

func check14(name string, v uint16) error {
	if v > max14Bit {
		return fmt.Errorf("%w: %s %d out of range 0..16383", ErrInvalidMessage, name, v)
	}
	return nil
}

func validateSysEx(payload []byte) error {
	if len(payload) < 2 || payload[0] != 0xF0 || payload[len(payload)-1] != 0xF7 {
		return fmt.Errorf("%w: SysEx payload must begin with 0xF0 and end with 0xF7", ErrInvalidMessage)
	}
	for i, b := range payload[1 : len(payload)-1] {
		if b > max7Bit {
			return fmt.Errorf("%w: SysEx byte 0x%02X at offset %d is not a data byte", ErrInvalidMessage, b, i+1)
		}
	}
	return nil
}
