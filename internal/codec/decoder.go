package codec

import (
	"time"

	"github.com/leandrodaf/blemidi/sdk/contracts"
)

type parserState uint8

const (
	stateExpectTimestamp parserState = iota
	stateWait
	stateTwoByteData1
	stateThreeByteData1
	stateThreeByteData2
	stateSysEx
)

var parserStateNames = [...]string{"ExpectTimestamp", "Wait", "Expect2Byte_Data1", "Expect3Byte_Data1", "Expect3Byte_Data2", "InSysEx"}

func (s parserState) String() string { return parserStateNames[s] }

// Decoded is a message produced by Decoder.Feed together with its timing.
type Decoded struct {
	Message   contracts.Message
	Timestamp uint16
	Delay     time.Duration
}

// Decoder parses the notification payloads of one endpoint.
// It is not safe for concurrent use; payloads must be fed in arrival order.
type Decoder struct {
	clock  contracts.Clock
	logger contracts.Logger

	state   parserState
	header  byte
	lastLow byte
	lowSeen bool

	timestamp uint16
	delay     time.Duration
	timing    timing

	status        byte
	runningStatus byte
	data1         byte

	sysex      []byte
	sysexTs    byte
	hasSysexTs bool
	// recovery holds a SysEx whose 0xF7 may have been a timestamp byte.
	recovery []byte

	params [16]parameterState

	out     []Decoded
	desyncs uint64
}

// NewDecoder returns a Decoder in the ExpectTimestamp state.
// trusted is the initial timestamp trust; it is revoked when the peer sends zero timestamps.
func NewDecoder(clock contracts.Clock, logger contracts.Logger, trusted bool) *Decoder {
	d := &Decoder{
		clock:  clock,
		logger: logger,
		timing: timing{trusted: trusted},
	}
	for i := range d.params {
		d.params[i] = newParameterState()
	}
	return d
}

// TimestampTrusted reports whether peer timestamps are still used for delays.
func (d *Decoder) TimestampTrusted() bool { return d.timing.trusted }

// Desyncs returns how many times the decoder dropped input to resynchronize.
func (d *Decoder) Desyncs() uint64 { return d.desyncs }

// Feed decodes one payload and returns the messages it completed, in order.
// Malformed input never fails; the decoder resynchronizes on the next timestamp.
func (d *Decoder) Feed(payload []byte) []Decoded {
	d.out = nil
	if len(payload) == 0 {
		return nil
	}
	if payload[0]&statusBit == 0 {
		d.resync("invalid header byte", payload[0])
		return nil
	}

	d.header = payload[0] & headerHighMask
	d.lowSeen = false
	for _, b := range payload[1:] {
		d.parse(b)
	}

	// a timestamp never crosses packets, so a held 0xF7 at the end was the terminator
	if d.recovery != nil {
		d.emit(contracts.SystemExclusive{Payload: d.recovery})
		d.recovery = nil
	}
	return d.out
}

func (d *Decoder) parse(b byte) {
	if d.recovery != nil && d.resolveRecovery(b) {
		return
	}

	switch d.state {
	case stateExpectTimestamp:
		switch {
		case b == sysExEnd:
			d.resync("terminator without SysEx", b)
		case b&statusBit != 0:
			d.setTimestamp(b)
			d.state = stateWait
		case d.runningStatus != 0:
			d.running(b)
		default:
			d.resync("data byte without running status", b)
		}

	case stateWait:
		if b&statusBit != 0 {
			d.beginStatus(b)
			return
		}
		if d.runningStatus == 0 {
			d.resync("data byte without running status", b)
			return
		}
		d.running(b)

	case stateTwoByteData1:
		d.state = stateExpectTimestamp
		d.emitTwoByte(b & lowMask)

	case stateThreeByteData1:
		d.data1 = b & lowMask
		d.state = stateThreeByteData2

	case stateThreeByteData2:
		d.state = stateExpectTimestamp
		d.emitThreeByte(b & lowMask)

	case stateSysEx:
		d.parseSysEx(b)
	}
}

// resolveRecovery decides what the held 0xF7 was, using the byte after it.
// It reports whether b was consumed.
func (d *Decoder) resolveRecovery(b byte) bool {
	held := d.recovery
	d.recovery = nil

	switch {
	case b == sysExEnd:
		// timestamp 0x77 followed by the real terminator
		d.setTimestamp(b)
		d.emit(contracts.SystemExclusive{Payload: held})
		return true
	case b&statusBit == 0:
		// timestamp 0x77 in front of more SysEx data
		d.sysex = append(held[:len(held)-1], b)
		d.hasSysexTs = false
		d.state = stateSysEx
		return true
	}

	if msg, ok := realTime(b); ok {
		// timestamp 0x77 of a real-time message interleaved with the SysEx
		d.sysex = held[:len(held)-1]
		d.hasSysexTs = false
		d.state = stateSysEx
		d.setTimestamp(sysExEnd)
		d.emit(msg)
		return true
	}
	d.emit(contracts.SystemExclusive{Payload: held})
	return false
}

func (d *Decoder) parseSysEx(b byte) {
	switch {
	case b == sysExEnd:
		if d.hasSysexTs {
			d.setTimestamp(d.sysexTs)
			payload := append(d.sysex, sysExEnd)
			d.resetSysEx()
			d.state = stateExpectTimestamp
			d.emit(contracts.SystemExclusive{Payload: payload})
			return
		}
		d.recovery = append(d.sysex, sysExEnd)
		d.resetSysEx()
		d.state = stateExpectTimestamp

	case b&statusBit == 0:
		d.hasSysexTs = false
		d.sysex = append(d.sysex, b)

	case b >= 0xF8 && d.hasSysexTs:
		// real-time message interleaved with the SysEx
		d.setTimestamp(d.sysexTs)
		d.hasSysexTs = false
		if msg, ok := realTime(b); ok {
			d.emit(msg)
		}

	default:
		// timestamp of a continuation packet or of the terminator
		d.sysexTs, d.hasSysexTs = b, true
	}
}

func (d *Decoder) beginStatus(b byte) {
	switch {
	case b < 0xF0:
		d.status, d.runningStatus = b, b
		if isTwoByte(b) {
			d.state = stateTwoByteData1
		} else {
			d.state = stateThreeByteData1
		}
	case b == sysExStart:
		d.runningStatus = 0
		d.resetSysEx()
		d.sysex = []byte{sysExStart}
		d.state = stateSysEx
	case b == 0xF1 || b == 0xF3:
		d.status, d.runningStatus = b, 0
		d.state = stateTwoByteData1
	case b == 0xF2:
		d.status, d.runningStatus = b, 0
		d.state = stateThreeByteData1
	case b == 0xF6:
		d.runningStatus = 0
		d.state = stateExpectTimestamp
		d.emit(contracts.TuneRequest{})
	default:
		msg, ok := realTime(b)
		if !ok {
			d.resync("undefined status byte", b)
			return
		}
		d.state = stateExpectTimestamp
		d.emit(msg)
	}
}

// running starts a message that reuses the last channel status; b is its first data byte.
func (d *Decoder) running(b byte) {
	d.status = d.runningStatus
	if isTwoByte(d.status) {
		d.state = stateExpectTimestamp
		d.emitTwoByte(b & lowMask)
		return
	}
	d.data1 = b & lowMask
	d.state = stateThreeByteData2
}

func (d *Decoder) emitTwoByte(v byte) {
	ch := d.status & 0x0f
	switch d.status & 0xF0 {
	case 0xC0:
		d.emitChannel(ch, contracts.ProgramChange{Channel: ch, Program: v})
	case 0xD0:
		d.emitChannel(ch, contracts.ChannelAftertouch{Channel: ch, Pressure: v})
	case 0xF0:
		if d.status == 0xF1 {
			d.emit(contracts.TimeCodeQuarterFrame{Timing: v})
		} else {
			d.emit(contracts.SongSelect{Song: v})
		}
	}
}

func (d *Decoder) emitThreeByte(v byte) {
	ch := d.status & 0x0f
	switch d.status & 0xF0 {
	case 0x80:
		d.emitChannel(ch, contracts.NoteOff{Channel: ch, Note: d.data1, Velocity: v})
	case 0x90:
		if v == 0 {
			d.emitChannel(ch, contracts.NoteOff{Channel: ch, Note: d.data1, Velocity: 0})
			return
		}
		d.emitChannel(ch, contracts.NoteOn{Channel: ch, Note: d.data1, Velocity: v})
	case 0xA0:
		d.emitChannel(ch, contracts.PolyphonicAftertouch{Channel: ch, Note: d.data1, Pressure: v})
	case 0xB0:
		if msg, ok := d.params[ch].control(ch, d.data1, v); ok {
			d.emit(msg)
		}
		d.emit(contracts.ControlChange{Channel: ch, Function: d.data1, Value: v})
	case 0xE0:
		d.emitChannel(ch, contracts.PitchWheel{Channel: ch, Amount: uint16(d.data1) | uint16(v)<<7})
	case 0xF0:
		d.emit(contracts.SongPositionPointer{Position: uint16(d.data1) | uint16(v)<<7})
	}
}

// setTimestamp applies a timestamp byte and computes the delay of the next message.
func (d *Decoder) setTimestamp(b byte) {
	low := b & lowMask
	if d.lowSeen && low < d.lastLow {
		d.header = (d.header + 1) & headerHighMask
	}
	d.lastLow, d.lowSeen = low, true

	d.timestamp = uint16(d.header)<<7 | uint16(low)
	d.delay = d.timing.delay(d.timestamp, d.clock.Now())
}

// emitChannel emits a channel message after the parameter value it commits, if any.
func (d *Decoder) emitChannel(ch byte, msg contracts.Message) {
	if param, ok := d.params[ch].commit(ch); ok {
		d.emit(param)
	}
	d.emit(msg)
}

func (d *Decoder) emit(msg contracts.Message) {
	d.out = append(d.out, Decoded{Message: msg, Timestamp: d.timestamp, Delay: d.delay})
}

func (d *Decoder) resetSysEx() {
	d.sysex = nil
	d.hasSysexTs = false
}

func (d *Decoder) resync(reason string, b byte) {
	d.desyncs++
	if d.logger != nil {
		d.logger.Debug("BLE-MIDI decoder resynchronizing",
			d.logger.Field().String("reason", reason),
			d.logger.Field().Uint8("byte", b),
			d.logger.Field().String("state", d.state.String()))
	}
	d.resetSysEx()
	d.state = stateExpectTimestamp
}

func isTwoByte(status byte) bool {
	kind := status & 0xF0
	return kind == 0xC0 || kind == 0xD0
}

func realTime(b byte) (contracts.Message, bool) {
	switch b {
	case 0xF8:
		return contracts.TimingClock{}, true
	case 0xFA:
		return contracts.Start{}, true
	case 0xFB:
		return contracts.Continue{}, true
	case 0xFC:
		return contracts.Stop{}, true
	case 0xFE:
		return contracts.ActiveSensing{}, true
	case 0xFF:
		return contracts.Reset{}, true
	}
	return nil, false
}
