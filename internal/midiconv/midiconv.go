// Package midiconv converts between raw MIDI byte streams, gomidi messages and the
// message model used by BLE-MIDI sessions.
package midiconv

import (
	"fmt"

	"github.com/leandrodaf/blemidi/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// Parse splits a raw MIDI byte stream, as delivered by a local MIDI port, into
// messages. Running status is honored and real-time bytes may appear anywhere,
// including inside other messages. Incomplete messages, stray data bytes and
// undefined status bytes are skipped.
func Parse(raw []byte) []contracts.Message {
	var (
		out     []contracts.Message
		status  byte
		running byte
		data    []byte
		sysex   []byte
	)

	for _, b := range raw {
		switch {
		case b >= 0xF8:
			if msg, ok := fromStatus(b); ok {
				out = append(out, msg)
			}

		case sysex != nil && b&0x80 == 0:
			sysex = append(sysex, b)

		case b == 0xF7:
			if sysex != nil {
				out = append(out, contracts.SystemExclusive{Payload: append(sysex, b)})
			}
			sysex, status = nil, 0

		case b&0x80 != 0:
			sysex, data, status = nil, data[:0], 0
			if b < 0xF0 {
				running = b
			} else {
				running = 0
			}

			switch n := DataLength(b); {
			case b == 0xF0:
				sysex = []byte{0xF0}
			case n == 0:
				if msg, ok := fromStatus(b); ok {
					out = append(out, msg)
				}
			case n > 0:
				status = b
			}

		default:
			if status == 0 {
				if running == 0 {
					continue
				}
				status = running
			}
			data = append(data, b)
			if len(data) == DataLength(status) {
				if msg, ok := fromBytes(status, data); ok {
					out = append(out, msg)
				}
				data, status = data[:0], 0
			}
		}
	}
	return out
}

// DataLength returns the number of data bytes following status, or -1 when status
// starts a SysEx or is undefined.
func DataLength(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	case 0xC0, 0xD0:
		return 1
	}
	switch status {
	case 0xF1, 0xF3:
		return 1
	case 0xF2:
		return 2
	case 0xF6:
		return 0
	}
	return -1
}

func fromBytes(status byte, data []byte) (contracts.Message, bool) {
	ch := status & 0x0F
	switch status & 0xF0 {
	case 0x80:
		return contracts.NoteOff{Channel: ch, Note: data[0], Velocity: data[1]}, true
	case 0x90:
		return contracts.NoteOn{Channel: ch, Note: data[0], Velocity: data[1]}, true
	case 0xA0:
		return contracts.PolyphonicAftertouch{Channel: ch, Note: data[0], Pressure: data[1]}, true
	case 0xB0:
		return contracts.ControlChange{Channel: ch, Function: data[0], Value: data[1]}, true
	case 0xC0:
		return contracts.ProgramChange{Channel: ch, Program: data[0]}, true
	case 0xD0:
		return contracts.ChannelAftertouch{Channel: ch, Pressure: data[0]}, true
	case 0xE0:
		return contracts.PitchWheel{Channel: ch, Amount: uint16(data[0]) | uint16(data[1])<<7}, true
	}
	switch status {
	case 0xF1:
		return contracts.TimeCodeQuarterFrame{Timing: data[0]}, true
	case 0xF2:
		return contracts.SongPositionPointer{Position: uint16(data[0]) | uint16(data[1])<<7}, true
	case 0xF3:
		return contracts.SongSelect{Song: data[0]}, true
	}
	return nil, false
}

func fromStatus(status byte) (contracts.Message, bool) {
	switch status {
	case 0xF6:
		return contracts.TuneRequest{}, true
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

// ToGomidi converts msg into a gomidi message. RPN and NRPN have no single gomidi
// message and report false.
func ToGomidi(msg contracts.Message) (midi.Message, bool) {
	switch m := msg.(type) {
	case contracts.NoteOff:
		return midi.NoteOffVelocity(m.Channel, m.Note, m.Velocity), true
	case contracts.NoteOn:
		return midi.NoteOn(m.Channel, m.Note, m.Velocity), true
	case contracts.PolyphonicAftertouch:
		return midi.PolyAfterTouch(m.Channel, m.Note, m.Pressure), true
	case contracts.ControlChange:
		return midi.ControlChange(m.Channel, m.Function, m.Value), true
	case contracts.ProgramChange:
		return midi.ProgramChange(m.Channel, m.Program), true
	case contracts.ChannelAftertouch:
		return midi.AfterTouch(m.Channel, m.Pressure), true
	case contracts.PitchWheel:
		return midi.Pitchbend(m.Channel, int16(m.Amount)-8192), true
	case contracts.TimeCodeQuarterFrame:
		return midi.MTC(m.Timing), true
	case contracts.SongSelect:
		return midi.SongSelect(m.Song), true
	case contracts.SongPositionPointer:
		return midi.SPP(m.Position), true
	case contracts.TuneRequest:
		return midi.Tune(), true
	case contracts.TimingClock:
		return midi.TimingClock(), true
	case contracts.Start:
		return midi.Start(), true
	case contracts.Continue:
		return midi.Continue(), true
	case contracts.Stop:
		return midi.Stop(), true
	case contracts.ActiveSensing:
		return midi.Activesense(), true
	case contracts.Reset:
		return midi.Reset(), true
	case contracts.SystemExclusive:
		if len(m.Payload) < 2 {
			return nil, false
		}
		return midi.SysEx(m.Payload[1 : len(m.Payload)-1]), true
	}
	return nil, false
}

// Describe renders msg for humans.
func Describe(msg contracts.Message) string {
	switch m := msg.(type) {
	case contracts.RPN:
		return fmt.Sprintf("RPN channel: %d function: %d value: %d", m.Channel, m.Function, m.Value)
	case contracts.NRPN:
		return fmt.Sprintf("NRPN channel: %d function: %d value: %d", m.Channel, m.Function, m.Value)
	}
	if gm, ok := ToGomidi(msg); ok {
		return gm.String()
	}
	return fmt.Sprintf("%v", msg)
}
