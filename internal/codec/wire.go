// Package codec implements the BLE-MIDI packet format: a Decoder that turns
// notification payloads into timed MIDI messages and an Encoder that frames
// messages into MTU-limited packets.
package codec

import "time"

// TimestampPeriod is the size of the 13-bit BLE-MIDI timestamp space.
const TimestampPeriod = 8192

const (
	tickUnit     = time.Millisecond
	jitterBuffer = 10 * tickUnit
	pauseWindow  = TimestampPeriod * tickUnit

	// untrustedStreak consecutive zero timestamps mark a peer that never fills them in.
	untrustedStreak = 3

	headerHighMask = 0x3f
	lowMask        = 0x7f
	statusBit      = 0x80

	sysExStart = 0xF0
	sysExEnd   = 0xF7

	// collidingLow is the timestamp low part that would serialize as 0xF7.
	collidingLow = sysExEnd & lowMask
)

// Tick returns the BLE-MIDI timestamp of t.
func Tick(t time.Time) uint16 {
	return uint16(uint64(t.UnixMilli()) % TimestampPeriod)
}

func headerByte(ts uint16) byte {
	return statusBit | byte(ts>>7)&headerHighMask
}

// timestampByte never returns 0xF7 so the only 0xF7 on the wire is a SysEx terminator.
func timestampByte(ts uint16) byte {
	low := byte(ts) & lowMask
	if low == collidingLow {
		low--
	}
	return statusBit | low
}
