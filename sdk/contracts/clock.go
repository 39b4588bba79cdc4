package contracts

import "time"

// Clock is the time source used for timestamp generation and delayed delivery.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Alarm returns a channel that receives once the clock reaches t, and a cancel
	// function that releases the alarm and reports whether it was still pending.
	// If t is not after Now the channel is ready immediately.
	Alarm(t time.Time) (<-chan time.Time, func() bool)
}
