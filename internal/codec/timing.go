package codec

import (
	"math"
	"time"
)

// timing reconstructs delivery delays from peer timestamps.
type timing struct {
	started    bool
	last       uint16
	lastAt     time.Time
	zeroStreak uint8
	trusted    bool
}

// delay records ts as received at now and returns how long delivery should wait.
func (t *timing) delay(ts uint16, now time.Time) time.Duration {
	elapsed := now.Sub(t.lastAt)
	fresh := !t.started || elapsed > pauseWindow
	if fresh && t.started {
		t.zeroStreak = 0
	}

	if ts == 0 {
		if t.zeroStreak < math.MaxUint8 {
			t.zeroStreak++
		}
		if t.zeroStreak >= untrustedStreak {
			t.trusted = false
		}
	} else {
		t.zeroStreak = 0
	}

	last := t.last
	t.started, t.last, t.lastAt = true, ts, now
	if fresh || ts == 0 || !t.trusted {
		return 0
	}

	unwrapped := int64(ts)
	if ts < last {
		unwrapped += TimestampPeriod
	}
	d := jitterBuffer + time.Duration(unwrapped-int64(last))*tickUnit - elapsed
	if d <= 0 {
		return 0
	}
	return d
}
