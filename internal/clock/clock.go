// Package clock provides the system clock and a manually advanced clock for tests.
package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// System is the wall clock.
type System struct{}

// NewSystem returns the wall clock.
func NewSystem() contracts.Clock { return System{} }

func (System) Now() time.Time { return time.Now() }

func (System) Alarm(t time.Time) (<-chan time.Time, func() bool) {
	timer := time.NewTimer(time.Until(t))
	return timer.C, timer.Stop
}

// Fake is a clock that only moves when Advance is called.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	alarms []alarm
}

type alarm struct {
	at time.Time
	ch chan time.Time
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Alarm(t time.Time) (<-chan time.Time, func() bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if !t.After(f.now) {
		ch <- f.now
		return ch, func() bool { return false }
	}
	f.alarms = append(f.alarms, alarm{at: t, ch: ch})
	return ch, func() bool { return f.cancel(ch) }
}

func (f *Fake) cancel(ch chan time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, a := range f.alarms {
		if a.ch == ch {
			f.alarms = append(f.alarms[:i], f.alarms[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by d and fires every alarm that became due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
	sort.Slice(f.alarms, func(i, j int) bool { return f.alarms[i].at.Before(f.alarms[j].at) })

	pending := f.alarms[:0]
	for _, a := range f.alarms {
		if a.at.After(f.now) {
			pending = append(pending, a)
			continue
		}
		a.ch <- f.now
	}
	f.alarms = pending
}

// Pending returns the number of alarms that have not fired yet.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alarms)
}
