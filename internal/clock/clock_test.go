package clock

import (
	"testing"
	"time"
)

func TestFakeAlarm(t *testing.T) {
	start := time.Unix(1000, 0)
	clk := NewFake(start)

	due, _ := clk.Alarm(start.Add(10 * time.Millisecond))
	past, _ := clk.Alarm(start)

	select {
	case <-past:
	default:
		t.Fatal("alarm at Now() did not fire immediately")
	}

	clk.Advance(9 * time.Millisecond)
	select {
	case <-due:
		t.Fatal("alarm fired early")
	default:
	}
	if got := clk.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}

	clk.Advance(time.Millisecond)
	select {
	case at := <-due:
		if want := start.Add(10 * time.Millisecond); !at.Equal(want) {
			t.Errorf("alarm time = %v, want %v", at, want)
		}
	default:
		t.Fatal("alarm did not fire when due")
	}
	if got := clk.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
}

func TestFakeAlarmCancel(t *testing.T) {
	start := time.Unix(1000, 0)
	clk := NewFake(start)

	due, cancel := clk.Alarm(start.Add(10 * time.Millisecond))
	_, keep := clk.Alarm(start.Add(20 * time.Millisecond))
	if !cancel() {
		t.Fatal("cancel() = false for a pending alarm")
	}
	if cancel() {
		t.Error("second cancel() = true")
	}
	if got := clk.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}

	clk.Advance(time.Second)
	select {
	case <-due:
		t.Error("cancelled alarm fired")
	default:
	}
	if keep() {
		t.Error("cancel() = true for an alarm that already fired")
	}
	if _, cancel := clk.Alarm(start); cancel() {
		t.Error("cancel() = true for an alarm that was due immediately")
	}
}

func TestSystemAlarm(t *testing.T) {
	clk := NewSystem()

	past, _ := clk.Alarm(clk.Now().Add(-time.Second))
	select {
	case <-past:
	case <-time.After(time.Second):
		t.Fatal("past alarm did not fire")
	}

	future, cancel := clk.Alarm(clk.Now().Add(time.Hour))
	if !cancel() {
		t.Fatal("cancel() = false for a pending alarm")
	}
	select {
	case <-future:
		t.Error("cancelled alarm fired")
	case <-time.After(20 * time.Millisecond):
	}
}
