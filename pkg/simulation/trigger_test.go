package simulation

import (
	"testing"
	"time"
)

func TestPeriodic_Fire(t *testing.T) {
	tests := []struct {
		name  string
		trig  *Periodic
		steps []uint64
		want  []bool
	}{
		{"every 3", NewPeriodic(3, 0), []uint64{0, 1, 2, 3, 4, 6}, []bool{true, false, false, true, false, true}},
		{"phase 2", NewPeriodic(5, 2), []uint64{0, 2, 5, 7, 12}, []bool{false, true, false, true, true}},
		{"disabled", NewPeriodic(0, 0), []uint64{0, 1, 10}, []bool{false, false, false}},
		{"same step fires once", NewPeriodic(1, 0), []uint64{4, 4, 5}, []bool{true, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, step := range tt.steps {
				if got := tt.trig.Fire(step); got != tt.want[i] {
					t.Errorf("Fire(%d) = %v; want %v", step, got, tt.want[i])
				}
			}
		})
	}
}

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestWallClock_Fire(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	w := NewWallClock(5*time.Second, clock.now)

	if w.Fire(0) {
		t.Error("fired before the interval elapsed")
	}
	clock.advance(4 * time.Second)
	if w.Fire(1) {
		t.Error("fired after 4s with a 5s interval")
	}
	clock.advance(time.Second)
	if !w.Fire(2) {
		t.Error("did not fire after 5s")
	}
	if w.Fire(3) {
		t.Error("fired twice without time passing")
	}
	clock.advance(5 * time.Second)
	if !w.Fire(4) {
		t.Error("did not fire after another 5s")
	}
}

func TestWallClock_Independent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	a := NewWallClock(time.Second, clock.now)
	b := NewWallClock(time.Second, clock.now)

	clock.advance(time.Second)
	if !a.Fire(0) {
		t.Fatal("a did not fire")
	}
	if !b.Fire(0) {
		t.Error("b must keep its own last-fired time")
	}
}
