package simulation

import "time"

// Trigger decides, once per step, whether an action runs. Each trigger owns
// its own "last fired" bookkeeping; nothing is shared between triggers.
type Trigger interface {
	Fire(step uint64) bool
}

// Periodic fires on every step that is a multiple of Every past Phase.
// Every == 0 never fires. A step fires at most once.
type Periodic struct {
	Every uint64
	Phase uint64

	last  uint64
	fired bool
}

// NewPeriodic fires at Phase, Phase+every, Phase+2·every, ...
func NewPeriodic(every, phase uint64) *Periodic {
	return &Periodic{Every: every, Phase: phase}
}

func (p *Periodic) Fire(step uint64) bool {
	if p.Every == 0 || step < p.Phase || (step-p.Phase)%p.Every != 0 {
		return false
	}
	if p.fired && p.last == step {
		return false
	}
	p.last, p.fired = step, true
	return true
}

// Last returns the last step the trigger fired on.
func (p *Periodic) Last() (uint64, bool) {
	return p.last, p.fired
}

// WallClock fires when at least Interval of wall-clock time passed since it
// last fired (or since it was created).
type WallClock struct {
	Interval time.Duration

	now  func() time.Time
	last time.Time
}

// NewWallClock starts the interval at construction time. A nil clock uses time.Now.
func NewWallClock(interval time.Duration, clock func() time.Time) *WallClock {
	if clock == nil {
		clock = time.Now
	}
	return &WallClock{Interval: interval, now: clock, last: clock()}
}

func (w *WallClock) Fire(uint64) bool {
	if w.Interval <= 0 {
		return false
	}
	t := w.now()
	if t.Sub(w.last) < w.Interval {
		return false
	}
	w.last = t
	return true
}

// Reset restarts the interval from t.
func (w *WallClock) Reset(t time.Time) {
	w.last = t
}

// Never is a trigger that never fires.
type Never struct{}

func (Never) Fire(uint64) bool { return false }
