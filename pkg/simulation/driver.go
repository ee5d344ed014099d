package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/tochemey/goakt/v3/log"
)

// SnapshotSink persists snapshots. Implementations may be asynchronous but
// must not keep references into the live State; they receive copies.
type SnapshotSink interface {
	WriteSnapshot(ctx context.Context, snap *Snapshot) error
	Close(ctx context.Context) error
}

// StatusSink receives progress reports.
type StatusSink interface {
	Report(ctx context.Context, p Progress) error
}

// Progress describes how far a run got.
type Progress struct {
	Step      uint64
	FinalStep uint64
	Elapsed   time.Duration // wall-clock time since the run started
	TPS       float64       // steps per second since the run started, 0 when unknown
}

// Remaining estimates the wall-clock time left. It is zero when the
// throughput is still unknown.
func (p Progress) Remaining() time.Duration {
	if p.TPS <= 0 || p.Step >= p.FinalStep {
		return 0
	}
	return time.Duration(float64(p.FinalStep-p.Step) / p.TPS * float64(time.Second))
}

type scheduled struct {
	trigger Trigger
	updater Updater
}

// Driver owns a State and runs the per-step pipeline:
// neighbor refresh, force accumulation, Brownian step, triggered updaters,
// snapshot and status triggers.
type Driver struct {
	state      *State
	forces     []ForceModel
	integrator *Brownian
	nlist      *CellList
	updaters   []scheduled

	buffer       float64
	cellSize     float64
	rebuild      Trigger
	snapTrigger  Trigger
	snapshots    SnapshotSink
	statTrigger  Trigger
	status       StatusSink
	logger       log.Logger
	clock        func() time.Time
	acc          []geometry.Vector2D
	primed       bool
	runStart     time.Time
	runStartStep uint64
	finalStep    uint64
}

// Option configures a Driver.
type Option func(*Driver)

// WithForces appends force models; their contributions are summed.
func WithForces(models ...ForceModel) Option {
	return func(d *Driver) { d.forces = append(d.forces, models...) }
}

// WithIntegrator sets the Brownian integrator.
func WithIntegrator(b *Brownian) Option {
	return func(d *Driver) { d.integrator = b }
}

// WithNeighborList sets the buffer, the cell size (0 = automatic) and how
// often the list is rebuilt regardless of displacement (0 = displacement only).
func WithNeighborList(buffer, cellSize float64, rebuildEvery uint64) Option {
	return func(d *Driver) {
		d.buffer = buffer
		d.cellSize = cellSize
		d.rebuild = NewPeriodic(rebuildEvery, 0)
	}
}

// WithUpdater runs u after the integration step whenever t fires.
func WithUpdater(t Trigger, u Updater) Option {
	return func(d *Driver) { d.updaters = append(d.updaters, scheduled{trigger: t, updater: u}) }
}

// WithSnapshots sends a snapshot to sink whenever t fires.
func WithSnapshots(t Trigger, sink SnapshotSink) Option {
	return func(d *Driver) { d.snapTrigger, d.snapshots = t, sink }
}

// WithStatus reports progress to sink whenever t fires.
func WithStatus(t Trigger, sink StatusSink) Option {
	return func(d *Driver) { d.statTrigger, d.status = t, sink }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock replaces time.Now for throughput measurement.
func WithClock(clock func() time.Time) Option {
	return func(d *Driver) { d.clock = clock }
}

// New validates the configuration against the state and builds the spatial index.
func New(state *State, opts ...Option) (*Driver, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidParameter)
	}
	d := &Driver{
		state:       state,
		rebuild:     Never{},
		snapTrigger: Never{},
		statTrigger: Never{},
		logger:      log.DiscardLogger,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.integrator == nil {
		return nil, fmt.Errorf("%w: no integrator", ErrInvalidParameter)
	}
	if err := d.integrator.Validate(); err != nil {
		return nil, err
	}

	var errs []error
	cutoff := 0.0
	for _, m := range d.forces {
		if v, ok := m.(Validator); ok {
			if err := v.Validate(state.Types); err != nil {
				errs = append(errs, err)
			}
		}
		cutoff = max(cutoff, m.Cutoff())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	nl, err := NewCellList(state.Box, cutoff, d.buffer, d.cellSize)
	if err != nil {
		return nil, err
	}
	d.nlist = nl
	d.acc = make([]geometry.Vector2D, len(state.Particles))

	nx, ny := nl.Dims()
	d.logger.Infof("driver ready: %d particles, %d force models, cutoff %.3g + buffer %.3g, %dx%d cells",
		len(state.Particles), len(d.forces), cutoff, d.buffer, nx, ny)
	return d, nil
}

// State returns the live state. Callers must treat it as read-only and must
// not keep it across calls to Run; use Snapshot for a stable copy.
func (d *Driver) State() *State {
	return d.state
}

// Snapshot returns a deep copy of the current state.
func (d *Driver) Snapshot() *Snapshot {
	return d.state.Snapshot()
}

// NeighborList exposes the spatial index of the last step.
func (d *Driver) NeighborList() *CellList {
	return d.nlist
}

// Forces returns the accumulated forces of the last step.
func (d *Driver) Forces() []geometry.Vector2D {
	return d.acc
}

// Run advances n steps. It stops early, after a complete step, when ctx is
// done, and returns the context error wrapped with the step reached. A sink
// error ends the run; the caller still owns Close for the final flush.
func (d *Driver) Run(ctx context.Context, n uint64) error {
	d.runStart = d.clock()
	d.runStartStep = d.state.Step
	d.finalStep = d.state.Step + n
	if wc, ok := d.statTrigger.(*WallClock); ok {
		wc.Reset(d.runStart)
	}

	if !d.primed {
		d.primed = true
		if err := d.emit(ctx); err != nil {
			return err
		}
	}

	for d.state.Step < d.finalStep {
		select {
		case <-ctx.Done():
			d.logger.Warnf("run interrupted at step %d of %d", d.state.Step, d.finalStep)
			return fmt.Errorf("run interrupted at step %d: %w", d.state.Step, ctx.Err())
		default:
		}

		d.step()
		if err := d.emit(ctx); err != nil {
			return err
		}
	}
	d.logger.Infof("run finished at step %d (t = %.6g)", d.state.Step, d.state.Time())
	return nil
}

// step is one pass of the pipeline.
func (d *Driver) step() {
	s := d.state
	if d.rebuild.Fire(s.Step) || d.nlist.NeedsRebuild(s.Particles) {
		d.nlist.Build(s.Particles)
	}

	clear(d.acc)
	for _, m := range d.forces {
		m.Accumulate(s, d.nlist, d.acc)
	}
	d.integrator.Step(s, d.acc)
	s.Step++

	for _, u := range d.updaters {
		if u.trigger.Fire(s.Step) {
			u.updater.Update(s)
		}
	}
}

// emit evaluates the snapshot and status triggers for the current step.
func (d *Driver) emit(ctx context.Context) error {
	step := d.state.Step
	if d.snapshots != nil && d.snapTrigger.Fire(step) {
		if err := d.snapshots.WriteSnapshot(ctx, d.state.Snapshot()); err != nil {
			return fmt.Errorf("write snapshot at step %d: %w", step, err)
		}
	}
	if d.status != nil && d.statTrigger.Fire(step) {
		if err := d.status.Report(ctx, d.Progress()); err != nil {
			return fmt.Errorf("report status at step %d: %w", step, err)
		}
	}
	return nil
}

// Progress measures the current run.
func (d *Driver) Progress() Progress {
	elapsed := d.clock().Sub(d.runStart)
	p := Progress{Step: d.state.Step, FinalStep: d.finalStep, Elapsed: elapsed}
	if secs := elapsed.Seconds(); secs > 0 {
		p.TPS = float64(d.state.Step-d.runStartStep) / secs
	}
	return p
}

// Close flushes and closes the snapshot sink.
func (d *Driver) Close(ctx context.Context) error {
	if d.snapshots == nil {
		return nil
	}
	if err := d.snapshots.Close(ctx); err != nil {
		return fmt.Errorf("close snapshots: %w", err)
	}
	return nil
}
