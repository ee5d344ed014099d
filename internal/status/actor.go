package status

import (
	"context"
	"fmt"
	"time"

	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct packs a progress report into an actor message.
func ToStruct(p simulation.Progress) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"step":      structpb.NewNumberValue(float64(p.Step)),
		"finalStep": structpb.NewNumberValue(float64(p.FinalStep)),
		"elapsed":   structpb.NewNumberValue(p.Elapsed.Seconds()),
		"tps":       structpb.NewNumberValue(p.TPS),
	}}
}

// FromStruct is the inverse of ToStruct. Missing fields read as zero.
func FromStruct(s *structpb.Struct) simulation.Progress {
	num := func(k string) float64 { return s.GetFields()[k].GetNumberValue() }
	return simulation.Progress{
		Step:      uint64(num("step")),
		FinalStep: uint64(num("finalStep")),
		Elapsed:   time.Duration(num("elapsed") * float64(time.Second)),
		TPS:       num("tps"),
	}
}

// reporterActor logs progress lines off the simulation goroutine.
type reporterActor struct{}

var _ actor.Actor = (*reporterActor)(nil)

func (r *reporterActor) PreStart(*actor.Context) error {
	return nil
}

func (r *reporterActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Debugf("status reporter %s started", ctx.Self().Name())
	case *structpb.Struct:
		ctx.Logger().Info(Format(FromStruct(msg)))
	default:
		ctx.Unhandled()
	}
}

func (r *reporterActor) PostStop(*actor.Context) error {
	return nil
}

// AsyncReporter is a StatusSink backed by a reporter actor; Report never blocks
// on the logger.
type AsyncReporter struct {
	pid *actor.PID
}

var _ simulation.StatusSink = (*AsyncReporter)(nil)

// SpawnReporter starts the reporter actor.
func SpawnReporter(ctx context.Context, system actor.ActorSystem, name string) (*AsyncReporter, error) {
	pid, err := system.Spawn(ctx, name, &reporterActor{})
	if err != nil {
		return nil, fmt.Errorf("spawn status reporter: %w", err)
	}
	return &AsyncReporter{pid: pid}, nil
}

func (a *AsyncReporter) Report(ctx context.Context, p simulation.Progress) error {
	if err := actor.Tell(ctx, a.pid, ToStruct(p)); err != nil {
		return fmt.Errorf("queue status: %w", err)
	}
	return nil
}

// Stop shuts the reporter down.
func (a *AsyncReporter) Stop(ctx context.Context) error {
	return a.pid.Shutdown(ctx)
}
