package trajectory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrWrite reports a failure inside the writer actor.
var ErrWrite = errors.New("trajectory: asynchronous write failed")

// DefaultCloseTimeout bounds the final flush of an AsyncWriter.
const DefaultCloseTimeout = time.Minute

// firstError keeps the first failure of the writer actor where the
// sending side can see it.
type firstError struct {
	mu  sync.Mutex
	err error
}

func (f *firstError) set(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false
	}
	f.err = err
	return true
}

func (f *firstError) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// writerActor owns a Writer. Frames arrive as encoded bytes and are flushed
// one by one; an Empty request closes the file and answers with the first
// error seen, if any.
type writerActor struct {
	w      *Writer
	path   string
	failed *firstError
	closed bool
}

var _ actor.Actor = (*writerActor)(nil)

func (a *writerActor) PreStart(*actor.Context) error {
	return nil
}

func (a *writerActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("trajectory writer %s started (%s)", ctx.Self().Name(), a.path)

	case *wrapperspb.BytesValue:
		if a.closed {
			a.fail(ctx, errors.New("frame after close"))
			return
		}
		if a.failed.get() != nil {
			return
		}
		if err := a.w.WriteFrame(msg.GetValue()); err != nil {
			a.fail(ctx, err)
			return
		}
		if err := a.w.Flush(); err != nil {
			a.fail(ctx, fmt.Errorf("frame %d: %w", a.w.Frames()-1, err))
		}

	case *emptypb.Empty:
		if !a.closed {
			a.closed = true
			if err := a.w.Close(context.Background()); err != nil {
				a.failed.set(err)
			}
			ctx.Logger().Infof("trajectory %s closed after %d frames", a.path, a.w.Frames())
		}
		status := ""
		if err := a.failed.get(); err != nil {
			status = err.Error()
		}
		ctx.Response(wrapperspb.String(status))

	default:
		ctx.Unhandled()
	}
}

func (a *writerActor) fail(ctx *actor.ReceiveContext, err error) {
	if a.failed.set(err) {
		ctx.Logger().Errorf("trajectory %s: %v", a.path, err)
	}
}

func (a *writerActor) PostStop(*actor.Context) error {
	if a.closed {
		return nil
	}
	return a.w.Close(context.Background())
}

// AsyncWriter is a SnapshotSink that hands encoded frames to a writer actor
// and returns immediately. Frames are written in the order they were sent.
// Once a frame fails, every later WriteSnapshot returns ErrWrite.
type AsyncWriter struct {
	pid          *actor.PID
	failed       *firstError
	CloseTimeout time.Duration
}

var _ simulation.SnapshotSink = (*AsyncWriter)(nil)

// SpawnWriter starts a writer actor named name that owns w. label only
// appears in logs.
func SpawnWriter(ctx context.Context, system actor.ActorSystem, name, label string, w *Writer) (*AsyncWriter, error) {
	failed := new(firstError)
	pid, err := system.Spawn(ctx, name, &writerActor{w: w, path: label, failed: failed})
	if err != nil {
		return nil, fmt.Errorf("spawn trajectory writer: %w", err)
	}
	return &AsyncWriter{pid: pid, failed: failed, CloseTimeout: DefaultCloseTimeout}, nil
}

// Err returns the first write failure seen so far, wrapped in ErrWrite.
func (a *AsyncWriter) Err() error {
	if err := a.failed.get(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// WriteSnapshot encodes snap on the caller's goroutine and queues it. It
// fails without queueing once an earlier frame could not be written.
func (a *AsyncWriter) WriteSnapshot(ctx context.Context, snap *simulation.Snapshot) error {
	if err := a.Err(); err != nil {
		return fmt.Errorf("frame %d: %w", snap.Step, err)
	}
	if err := actor.Tell(ctx, a.pid, wrapperspb.Bytes(Marshal(snap))); err != nil {
		return fmt.Errorf("queue frame %d: %w", snap.Step, err)
	}
	return nil
}

// Close waits until every queued frame is written, closes the file and
// stops the actor. It returns the first write error of the whole run.
func (a *AsyncWriter) Close(ctx context.Context) error {
	resp, err := actor.Ask(ctx, a.pid, &emptypb.Empty{}, a.CloseTimeout)
	if err != nil {
		return fmt.Errorf("flush trajectory: %w", err)
	}
	if err := a.pid.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop trajectory writer: %w", err)
	}
	if s, ok := resp.(*wrapperspb.StringValue); ok && s.GetValue() != "" {
		return fmt.Errorf("%w: %s", ErrWrite, s.GetValue())
	}
	return nil
}
