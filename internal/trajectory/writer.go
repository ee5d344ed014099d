package trajectory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"google.golang.org/protobuf/encoding/protowire"
)

// magic opens every trajectory file.
const magic = "CRWDTRJ1"

// Writer appends frames to a trajectory stream. It is not safe for
// concurrent use; AsyncWriter serializes access through an actor.
type Writer struct {
	bw     *bufio.Writer
	closer io.Closer
	frames int
	lenBuf []byte
}

var _ simulation.SnapshotSink = (*Writer)(nil)

// Create truncates path and starts a new trajectory in it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trajectory: %w", err)
	}
	w, err := newWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter starts a trajectory on w. Closing the Writer flushes but does
// not close w.
func NewWriter(w io.Writer) (*Writer, error) {
	return newWriter(w, nil)
}

func newWriter(w io.Writer, c io.Closer) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 1<<16)
	if _, err := bw.WriteString(magic); err != nil {
		return nil, fmt.Errorf("write trajectory header: %w", err)
	}
	return &Writer{bw: bw, closer: c}, nil
}

// WriteSnapshot encodes and appends one frame.
func (w *Writer) WriteSnapshot(_ context.Context, snap *simulation.Snapshot) error {
	return w.WriteFrame(Marshal(snap))
}

// WriteFrame appends an already encoded frame.
func (w *Writer) WriteFrame(frame []byte) error {
	w.lenBuf = protowire.AppendVarint(w.lenBuf[:0], uint64(len(frame)))
	if _, err := w.bw.Write(w.lenBuf); err != nil {
		return fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	if _, err := w.bw.Write(frame); err != nil {
		return fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames returns how many frames were appended.
func (w *Writer) Frames() int {
	return w.frames
}

// Flush pushes buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush trajectory: %w", err)
	}
	return nil
}

// Close flushes and, for files opened by Create, closes the file.
func (w *Writer) Close(context.Context) error {
	err := w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close trajectory: %w", cerr)
		}
		w.closer = nil
	}
	return err
}
