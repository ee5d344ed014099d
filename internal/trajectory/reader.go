package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrame bounds a single frame so a corrupt length cannot exhaust memory.
const maxFrame = 1 << 30

// maxVarintLen is the longest encoding of a frame length.
const maxVarintLen = 10

// Reader iterates over the frames of a trajectory stream.
type Reader struct {
	br    *bufio.Reader
	frame int
	buf   []byte
}

// NewReader checks the header of r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("%w: missing header: %v", ErrCorrupt, err)
	}
	if string(head) != magic {
		return nil, fmt.Errorf("%w: bad header %q", ErrCorrupt, head)
	}
	return &Reader{br: br}, nil
}

// Next decodes the next frame. It returns io.EOF after the last frame.
func (r *Reader) Next() (*simulation.Snapshot, error) {
	head, err := r.br.Peek(maxVarintLen)
	if len(head) == 0 {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: frame %d length: %v", ErrCorrupt, r.frame, err)
	}
	size, n := protowire.ConsumeVarint(head)
	if n < 0 {
		return nil, fmt.Errorf("%w: frame %d length: %v", ErrCorrupt, r.frame, protowire.ParseError(n))
	}
	if _, err := r.br.Discard(n); err != nil {
		return nil, fmt.Errorf("%w: frame %d length: %v", ErrCorrupt, r.frame, err)
	}
	if size > maxFrame {
		return nil, fmt.Errorf("%w: frame %d claims %d bytes", ErrCorrupt, r.frame, size)
	}
	if cap(r.buf) < int(size) {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	if _, err := io.ReadFull(r.br, r.buf); err != nil {
		return nil, fmt.Errorf("%w: frame %d truncated: %v", ErrCorrupt, r.frame, err)
	}
	snap, err := Unmarshal(r.buf)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", r.frame, err)
	}
	r.frame++
	return snap, nil
}

// ReadAll decodes every remaining frame.
func (r *Reader) ReadAll() ([]*simulation.Snapshot, error) {
	var frames []*simulation.Snapshot
	for {
		snap, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, snap)
	}
}

// ReadFile loads a whole trajectory file.
func ReadFile(path string) ([]*simulation.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	frames, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}

// ReadFirst loads only the first frame of a trajectory file, typically an
// initial condition.
func ReadFirst(path string) (*simulation.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	snap, err := r.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w: no frames", path, ErrCorrupt)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
