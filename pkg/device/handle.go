package device

import (
	"errors"
	"fmt"
	"io"

	"github.com/downfa11-org/aesdchar/pkg/metrics"
	"github.com/downfa11-org/aesdchar/pkg/ringlog"
	"github.com/downfa11-org/aesdchar/util"
)

// Handle is one open view of a Device with its own file position.
// Position updates happen under the device lock.
type Handle struct {
	dev    *Device
	id     string
	pos    int64
	closed bool
}

var _ io.ReadWriteSeeker = (*Handle)(nil)

func (h *Handle) ID() string { return h.id }

func (h *Handle) lock() error {
	h.dev.mu.Lock()
	if h.closed || h.dev.closed {
		h.dev.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// Write feeds p to the device. Every record completed by p is appended to
// the log; a trailing fragment stays pending until its terminator arrives.
func (h *Handle) Write(p []byte) (int, error) {
	if err := h.lock(); err != nil {
		return 0, err
	}
	defer h.dev.mu.Unlock()

	if err := h.dev.write(p); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// Read returns bytes of the record at the current position. A read never
// spans two records and a short buffer truncates the copy.
func (h *Handle) Read(p []byte) (int, error) {
	if err := h.lock(); err != nil {
		return 0, err
	}
	defer h.dev.mu.Unlock()

	if len(p) == 0 {
		return 0, nil
	}
	n, err := h.dev.read(p, h.pos)
	if errors.Is(err, ringlog.ErrNotFound) {
		return 0, io.EOF
	}
	h.pos += int64(n)
	return n, err
}

// Seek sets the position relative to the start, the current position or the
// end of the retained data. Positions outside [0, total size] are rejected.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if err := h.lock(); err != nil {
		return 0, err
	}
	defer h.dev.mu.Unlock()

	total := int64(h.dev.log.TotalSize())
	var newpos int64
	switch whence {
	case io.SeekStart:
		newpos = offset
	case io.SeekCurrent:
		newpos = h.pos + offset
	case io.SeekEnd:
		newpos = total + offset
	default:
		metrics.SeekErrors.WithLabelValues("seek").Inc()
		return h.pos, fmt.Errorf("%w: whence %d", ErrInvalidSeek, whence)
	}

	if newpos < 0 || newpos > total {
		metrics.SeekErrors.WithLabelValues("seek").Inc()
		return h.pos, fmt.Errorf("%w: position %d outside [0, %d]", ErrInvalidSeek, newpos, total)
	}
	h.pos = newpos
	return newpos, nil
}

// SeekTo moves the position to byte off of the cmd-th retained write,
// counting from the oldest. On error the position is left unchanged.
func (h *Handle) SeekTo(cmd, off int) error {
	if err := h.lock(); err != nil {
		return err
	}
	defer h.dev.mu.Unlock()

	pos, err := h.dev.seekTo(cmd, off)
	if err != nil {
		return err
	}
	h.pos = pos
	util.Debug("%s: handle %s seek to record %d offset %d (pos %d)", h.dev.name, h.id, cmd, off, pos)
	return nil
}

// Position returns the current file position.
func (h *Handle) Position() int64 {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	return h.pos
}

func (h *Handle) Close() error {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.dev.handles--
	util.Debug("%s: release handle %s", h.dev.name, h.id)
	return nil
}
