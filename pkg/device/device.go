package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/downfa11-org/aesdchar/pkg/accumulator"
	"github.com/downfa11-org/aesdchar/pkg/metrics"
	"github.com/downfa11-org/aesdchar/pkg/ringlog"
	"github.com/downfa11-org/aesdchar/util"
	"github.com/google/uuid"
)

var (
	ErrClosed      = errors.New("device: closed")
	ErrInvalidSeek = errors.New("device: invalid seek")
)

// Options configure a Device. Terminator is used as given, so the zero
// value cuts records at NUL bytes.
type Options struct {
	Name          string
	MaxWriteOps   int
	Terminator    byte
	MaxRecordSize int
}

// Stats is a point-in-time view of the device.
type Stats struct {
	Retained     int
	TotalSize    int
	Capacity     int
	Full         bool
	PendingBytes int
	OpenHandles  int
}

// Device serializes every access to one record log. Partial writes from all
// handles share a single accumulator, as they did on the character device.
type Device struct {
	name string

	mu      sync.Mutex // guards everything below
	log     *ringlog.RingLog
	acc     *accumulator.Accumulator
	handles int
	closed  bool
}

func New(opts Options) *Device {
	if opts.Name == "" {
		opts.Name = "aesdchar"
	}
	return &Device{
		name: opts.Name,
		log:  ringlog.New(opts.MaxWriteOps),
		acc:  accumulator.New(opts.Terminator, opts.MaxRecordSize),
	}
}

func (d *Device) Name() string { return d.name }

// Open returns a new handle positioned at the start of the log.
func (d *Device) Open() (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	d.handles++
	h := &Handle{dev: d, id: uuid.New().String()}
	util.Debug("%s: open handle %s (%d open)", d.name, h.id, d.handles)
	return h, nil
}

// write must be called with d.mu held.
func (d *Device) write(p []byte) error {
	records, err := d.acc.Write(p)
	for _, rec := range records {
		evicted, ok := d.log.Append(ringlog.Entry{Data: rec})
		metrics.ObserveAppend(len(rec), ok)
		if ok {
			util.Debug("%s: evicted %d byte record", d.name, evicted.Size())
			d.acc.Release(evicted.Data)
		}
	}
	if errors.Is(err, accumulator.ErrRecordTooLarge) {
		metrics.DroppedRecords.Inc()
	}
	metrics.ObserveLog(d.log.Len(), d.log.TotalSize(), d.acc.Pending())
	return err
}

// read copies from the record holding pos, never crossing into the next
// record. Must be called with d.mu held.
func (d *Device) read(p []byte, pos int64) (int, error) {
	e, off, err := d.log.Locate(int(pos))
	if err != nil {
		return 0, err
	}
	n := copy(p, e.Data[off:])
	metrics.BytesRead.Add(float64(n))
	return n, nil
}

// seekTo must be called with d.mu held.
func (d *Device) seekTo(cmd, off int) (int64, error) {
	flat, err := d.log.SeekAdjust(cmd, off)
	if err != nil {
		metrics.SeekErrors.WithLabelValues("seekto").Inc()
		return 0, fmt.Errorf("%w: record %d offset %d: %w", ErrInvalidSeek, cmd, off, err)
	}
	return int64(flat), nil
}

// Snapshot returns a copy of every retained record, oldest first.
func (d *Device) Snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, 0, d.log.TotalSize())
	d.log.Each(func(_ int, e ringlog.Entry) bool {
		out = append(out, e.Data...)
		return true
	})
	return out
}

func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Stats{
		Retained:     d.log.Len(),
		TotalSize:    d.log.TotalSize(),
		Capacity:     d.log.Cap(),
		Full:         d.log.Full(),
		PendingBytes: d.acc.Pending(),
		OpenHandles:  d.handles,
	}
}

// Close releases every retained record. Further opens and handle calls fail
// with ErrClosed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	drained := d.log.Drain()
	for _, e := range drained {
		d.acc.Release(e.Data)
	}
	d.acc.Reset()
	metrics.ObserveLog(0, 0, 0)
	util.Info("%s: closed, released %d records", d.name, len(drained))
	return nil
}
