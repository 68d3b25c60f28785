package accumulator

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

const (
	// DefaultTerminator ends a record unless configured otherwise.
	DefaultTerminator = '\n'
	// DefaultMaxPending caps one record, terminator included.
	DefaultMaxPending = 64 * 1024
)

// ErrRecordTooLarge reports a record that grew past the pending limit. The
// record is dropped up to and including its terminator.
var ErrRecordTooLarge = errors.New("accumulator: pending record exceeds limit")

// Accumulator joins write fragments into terminator-delimited records.
// It is not safe for concurrent use.
type Accumulator struct {
	terminator byte
	maxPending int
	pending    []byte
	discarding bool // swallowing the rest of an oversized record
	pool       sync.Pool
}

// New returns an accumulator cutting records at terminator. A maxPending of
// zero disables the size limit.
func New(terminator byte, maxPending int) *Accumulator {
	if maxPending < 0 {
		maxPending = 0
	}
	return &Accumulator{
		terminator: terminator,
		maxPending: maxPending,
	}
}

// Write buffers p and returns every record completed by it. Each record
// ends with the terminator and owns its storage. A record exceeding the
// limit is dropped whole and reported with ErrRecordTooLarge; records after
// it in p are still returned.
func (a *Accumulator) Write(p []byte) ([][]byte, error) {
	var (
		records [][]byte
		dropErr error
	)
	for len(p) > 0 {
		i := bytes.IndexByte(p, a.terminator)
		if a.discarding {
			if i < 0 {
				break
			}
			a.discarding = false
			p = p[i+1:]
			continue
		}

		if i < 0 {
			if err := a.buffer(p); err != nil {
				a.discarding = true
				dropErr = err
			}
			break
		}

		if err := a.buffer(p[:i+1]); err != nil {
			dropErr = err
		} else {
			records = append(records, a.take())
		}
		p = p[i+1:]
	}
	return records, dropErr
}

// buffer appends p to the pending record. On overflow the pending bytes are
// dropped and an error is returned.
func (a *Accumulator) buffer(p []byte) error {
	if a.maxPending > 0 && len(a.pending)+len(p) > a.maxPending {
		size := len(a.pending) + len(p)
		a.pending = a.pending[:0]
		return fmt.Errorf("%w: %d > %d bytes", ErrRecordTooLarge, size, a.maxPending)
	}
	a.pending = append(a.pending, p...)
	return nil
}

// take moves the pending bytes into an exactly sized record.
func (a *Accumulator) take() []byte {
	n := len(a.pending)
	rec := a.alloc(n)
	copy(rec, a.pending)
	a.pending = a.pending[:0]
	return rec
}

func (a *Accumulator) alloc(n int) []byte {
	if v := a.pool.Get(); v != nil {
		buf := *(v.(*[]byte))
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]byte, n)
}

// Release hands the storage of a record that left the log back for reuse.
// The caller must not touch rec afterwards.
func (a *Accumulator) Release(rec []byte) {
	if cap(rec) == 0 {
		return
	}
	rec = rec[:0]
	a.pool.Put(&rec)
}

// Pending returns the number of buffered bytes not yet part of a record.
func (a *Accumulator) Pending() int { return len(a.pending) }

// Reset drops any buffered partial record, including one being discarded.
func (a *Accumulator) Reset() {
	a.pending = a.pending[:0]
	a.discarding = false
}

// Terminator returns the byte that ends a record.
func (a *Accumulator) Terminator() byte { return a.terminator }
