package ringlog

import "errors"

// DefaultCapacity is the number of write records retained by a log.
const DefaultCapacity = 10

var (
	// ErrNotFound is returned by Locate when the offset addresses no retained byte.
	ErrNotFound = errors.New("ringlog: offset not retained")
	// ErrInvalid is returned by SeekAdjust when the record or offset is out of range.
	ErrInvalid = errors.New("ringlog: invalid record position")
)

// Entry is one complete write record. The log never copies Data.
type Entry struct {
	Data []byte
}

// Size returns the record length in bytes.
func (e Entry) Size() int { return len(e.Data) }

type slot struct {
	entry    Entry
	occupied bool
}

// RingLog is a fixed-capacity circular log of write records.
// It is not safe for concurrent use; callers serialize access.
type RingLog struct {
	slots      []slot
	writeIndex int
	readIndex  int
	full       bool
	totalSize  int
}

// New returns an empty log holding at most capacity records.
func New(capacity int) *RingLog {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &RingLog{slots: make([]slot, capacity)}
}

func (r *RingLog) next(i int) int {
	return (i + 1) % len(r.slots)
}

// Cap returns the number of slots.
func (r *RingLog) Cap() int { return len(r.slots) }

// Full reports whether every slot is occupied.
func (r *RingLog) Full() bool { return r.full }

// TotalSize returns the combined size of all retained records.
func (r *RingLog) TotalSize() int { return r.totalSize }

// Len returns the number of retained records.
func (r *RingLog) Len() int {
	if r.full {
		return len(r.slots)
	}
	return (r.writeIndex - r.readIndex + len(r.slots)) % len(r.slots)
}

// Append stores e as the newest record. When the log was full the oldest
// record is overwritten and handed back as evicted with ok set; its storage
// belongs to the caller again.
func (r *RingLog) Append(e Entry) (evicted Entry, ok bool) {
	s := &r.slots[r.writeIndex]
	if r.full {
		evicted, ok = s.entry, true
		r.totalSize -= evicted.Size()
		r.readIndex = r.next(r.readIndex)
	}

	s.entry = e
	s.occupied = true
	r.totalSize += e.Size()
	r.writeIndex = r.next(r.writeIndex)
	r.full = r.writeIndex == r.readIndex
	return evicted, ok
}

// At returns the record at ordinal, counted from the oldest retained record.
func (r *RingLog) At(ordinal int) (Entry, bool) {
	if ordinal < 0 || ordinal >= r.Len() {
		return Entry{}, false
	}
	s := r.slots[(r.readIndex+ordinal)%len(r.slots)]
	if !s.occupied {
		return Entry{}, false
	}
	return s.entry, true
}

// Each calls fn for every retained record, oldest first, until fn returns false.
func (r *RingLog) Each(fn func(ordinal int, e Entry) bool) {
	n := r.Len()
	for i, idx := 0, r.readIndex; i < n; i, idx = i+1, r.next(idx) {
		if !fn(i, r.slots[idx].entry) {
			return
		}
	}
}

// Locate maps a byte offset into the concatenation of retained records to
// the record holding it and the offset inside that record.
func (r *RingLog) Locate(charOffset int) (Entry, int, error) {
	if charOffset < 0 || charOffset >= r.totalSize {
		return Entry{}, 0, ErrNotFound
	}

	remaining := charOffset
	n := r.Len()
	for i, idx := 0, r.readIndex; i < n; i, idx = i+1, r.next(idx) {
		s := r.slots[idx]
		if !s.occupied {
			break
		}
		if remaining < s.entry.Size() {
			return s.entry, remaining, nil
		}
		remaining -= s.entry.Size()
	}
	return Entry{}, 0, ErrNotFound
}

// SeekAdjust converts a (record ordinal, offset in record) pair into the flat
// offset Locate expects. Ordinal 0 is the oldest retained record.
func (r *RingLog) SeekAdjust(entryIndex, byteOffset int) (int, error) {
	if entryIndex < 0 || byteOffset < 0 || entryIndex >= r.Len() {
		return 0, ErrInvalid
	}

	flat := 0
	idx := r.readIndex
	for i := 0; i < entryIndex; i++ {
		s := r.slots[idx]
		if !s.occupied {
			return 0, ErrInvalid
		}
		flat += s.entry.Size()
		idx = r.next(idx)
	}

	target := r.slots[idx]
	if !target.occupied || byteOffset >= target.entry.Size() {
		return 0, ErrInvalid
	}
	return flat + byteOffset, nil
}

// Drain empties the log and returns every retained record, oldest first,
// so the caller can release their storage.
func (r *RingLog) Drain() []Entry {
	out := make([]Entry, 0, r.Len())
	r.Each(func(_ int, e Entry) bool {
		out = append(out, e)
		return true
	})
	for i := range r.slots {
		r.slots[i] = slot{}
	}
	r.writeIndex, r.readIndex = 0, 0
	r.full = false
	r.totalSize = 0
	return out
}
