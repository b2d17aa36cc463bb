package domain

// historyCap bounds every in-memory history buffer (price points,
// valuation snapshots). Oldest entries are evicted first.
const historyCap = 1000

// ring is a fixed-capacity FIFO buffer.
// Uses head/count indexing to stay zero-alloc after warmup.
type ring[T any] struct {
	buf   []T
	head  int // next write position
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v, evicting the oldest entry when full.
func (r *ring[T]) push(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *ring[T]) len() int { return r.count }

// snapshot returns the entries in insertion order, oldest first.
func (r *ring[T]) snapshot() []T {
	out := make([]T, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
