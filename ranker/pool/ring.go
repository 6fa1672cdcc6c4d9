package pool

// HistoryCap bounds every trailing sequence kept per entity.
const HistoryCap = 5

// Ring is a fixed-capacity FIFO. Pushing onto a full ring evicts the oldest item.
type Ring[T any] struct {
	buf   []T
	start int
	n     int
}

func NewRing[T any](capacity int) Ring[T] {
	if capacity <= 0 {
		capacity = HistoryCap
	}
	return Ring[T]{buf: make([]T, capacity)}
}

func (r *Ring[T]) Len() int { return r.n }

func (r *Ring[T]) lazyInit() {
	if r.buf == nil {
		r.buf = make([]T, HistoryCap)
	}
}

// Push appends v as the newest item. When the ring was full the evicted
// oldest item is returned with ok=true.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	r.lazyInit()
	if r.n == len(r.buf) {
		evicted = r.buf[r.start]
		r.buf[r.start] = v
		r.start = (r.start + 1) % len(r.buf)
		return evicted, true
	}
	r.buf[(r.start+r.n)%len(r.buf)] = v
	r.n++
	return evicted, false
}

// PopNewest removes and returns the newest item.
func (r *Ring[T]) PopNewest() (v T, ok bool) {
	if r.n == 0 {
		return v, false
	}
	i := (r.start + r.n - 1) % len(r.buf)
	v = r.buf[i]
	var zero T
	r.buf[i] = zero
	r.n--
	return v, true
}

// PushOldest puts v back in front of the oldest item. It is the inverse of an
// eviction and fails when the ring is full.
func (r *Ring[T]) PushOldest(v T) bool {
	r.lazyInit()
	if r.n == len(r.buf) {
		return false
	}
	r.start = (r.start - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.start] = v
	r.n++
	return true
}

// At returns the i-th item, 0 being the oldest.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("pool: ring index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

func (r *Ring[T]) Oldest() (v T, ok bool) {
	if r.n == 0 {
		return v, false
	}
	return r.At(0), true
}

// Items copies the contents oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.n)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Clone returns an independent copy.
func (r *Ring[T]) Clone() Ring[T] {
	if r.buf == nil {
		return Ring[T]{}
	}
	cp := Ring[T]{buf: make([]T, len(r.buf)), start: r.start, n: r.n}
	copy(cp.buf, r.buf)
	return cp
}
