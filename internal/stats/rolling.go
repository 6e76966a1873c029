// Package stats provides a fixed-capacity rolling window with online mean and
// variance, used by the statistical detector to score spread observations
// without recomputing over the full window on every tick.
package stats

import "math"

// Rolling is a bounded ring buffer of float64 samples maintaining running
// mean and sum of squared deviations (Welford-style), updated incrementally
// on both insertion and eviction. Not safe for concurrent use; callers
// synchronize externally.
type Rolling struct {
	buf  []float64
	head int
	n    int
	mean float64
	m2   float64 // sum of squared deviations from the mean
}

// NewRolling creates a window with the given capacity. Capacity must be > 0.
func NewRolling(capacity int) *Rolling {
	if capacity <= 0 {
		capacity = 1
	}
	return &Rolling{buf: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest when the window is full.
func (r *Rolling) Push(x float64) {
	if r.n == len(r.buf) {
		r.evict()
	}
	tail := (r.head + r.n) % len(r.buf)
	r.buf[tail] = x
	r.n++

	// Welford update for insertion.
	delta := x - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (x - r.mean)
}

// evict removes the oldest sample, reversing its contribution to the running
// moments.
func (r *Rolling) evict() {
	x := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.n--

	if r.n == 0 {
		r.mean = 0
		r.m2 = 0
		return
	}
	delta := x - r.mean
	r.mean -= delta / float64(r.n)
	r.m2 -= delta * (x - r.mean)
	if r.m2 < 0 {
		// Guard against negative drift from floating-point cancellation.
		r.m2 = 0
	}
}

// Len returns the number of samples currently in the window.
func (r *Rolling) Len() int { return r.n }

// Cap returns the window capacity.
func (r *Rolling) Cap() int { return len(r.buf) }

// Full reports whether the window has reached capacity.
func (r *Rolling) Full() bool { return r.n == len(r.buf) }

// Mean returns the arithmetic mean of the window, or 0 when empty.
func (r *Rolling) Mean() float64 { return r.mean }

// Variance returns the population variance of the window.
func (r *Rolling) Variance() float64 {
	if r.n < 2 {
		return 0
	}
	return r.m2 / float64(r.n)
}

// StdDev returns the population standard deviation of the window.
func (r *Rolling) StdDev() float64 {
	return math.Sqrt(r.Variance())
}
