package sim

import "math"

const (
	DefaultHistoryCapacity = 400
	DefaultSampleInterval  = 0.02
)

// History keeps the most recent displacement samples of both buildings for
// a plot. Samples are taken at most once per interval of simulation time.
type History struct {
	capacity int
	interval float64
	next     float64
	started  bool

	times   []float64
	withTMD []float64
	noTMD   []float64
}

func NewHistory(capacity int, interval float64) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		interval: interval,
		times:    make([]float64, 0, capacity),
		withTMD:  make([]float64, 0, capacity),
		noTMD:    make([]float64, 0, capacity),
	}
}

func (h *History) OnTick(f Frame) {
	if h.started && f.Time < h.next {
		return
	}
	h.started = true
	h.next = f.Time + h.interval
	h.Add(f.Time, f.Displacement, f.ReferenceDisplacement)
}

// Add appends one sample per series, dropping the oldest at capacity.
func (h *History) Add(t, withTMD, noTMD float64) {
	if len(h.times) >= h.capacity {
		h.times = append(h.times[:0], h.times[1:]...)
		h.withTMD = append(h.withTMD[:0], h.withTMD[1:]...)
		h.noTMD = append(h.noTMD[:0], h.noTMD[1:]...)
	}
	h.times = append(h.times, t)
	h.withTMD = append(h.withTMD, withTMD)
	h.noTMD = append(h.noTMD, noTMD)
}

func (h *History) Len() int      { return len(h.times) }
func (h *History) Capacity() int { return h.capacity }

func (h *History) Times() []float64   { return clone(h.times) }
func (h *History) WithTMD() []float64 { return clone(h.withTMD) }
func (h *History) NoTMD() []float64   { return clone(h.noTMD) }

// MaxAbs is the largest magnitude across both series, or 1 when there is
// nothing to scale by.
func (h *History) MaxAbs() float64 {
	m := 0.0
	for _, v := range h.withTMD {
		m = math.Max(m, math.Abs(v))
	}
	for _, v := range h.noTMD {
		m = math.Max(m, math.Abs(v))
	}
	if m <= 0 {
		return 1
	}
	return m
}

func (h *History) Reset() {
	h.times = h.times[:0]
	h.withTMD = h.withTMD[:0]
	h.noTMD = h.noTMD[:0]
	h.started = false
	h.next = 0
}

func clone(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}
