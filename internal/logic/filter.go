package logic

import "sort"

// Filter reduces a stream of raw readings to one stable value per tick.
// It keeps the most recent N readings (N odd) and reports their median,
// which rejects single-sample spikes that a mean would smear across ticks.
type Filter struct {
	window []int
	next   int
	seeded bool
}

// NewFilter creates a median filter over a window of the given size.
// Even sizes are rounded up to the next odd size so the median is always
// a real sample, never an interpolation.
func NewFilter(size int) *Filter {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	return &Filter{window: make([]int, size)}
}

// Push adds a raw reading to the window. The first reading seeds the whole
// window so Value is defined before N readings have arrived.
func (f *Filter) Push(reading int) {
	if !f.seeded {
		f.Seed(reading)
		return
	}
	f.window[f.next] = reading
	f.next = (f.next + 1) % len(f.window)
}

// Seed fills the entire window with the given value. Called with the
// calibrated baseline after startup calibration so the first post-calibration
// ticks compare against ambient rather than whatever the settle phase left.
func (f *Filter) Seed(value int) {
	for i := range f.window {
		f.window[i] = value
	}
	f.seeded = true
}

// Value returns the median of the current window.
func (f *Filter) Value() int {
	if !f.seeded {
		return 0
	}
	sorted := make([]int, len(f.window))
	copy(sorted, f.window)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

// Size returns the window size.
func (f *Filter) Size() int {
	return len(f.window)
}
