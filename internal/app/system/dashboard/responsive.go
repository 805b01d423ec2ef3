package dashboard

import (
	"sync"
	"time"
)

// DefaultDebounce is how long width samples must be quiet before they apply.
const DefaultDebounce = 250 * time.Millisecond

// Responsive debounces viewport width samples and applies the settled size
// class through apply, which reports whether the class actually changed.
type Responsive struct {
	mu       sync.Mutex
	debounce time.Duration
	apply    func(SizeClass) bool
	timer    *time.Timer
	pending  chan bool
}

// NewResponsive builds a debouncer. A non-positive debounce uses DefaultDebounce.
func NewResponsive(debounce time.Duration, apply func(SizeClass) bool) *Responsive {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Responsive{debounce: debounce, apply: apply}
}

// Observe records a width sample. The returned channel receives exactly one
// value: true when this sample settled and changed the size class, false when
// it was superseded by a later sample or left the class unchanged.
func (r *Responsive) Observe(width int) <-chan bool {
	class := Classify(width)
	done := make(chan bool, 1)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.supersede()
	r.pending = done
	r.timer = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		if r.pending != done {
			r.mu.Unlock()
			done <- false
			return
		}
		r.pending = nil
		r.timer = nil
		r.mu.Unlock()

		done <- r.apply(class)
	})
	return done
}

// Stop cancels any pending sample.
func (r *Responsive) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supersede()
	r.pending = nil
	r.timer = nil
}

// supersede settles the pending sample as unchanged. r.mu must be held.
// When the timer already fired, its callback sees the replaced channel and
// settles it itself.
func (r *Responsive) supersede() {
	if r.timer != nil && r.timer.Stop() && r.pending != nil {
		r.pending <- false
	}
}
