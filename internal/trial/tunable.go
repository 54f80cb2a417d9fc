package trial

import "github.com/sarat-asymmetrica/fhmc/internal/domain"

// Tunable is a per-perturber adaptive step size: translate's Δ,
// rotate's angle, volume's ΔV. Every WindowSize attempts it rescales
// toward Target acceptance, clamped to [Min, Max].
//
// Grounded on the teacher's adaptive step-size controller
// (backend/internal/optimization/gentle_relaxation.go: step shrinks on
// rejection runs, grows on acceptance runs), generalized to a windowed
// acceptance-ratio rule rather than a streak counter.
type Tunable struct {
	Value  float64
	Min    float64
	Max    float64
	Target float64 // desired acceptance ratio, e.g. 0.5

	WindowSize int
	attempts   int
	accepted   int
}

// NewTunable returns a Tunable seeded at value, bounded to [min,max],
// targeting the given acceptance ratio over windowSize-attempt windows.
func NewTunable(value, min, max, target float64, windowSize int) *Tunable {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &Tunable{Value: value, Min: min, Max: max, Target: target, WindowSize: windowSize}
}

// Record tallies one attempt's outcome and, once WindowSize attempts
// have accumulated, rescales Value and resets the window.
func (t *Tunable) Record(accepted bool) {
	t.attempts++
	if accepted {
		t.accepted++
	}
	if t.attempts < t.WindowSize {
		return
	}
	ratio := float64(t.accepted) / float64(t.attempts)
	scale := 1.0
	switch {
	case ratio > t.Target:
		scale = 1.05
	case ratio < t.Target:
		scale = 0.95
	}
	t.Value *= scale
	if t.Value < t.Min {
		t.Value = t.Min
	}
	if t.Value > t.Max {
		t.Value = t.Max
	}
	t.attempts, t.accepted = 0, 0
}

// TranslateBounds returns the [min,max] spec.md §4.6 requires for a
// translate tunable: at least 2*NearZero, at most half the box's
// smallest periodic dimension.
func TranslateBounds(box *domain.Box) (min, max float64) {
	return 2 * domain.NearZero, 0.5 * box.MinDimension()
}
