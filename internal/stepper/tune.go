package stepper

import "github.com/sarat-asymmetrica/fhmc/internal/trial"

// TunedTrial pairs a Trial with the Tunable step size its perturber
// exposes (translate's Δ, rotate's angle, volume's ΔV).
type TunedTrial struct {
	Trial   *trial.Trial
	Tunable *trial.Tunable
}

// Tune periodically rescales every paired perturber's step size toward
// its target acceptance ratio, using the Trial's own cumulative
// Attempts/Accepted counters rather than Tunable's internal window —
// this lets a single Tune stepper govern many trials on one phase-gated
// cadence, then freeze by leaving its gate's StopAfterPhase behind.
//
// Grounded on backend/internal/optimization/gentle_relaxation.go's
// adaptive step-size controller, at the granularity spec.md §4.9 names
// (a stepper, not an inline per-move rescale).
type Tune struct {
	Base
	Pairs []TunedTrial

	lastAttempts []int
	lastAccepted []int
}

// NewTune returns a Tune stepper firing every trialsPerUpdate attempts
// over the given trial/tunable pairs.
func NewTune(trialsPerUpdate int, pairs []TunedTrial) *Tune {
	return &Tune{
		Base:         Base{Name: "Tune", TrialsPerUpdate: trialsPerUpdate},
		Pairs:        pairs,
		lastAttempts: make([]int, len(pairs)),
		lastAccepted: make([]int, len(pairs)),
	}
}

func (t *Tune) StepperName() string { return t.Name }

func (t *Tune) OnTrial(ctx *Context) ([][]string, bool) {
	update, _ := t.Tick(ctx.Phase)
	if !update {
		return nil, false
	}
	for i, p := range t.Pairs {
		attempts := p.Trial.Attempts - t.lastAttempts[i]
		accepted := p.Trial.Accepted - t.lastAccepted[i]
		t.lastAttempts[i] = p.Trial.Attempts
		t.lastAccepted[i] = p.Trial.Accepted
		if attempts == 0 {
			continue
		}
		ratio := float64(accepted) / float64(attempts)
		rescale(p.Tunable, ratio)
	}
	return nil, false
}

// rescale nudges v.Value multiplicatively toward v.Target, clamped to
// [Min, Max]. A ratio above target grows the step (too conservative);
// below target shrinks it (too aggressive).
func rescale(v *trial.Tunable, ratio float64) {
	factor := 1.0
	switch {
	case ratio > v.Target:
		factor = 1.0 + (ratio-v.Target)
	case ratio < v.Target:
		factor = 1.0 / (1.0 + (v.Target - ratio))
	default:
		return
	}
	next := v.Value * factor
	if next < v.Min {
		next = v.Min
	}
	if next > v.Max {
		next = v.Max
	}
	v.Value = next
}
