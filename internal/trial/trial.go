package trial

import (
	"math/rand"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/system"
)

// ComputeFunc prices a staged selection: it runs after the perturber has
// mutated cfg and returns the finished Acceptance record. Distinct move
// classes (Move/Add/Remove/Volume/...) supply their own closure built
// from the Kind-specific functions in compute.go.
type ComputeFunc func(sys *system.System, sel Selection, eOld float64) Acceptance

// Trial bundles one selector/perturber/compute triple plus its
// attempt/success counters — the unit MonteCarlo picks between via
// weighted sampling.
//
// Grounded on the teacher's per-move bookkeeping
// (backend/internal/sampling/monte_carlo.go tracks accepted/rejected
// counts alongside the temperature schedule), generalized from a single
// fixed move type to an arbitrary Selector/Perturber/Compute triple.
type Trial struct {
	Label     string
	Weight    float64 // relative selection weight among a MonteCarlo's trials
	Selector  Selector
	Perturber Perturber
	Compute   ComputeFunc

	Attempts     int
	Accepted     int
	AutoRejected int // selector failed to produce a valid selection
}

// Attempt runs one trial: select, perturb, price, and return the
// Acceptance record plus an Undo the caller invokes on rejection. The
// caller (MonteCarlo) owns the accept/reject decision via Criterion;
// Trial only stages the proposal and counts the attempt.
func (t *Trial) Attempt(sys *system.System, cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Acceptance, Undo, bool) {
	t.Attempts++
	sel, ok := t.Selector.Select(cfg, configIdx, rng)
	if !ok {
		t.AutoRejected++
		return Acceptance{ForcedReject: true}, nil, false
	}

	eOld := sys.SelectionEnergy(configIdx, sel.Mobile)
	undo := t.Perturber.Move(cfg, &sel, sys.Beta, rng)
	acc := t.Compute(sys, sel, eOld)
	return acc, undo, true
}

// RecordOutcome tallies an attempt's accept/reject outcome and, when
// the trial's perturber carries a Tunable, feeds the adaptive-step
// controller.
func (t *Trial) RecordOutcome(accepted bool, tune *Tunable) {
	if accepted {
		t.Accepted++
	}
	if tune != nil {
		tune.Record(accepted)
	}
}

// AcceptanceRatio returns Accepted/Attempts, or 0 before the first
// attempt.
func (t *Trial) AcceptanceRatio() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Accepted) / float64(t.Attempts)
}
