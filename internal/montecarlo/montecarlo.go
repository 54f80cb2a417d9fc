// Package montecarlo implements the driver: it owns the System, the
// Criterion, the weighted collection of Trials, the stepper factories,
// the shared Random source, and an optional Checkpoint hook, and runs
// the single-threaded, strictly sequential trial loop spec.md §5
// requires.
//
// Grounded on backend/internal/sampling/monte_carlo.go's top-level loop
// shape (config struct -> per-step propose/evaluate/accept/track-best),
// generalized from a single hard-coded Metropolis+Vedic score into
// Criterion-driven dispatch over a weighted Trial collection.
package montecarlo

import (
	"math/rand"

	"github.com/mroth/weightedrand"

	"github.com/sarat-asymmetrica/fhmc/internal/criterion"
	"github.com/sarat-asymmetrica/fhmc/internal/stepper"
	"github.com/sarat-asymmetrica/fhmc/internal/system"
	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

// Checkpoint is implemented by whatever persists/restores a run's full
// state (internal/io's checkpoint dispatch).
type Checkpoint interface {
	Save() error
	Load() error
}

// MonteCarlo is the single-threaded driver: one System, one Criterion,
// a weighted Trial collection, a stepper Factory, an owned *rand.Rand
// shared by every trial as a borrowed mutable reference (spec.md §5:
// "there is no locking because access is serial"), and an optional
// Checkpoint.
type MonteCarlo struct {
	Sys       *system.System
	Criterion criterion.Criterion
	Trials    []*trial.Trial
	Steppers  *stepper.Factory
	Rand      *rand.Rand
	Checkpoint Checkpoint

	ConfigIdx  int
	Phase      int
	Macrostate func() int

	chooser *weightedrand.Chooser

	terminate  bool
	trialCount int
}

// New builds a MonteCarlo over sys/crit/trials sharing rng, with
// steppers (may be nil for a factory-less bare loop).
func New(sys *system.System, crit criterion.Criterion, trials []*trial.Trial, steppers *stepper.Factory, rng *rand.Rand) (*MonteCarlo, error) {
	mc := &MonteCarlo{Sys: sys, Criterion: crit, Trials: trials, Steppers: steppers, Rand: rng}
	if err := mc.rebuildChooser(); err != nil {
		return nil, err
	}
	return mc, nil
}

// rebuildChooser re-derives the weighted-sampling Chooser from the
// current per-trial Weight fields; call after RemoveTrial or any
// runtime weight change.
func (mc *MonteCarlo) rebuildChooser() error {
	choices := make([]weightedrand.Choice, 0, len(mc.Trials))
	for _, t := range mc.Trials {
		w := uint(t.Weight * 1000)
		if w == 0 {
			w = 1
		}
		choices = append(choices, weightedrand.NewChoice(t, w))
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return err
	}
	mc.chooser = chooser
	return nil
}

// RemoveTrial drops the trial at index idx and re-derives the weighted
// chooser — the `RemoveTrial` directive of spec.md §6.
func (mc *MonteCarlo) RemoveTrial(idx int) error {
	mc.Trials = append(mc.Trials[:idx], mc.Trials[idx+1:]...)
	return mc.rebuildChooser()
}

// Terminate reports whether a stepper has requested the run end.
func (mc *MonteCarlo) Terminate() bool { return mc.terminate }

// Run executes up to maxTrials attempts, stopping early if a stepper
// sets Terminate. Each iteration: pick a trial by weight, stage it,
// decide via Criterion, finalize or revert, tally outcomes, then drive
// every stepper exactly once (spec.md §5: "stepper updates observe
// trial k's committed state before trial k+1 begins").
func (mc *MonteCarlo) Run(maxTrials int) error {
	for i := 0; i < maxTrials && !mc.terminate; i++ {
		if err := mc.step(); err != nil {
			return err
		}
	}
	return nil
}

func (mc *MonteCarlo) step() error {
	picked := mc.chooser.PickSource(mc.Rand).(*trial.Trial)
	cfg := mc.Sys.Configs[mc.ConfigIdx]

	acc, undo, staged := picked.Attempt(mc.Sys, cfg, mc.ConfigIdx, mc.Rand)
	if !staged {
		picked.RecordOutcome(false, nil)
		mc.afterTrial()
		return nil
	}

	decision := mc.Criterion.Decide(acc, mc.Rand)
	if decision.Accept {
		mc.Sys.Finalize(mc.ConfigIdx, acc.DeltaEnergy)
		mc.Criterion.OnAccept(acc)
	} else if undo != nil {
		undo()
		mc.Sys.Revert(mc.ConfigIdx)
	}
	picked.RecordOutcome(decision.Accept, nil)
	mc.afterTrial()
	return nil
}

func (mc *MonteCarlo) afterTrial() {
	mc.trialCount++
	if mc.Steppers == nil {
		return
	}
	ctx := &stepper.Context{
		Sys:        mc.Sys,
		ConfigIdx:  mc.ConfigIdx,
		Phase:      mc.Phase,
		TrialIndex: mc.trialCount,
		Macrostate: mc.Macrostate,
		Terminate:  &mc.terminate,
	}
	mc.Steppers.OnTrial(ctx)
}
