package criterion

import (
	"math"
	"math/rand"

	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

// FlatHistogram is the flat-histogram criterion: it folds a Bias's
// lnπ(b) estimate into the plain Metropolis ratio and auto-rejects any
// attempt that would cross outside the Histogram's soft window.
//
// Grounded on original_source/plugin/flat_histogram/src/criteria_
// flat_histogram.cpp per spec.md §4.8: "compute b_old/b_new; reject if
// either falls outside the soft window; otherwise decide via
// ln_metropolis_prob + (lnπ(b_old) - lnπ(b_new)); always call
// Bias.Update after the attempt."
type FlatHistogram struct {
	Hist       *Histogram
	Bias       Bias
	Macrostate MacrostateFunc

	energy float64
}

// NewFlatHistogram pairs a Histogram and Bias sharing the same
// macrostate range, seeded with the system's known starting energy.
func NewFlatHistogram(hist *Histogram, bias Bias, macrostate MacrostateFunc, initialEnergy float64) *FlatHistogram {
	return &FlatHistogram{Hist: hist, Bias: bias, Macrostate: macrostate, energy: initialEnergy}
}

func (f *FlatHistogram) CurrentEnergy() float64 { return f.energy }

func (f *FlatHistogram) Decide(acc trial.Acceptance, rng *rand.Rand) Decision {
	current := f.Macrostate()
	next := current + acc.MacrostateShift

	if acc.ForcedReject || !f.Hist.InSoftWindow(current) || !f.Hist.InSoftWindow(next) {
		f.update(current, current, acc.LnMetropolisProb, false)
		return Decision{Accept: false}
	}

	bOld := f.Hist.Bin(current)
	bNew := f.Hist.Bin(next)
	lnProb := acc.LnMetropolisProb + f.Bias.LnProbability(bOld) - f.Bias.LnProbability(bNew)

	accept := lnProb >= 0 || rng.Float64() < math.Exp(lnProb)
	f.update(current, next, acc.LnMetropolisProb, accept)
	return Decision{Accept: accept}
}

func (f *FlatHistogram) update(current, next int, lnMetropolisProb float64, accepted bool) {
	bOld := f.Hist.Bin(current)
	bNew := f.Hist.Bin(next)
	if !accepted {
		bNew = bOld
	}
	f.Hist.Visit(current)
	f.Bias.Update(bOld, bNew, lnMetropolisProb, accepted)
}

func (f *FlatHistogram) OnAccept(acc trial.Acceptance) {
	f.energy += acc.DeltaEnergy
}

// Complete reports whether the underlying bias has converged.
func (f *FlatHistogram) Complete() bool { return f.Bias.Complete() }
