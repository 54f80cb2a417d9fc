package criterion

import "math"

// LnProbability is a finished lnπ(b) curve detached from a live bias —
// a snapshot a stepper can reweight or scan for phase boundaries
// without perturbing the running simulation's bias state.
//
// Grounded on original_source/plugin/flat_histogram/include/ensemble.h
// (Ensemble/GrandCanonicalEnsemble): Reweight and PhaseBoundary are
// carried over as the concrete operations spec.md's LnProbability
// section names ("reweighting", "minima detection for phase-boundary
// identification").
type LnProbability struct {
	Min    int
	Values []float64 // Values[b] is lnpi for macrostate Min+b
}

// Snapshot captures a Bias's current lnπ curve over hist's range.
func Snapshot(hist *Histogram, bias Bias) LnProbability {
	values := make([]float64, hist.NumBins())
	for b := range values {
		values[b] = bias.LnProbability(b)
	}
	return LnProbability{Min: hist.Min, Values: values}
}

// Reweight returns a new curve under a shifted conjugate variable
// (e.g. Δ(βμ) for a grand-canonical ensemble): lnπ'(N) = lnπ(N) +
// N·Δconjugate, renormalized so its maximum is zero.
//
// Grounded on Ensemble::reweight in ensemble.h: shifting the grand
// potential's chemical-potential term is linear in the macrostate, so
// it can be applied to an already-converged lnπ curve without rerunning
// the simulation.
func (p LnProbability) Reweight(deltaConjugate float64) LnProbability {
	out := LnProbability{Min: p.Min, Values: make([]float64, len(p.Values))}
	for b, v := range p.Values {
		n := float64(p.Min + b)
		out.Values[b] = v + n*deltaConjugate
	}
	return out.normalize()
}

func (p LnProbability) normalize() LnProbability {
	if len(p.Values) == 0 {
		return p
	}
	max := p.Values[0]
	for _, v := range p.Values {
		if v > max {
			max = v
		}
	}
	out := LnProbability{Min: p.Min, Values: make([]float64, len(p.Values))}
	for b, v := range p.Values {
		out.Values[b] = v - max
	}
	return out
}

// PhaseBoundary scans for a local minimum of lnπ strictly between two
// local maxima — the standard signature of a two-phase coexistence
// macrostate split (a vapor branch and a liquid branch separated by a
// free-energy barrier) — and returns its bin index, or -1 if the curve
// has no such minimum.
func (p LnProbability) PhaseBoundary() int {
	best := -1
	bestDepth := math.Inf(-1)
	for b := 1; b < len(p.Values)-1; b++ {
		if p.Values[b] >= p.Values[b-1] || p.Values[b] >= p.Values[b+1] {
			continue
		}
		leftMax := maxBefore(p.Values, b)
		rightMax := maxAfter(p.Values, b)
		depth := math.Min(leftMax, rightMax) - p.Values[b]
		if depth > bestDepth {
			bestDepth = depth
			best = b
		}
	}
	return best
}

func maxBefore(v []float64, idx int) float64 {
	max := math.Inf(-1)
	for i := 0; i < idx; i++ {
		if v[i] > max {
			max = v[i]
		}
	}
	return max
}

func maxAfter(v []float64, idx int) float64 {
	max := math.Inf(-1)
	for i := idx + 1; i < len(v); i++ {
		if v[i] > max {
			max = v[i]
		}
	}
	return max
}
