package criterion

import (
	"math"
	"strconv"
)

// WangLandau implements the classic Wang-Landau flat-histogram bias:
// per-bin visit counter h[b] and log-probability lnpi[b], a modification
// factor f that halves every time the histogram is judged flat, and a
// flatness counter the caller compares against a target N_flat for
// completion.
//
// Grounded on original_source/plugin/flat_histogram/wang_landau.h: the
// defaults below (initial f=1.0, flatness threshold 0.8, reduce factor
// 0.5, min visits per macrostate 1000, flatness check every 100
// updates) are taken directly from that header's constructor docstring,
// matching spec.md §4.8.
type WangLandau struct {
	Hist *Histogram

	F                   float64
	ReduceFactor        float64
	FlatnessThreshold   float64
	MinVisitPerMacro    int
	UpdatesPerFlatCheck int
	TargetFlatness      int

	lnpi            []float64
	updatesSinceCheck int
	flatnessCount   int
}

// NewWangLandau seeds a Wang-Landau bias with FEASST's documented
// defaults over hist, completing after targetFlatness flatness events.
func NewWangLandau(hist *Histogram, targetFlatness int) *WangLandau {
	return &WangLandau{
		Hist:                hist,
		F:                   1.0,
		ReduceFactor:        0.5,
		FlatnessThreshold:   0.8,
		MinVisitPerMacro:    1000,
		UpdatesPerFlatCheck: 100,
		TargetFlatness:      targetFlatness,
		lnpi:                make([]float64, hist.NumBins()),
	}
}

func (w *WangLandau) Name() string { return "wang_landau" }

func (w *WangLandau) LnProbability(bin int) float64 {
	if bin < 0 || bin >= len(w.lnpi) {
		return math.Inf(-1)
	}
	return w.lnpi[bin]
}

func (w *WangLandau) Update(binOld, binNew int, lnMetropolisProb float64, accepted bool) {
	target := binOld
	if accepted {
		target = binNew
	}
	if target >= 0 && target < len(w.lnpi) {
		w.lnpi[target] += w.F
		w.Hist.visits[target]++
	}

	w.updatesSinceCheck++
	if w.updatesSinceCheck < w.UpdatesPerFlatCheck {
		return
	}
	w.updatesSinceCheck = 0
	if w.Hist.MinMeanVisitRatio() >= w.FlatnessThreshold && w.Hist.MinVisits() >= w.MinVisitPerMacro {
		w.F *= w.ReduceFactor
		w.Hist.ResetVisits()
		w.flatnessCount++
	}
}

func (w *WangLandau) Complete() bool {
	return w.flatnessCount >= w.TargetFlatness
}

// FlatnessCount returns how many times the histogram has been judged
// flat so far.
func (w *WangLandau) FlatnessCount() int { return w.flatnessCount }

func (w *WangLandau) WritePerBin() [][]string {
	rows := make([][]string, len(w.lnpi))
	for b, v := range w.lnpi {
		rows[b] = []string{
			strconv.Itoa(b + w.Hist.Min),
			strconv.FormatFloat(v, 'g', -1, 64),
			strconv.Itoa(w.Hist.visits[b]),
		}
	}
	return rows
}
