package criterion

import (
	"math"
	"strconv"
)

// TransitionMatrix implements the collection-matrix flat-histogram
// bias: per-bin transition counts C[b][d] for d in {-1,0,+1}, rebuilt
// into lnπ via the detailed-balance recursion lnπ(b+1) = lnπ(b) +
// ln(C[b][+1]/C[b+1][-1]) every UpdatesPerRebuild attempts.
//
// Grounded on original_source/plugin/flat_histogram (the collection
// matrix recursion named in spec.md §4.8); sweep-completion ("every bin
// visited in both directions at least M times") follows the same
// source's sweep definition.
type TransitionMatrix struct {
	Hist *Histogram

	UpdatesPerRebuild int
	MinVisitPerDirection int
	TargetSweeps      int

	collection        [][3]float64 // index 0=-1,1=0,2=+1
	lnpi              []float64
	visitedUp         []int
	visitedDown       []int
	updatesSinceBuild int
	sweeps            int
}

// NewTransitionMatrix seeds a transition-matrix bias over hist,
// completing after targetSweeps full sweeps.
func NewTransitionMatrix(hist *Histogram, targetSweeps int) *TransitionMatrix {
	n := hist.NumBins()
	return &TransitionMatrix{
		Hist:                 hist,
		UpdatesPerRebuild:    100,
		MinVisitPerDirection: 100,
		TargetSweeps:         targetSweeps,
		collection:           make([][3]float64, n),
		lnpi:                 make([]float64, n),
		visitedUp:            make([]int, n),
		visitedDown:          make([]int, n),
	}
}

func (tm *TransitionMatrix) Name() string { return "transition_matrix" }

func (tm *TransitionMatrix) LnProbability(bin int) float64 {
	if bin < 0 || bin >= len(tm.lnpi) {
		return math.Inf(-1)
	}
	return tm.lnpi[bin]
}

func direction(binOld, binNew int) int {
	switch {
	case binNew > binOld:
		return 2
	case binNew < binOld:
		return 0
	default:
		return 1
	}
}

func (tm *TransitionMatrix) Update(binOld, binNew int, lnMetropolisProb float64, accepted bool) {
	if binOld < 0 || binOld >= len(tm.collection) {
		return
	}
	pAccept := math.Min(1, math.Exp(lnMetropolisProb))
	if accepted {
		d := direction(binOld, binNew)
		tm.collection[binOld][d] += pAccept
		if binNew == binOld+1 {
			tm.visitedUp[binOld]++
		} else if binNew == binOld-1 {
			tm.visitedDown[binOld]++
		}
	} else {
		tm.collection[binOld][1] += 1 - pAccept
	}
	tm.Hist.visits[binOld]++

	tm.updatesSinceBuild++
	if tm.updatesSinceBuild >= tm.UpdatesPerRebuild {
		tm.updatesSinceBuild = 0
		tm.rebuild()
		if tm.isSweepComplete() {
			tm.sweeps++
			for b := range tm.visitedUp {
				tm.visitedUp[b] = 0
				tm.visitedDown[b] = 0
			}
		}
	}
}

func (tm *TransitionMatrix) rebuild() {
	tm.lnpi[0] = 0
	for b := 0; b < len(tm.lnpi)-1; b++ {
		up := tm.collection[b][2]
		down := tm.collection[b+1][0]
		if up <= 0 || down <= 0 {
			tm.lnpi[b+1] = tm.lnpi[b]
			continue
		}
		tm.lnpi[b+1] = tm.lnpi[b] + math.Log(up/down)
	}
}

func (tm *TransitionMatrix) isSweepComplete() bool {
	for b := range tm.visitedUp {
		if tm.visitedUp[b] < tm.MinVisitPerDirection && b < len(tm.visitedUp)-1 {
			return false
		}
		if tm.visitedDown[b] < tm.MinVisitPerDirection && b > 0 {
			return false
		}
	}
	return true
}

// InfrequentUpdate forces an out-of-band lnπ rebuild, independent of
// UpdatesPerRebuild's automatic cadence — the hook a CriteriaUpdater
// stepper drives.
func (tm *TransitionMatrix) InfrequentUpdate() { tm.rebuild() }

func (tm *TransitionMatrix) Complete() bool {
	return tm.sweeps >= tm.TargetSweeps
}

func (tm *TransitionMatrix) WritePerBin() [][]string {
	rows := make([][]string, len(tm.lnpi))
	for b, v := range tm.lnpi {
		rows[b] = []string{
			strconv.Itoa(b + tm.Hist.Min),
			strconv.FormatFloat(v, 'g', -1, 64),
			strconv.Itoa(tm.Hist.visits[b]),
		}
	}
	return rows
}
