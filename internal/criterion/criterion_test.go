package criterion

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

func TestMetropolisAcceptsDownhillMove(t *testing.T) {
	m := NewMetropolis(0)
	rng := rand.New(rand.NewSource(1))
	d := m.Decide(trial.Acceptance{LnMetropolisProb: 1.0, DeltaEnergy: -2.0}, rng)
	require.True(t, d.Accept)
	m.OnAccept(trial.Acceptance{DeltaEnergy: -2.0})
	assert.Equal(t, -2.0, m.CurrentEnergy())
}

func TestMetropolisForcedRejectAlwaysRejects(t *testing.T) {
	m := NewMetropolis(0)
	rng := rand.New(rand.NewSource(1))
	d := m.Decide(trial.Acceptance{LnMetropolisProb: 100, ForcedReject: true}, rng)
	require.False(t, d.Accept)
}

func TestMetropolisRespectsConstraint(t *testing.T) {
	m := &Metropolis{
		Constraints: []Constraint{NumParticleRange{Min: 0, Max: 10}},
		Macrostate:  func() int { return 10 },
	}
	rng := rand.New(rand.NewSource(1))
	d := m.Decide(trial.Acceptance{LnMetropolisProb: 10, MacrostateShift: 1}, rng)
	require.False(t, d.Accept, "moving to N=11 should be forbidden by NumParticleRange{0,10}")
}

func TestNumEqualForbidsMismatch(t *testing.T) {
	c := NumEqual{Value: 5}
	assert.False(t, c.Forbids(5))
	assert.True(t, c.Forbids(6))
}

func TestNumHalfToleranceWindow(t *testing.T) {
	c := NumHalf{Total: 20, Tolerance: 1}
	assert.False(t, c.Forbids(10))
	assert.False(t, c.Forbids(11))
	assert.True(t, c.Forbids(13))
}

func TestHistogramBinAndSoftWindow(t *testing.T) {
	h := NewHistogram(0, 10)
	h.SoftMin, h.SoftMax = 2, 8
	assert.Equal(t, 0, h.Bin(0))
	assert.Equal(t, 5, h.Bin(5))
	assert.Equal(t, -1, h.Bin(11))
	assert.True(t, h.InSoftWindow(5))
	assert.False(t, h.InSoftWindow(9))
}

func TestWangLandauHalvesFAndCountsFlatness(t *testing.T) {
	h := NewHistogram(0, 2)
	wl := NewWangLandau(h, 1)
	wl.MinVisitPerMacro = 1
	wl.UpdatesPerFlatCheck = 6

	// Each pass lands once on bins 0, 1 and 2, so every flatness check
	// (every 6 updates = 2 passes) sees a perfectly flat histogram.
	for i := 0; i < 6; i++ {
		wl.Update(1, 0, 0, true)
		wl.Update(0, 1, 0, true)
		wl.Update(1, 2, 0, true)
	}
	assert.Less(t, wl.F, 1.0, "F should have been reduced after a flat pass")
	assert.Equal(t, 3, wl.FlatnessCount())
}

func TestTransitionMatrixRebuildsSymmetricLnPi(t *testing.T) {
	h := NewHistogram(0, 2)
	tm := NewTransitionMatrix(h, 1)
	tm.UpdatesPerRebuild = 1
	tm.MinVisitPerDirection = 0

	for i := 0; i < 50; i++ {
		tm.Update(0, 1, 0, true)
		tm.Update(1, 0, 0, true)
		tm.Update(1, 2, 0, true)
		tm.Update(2, 1, 0, true)
	}
	assert.InDelta(t, tm.LnProbability(0), tm.LnProbability(2), 0.5,
		"symmetric up/down transition rates should yield a roughly symmetric lnpi profile")
}

func TestTransitionMatrixResetsVisitCountsAfterEachSweep(t *testing.T) {
	h := NewHistogram(0, 2)
	tm := NewTransitionMatrix(h, 2)
	tm.UpdatesPerRebuild = 1
	tm.MinVisitPerDirection = 1

	sweep := func() {
		tm.Update(0, 1, 0, true)
		tm.Update(1, 0, 0, true)
		tm.Update(1, 2, 0, true)
		tm.Update(2, 1, 0, true)
	}

	sweep()
	require.Equal(t, 1, tm.sweeps, "a full up/down traversal of every bin should count as one sweep")
	assert.Equal(t, []int{0, 0, 0}, tm.visitedUp, "visit counters must reset so the next sweep starts from a clean pass")
	assert.Equal(t, []int{0, 0, 0}, tm.visitedDown)
	assert.False(t, tm.Complete(), "target is 2 sweeps, only 1 has completed")

	// Without resetting, stale counts from the first sweep would let a
	// sweep be declared complete with no further bin visits at all.
	assert.False(t, tm.isSweepComplete())

	sweep()
	assert.Equal(t, 2, tm.sweeps)
	assert.True(t, tm.Complete())
}

func TestCrossoverSwitchesFromWangLandauToTransitionMatrix(t *testing.T) {
	h := NewHistogram(0, 2)
	wl := NewWangLandau(h, 10)
	tm := NewTransitionMatrix(h, 10)
	cx := NewCrossover(wl, tm, 0.5, 0.1)

	require.False(t, cx.switched)
	wl.F = 0.05
	cx.Update(0, 1, 0, true)
	assert.True(t, cx.switched)
	assert.Equal(t, "transition_matrix", func() string {
		if cx.switched {
			return tm.Name()
		}
		return wl.Name()
	}())
}

func TestLnProbabilityReweightShiftsLinearlyInMacrostate(t *testing.T) {
	p := LnProbability{Min: 0, Values: []float64{0, -1, -4}}
	shifted := p.Reweight(1.0)
	assert.InDelta(t, 0.0, shifted.Values[2]-shifted.Values[0], 1e-9+2.0, "reweighting by +1 per particle should flatten a downward-sloping curve toward N=2")
}

func TestLnProbabilityPhaseBoundaryFindsCentralMinimum(t *testing.T) {
	p := LnProbability{Min: 0, Values: []float64{0, -3, 0}}
	assert.Equal(t, 1, p.PhaseBoundary())
}

func TestLnProbabilityPhaseBoundaryNoneWhenMonotonic(t *testing.T) {
	p := LnProbability{Min: 0, Values: []float64{0, -1, -2, -3}}
	assert.Equal(t, -1, p.PhaseBoundary())
}

func TestFlatHistogramRejectsOutsideSoftWindow(t *testing.T) {
	h := NewHistogram(0, 10)
	h.SoftMin, h.SoftMax = 0, 5
	wl := NewWangLandau(h, 10)
	n := 5
	fh := NewFlatHistogram(h, wl, func() int { return n }, 0)

	rng := rand.New(rand.NewSource(1))
	d := fh.Decide(trial.Acceptance{LnMetropolisProb: 10, MacrostateShift: 1}, rng)
	require.False(t, d.Accept, "moving past SoftMax should be rejected regardless of ln_metropolis_prob")
}

func TestFlatHistogramAcceptsWithinWindowOnDownhillBias(t *testing.T) {
	h := NewHistogram(0, 10)
	wl := NewWangLandau(h, 10)
	n := 3
	fh := NewFlatHistogram(h, wl, func() int { return n }, 0)

	rng := rand.New(rand.NewSource(2))
	d := fh.Decide(trial.Acceptance{LnMetropolisProb: 5, MacrostateShift: 1}, rng)
	require.True(t, d.Accept)
}
