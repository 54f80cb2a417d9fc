package trial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAcceptanceTableFormulas exercises every row of spec.md §4.7's ln
// chi table directly against its closed-form expectation, independent
// of whether a given driver wires the row through a Trial.
func TestAcceptanceTableFormulas(t *testing.T) {
	t.Run("Move", func(t *testing.T) {
		acc := Move(2.0, 10.0, 8.0, 1.0, 1.0)
		assert.Equal(t, KindMove, acc.Kind)
		assert.InDelta(t, -2.0*(8.0-10.0), acc.LnMetropolisProb, 1e-12)
		assert.Equal(t, -2.0, acc.DeltaEnergy)
	})

	t.Run("Move with Rosenbluth weight ratio", func(t *testing.T) {
		acc := Move(1.0, 0, 0, 2.0, 8.0)
		assert.InDelta(t, math.Log(8.0/2.0), acc.LnMetropolisProb, 1e-12)
	})

	t.Run("ComputeAdd", func(t *testing.T) {
		beta, eOld, eNew, vol, n, mu := 1.5, 3.0, 1.0, 1000.0, 7, -2.0
		acc := ComputeAdd(beta, eOld, eNew, vol, n, mu, 1, 1)
		want := -beta*(eNew-eOld) + math.Log(vol) - math.Log(float64(n+1)) + beta*mu
		assert.Equal(t, KindAdd, acc.Kind)
		assert.InDelta(t, want, acc.LnMetropolisProb, 1e-12)
		assert.Equal(t, eNew-eOld, acc.DeltaEnergy)
	})

	t.Run("ComputeRemove", func(t *testing.T) {
		beta, eOld, eNew, vol, n, mu := 1.5, 1.0, 3.0, 1000.0, 8, -2.0
		acc := ComputeRemove(beta, eOld, eNew, vol, n, mu, 1, 1)
		want := -beta*(eNew-eOld) - math.Log(vol) + math.Log(float64(n)) - beta*mu
		assert.Equal(t, KindRemove, acc.Kind)
		assert.InDelta(t, want, acc.LnMetropolisProb, 1e-12)
	})

	t.Run("ComputeAdd/ComputeRemove are mirror moves at equilibrium fugacity", func(t *testing.T) {
		beta, vol, mu := 1.0, 500.0, -1.0
		add := ComputeAdd(beta, 0, 0, vol, 10, mu, 1, 1)
		remove := ComputeRemove(beta, 0, 0, vol, 11, mu, 1, 1)
		assert.InDelta(t, add.LnMetropolisProb, -remove.LnMetropolisProb, 1e-12)
	})

	t.Run("VolumeChange linear", func(t *testing.T) {
		beta, dE, pressure, dV, vOld, vNew, n := 1.0, 0.5, 0.1, 50.0, 1000.0, 1050.0, 20
		acc := VolumeChange(beta, dE, pressure, dV, vOld, vNew, n, false)
		want := -beta*dE - beta*pressure*dV + float64(n)*math.Log(vNew/vOld)
		assert.Equal(t, KindVolume, acc.Kind)
		assert.InDelta(t, want, acc.LnMetropolisProb, 1e-12)
		assert.Equal(t, dV, acc.DeltaVolume)
	})

	t.Run("VolumeChange logarithmic adds the sampling Jacobian", func(t *testing.T) {
		beta, dE, pressure, dV, vOld, vNew, n := 1.0, 0.5, 0.1, 50.0, 1000.0, 1050.0, 20
		linear := VolumeChange(beta, dE, pressure, dV, vOld, vNew, n, false)
		logged := VolumeChange(beta, dE, pressure, dV, vOld, vNew, n, true)
		assert.InDelta(t, linear.LnMetropolisProb+math.Log(vNew/vOld), logged.LnMetropolisProb, 1e-12)
	})

	t.Run("AVBAdd", func(t *testing.T) {
		beta, eOld, eNew, vAV, nAV := 1.2, 4.0, 1.0, 30.0, 3
		acc := AVBAdd(beta, eOld, eNew, vAV, nAV, 1, 1)
		want := -beta*(eNew-eOld) + math.Log(vAV) - math.Log(float64(nAV+1))
		assert.Equal(t, KindAVBAdd, acc.Kind)
		assert.InDelta(t, want, acc.LnMetropolisProb, 1e-12)
	})

	t.Run("AVBRemove", func(t *testing.T) {
		beta, eOld, eNew, vAV, nAV := 1.2, 1.0, 4.0, 30.0, 4
		acc := AVBRemove(beta, eOld, eNew, vAV, nAV, 1, 1)
		want := -beta*(eNew-eOld) - math.Log(vAV) + math.Log(float64(nAV))
		assert.Equal(t, KindAVBRemove, acc.Kind)
		assert.InDelta(t, want, acc.LnMetropolisProb, 1e-12)
	})

	t.Run("AVBAdd/AVBRemove are mirror moves at matched shell occupancy", func(t *testing.T) {
		beta, vAV := 1.0, 40.0
		add := AVBAdd(beta, 0, 0, vAV, 5, 1, 1)
		remove := AVBRemove(beta, 0, 0, vAV, 6, 1, 1)
		assert.InDelta(t, add.LnMetropolisProb, -remove.LnMetropolisProb, 1e-12)
	})

	t.Run("GibbsTransfer", func(t *testing.T) {
		nFrom, nTo, vFrom, vTo := 20, 15, 800.0, 600.0
		acc := GibbsTransfer(nFrom, nTo, vFrom, vTo)
		want := math.Log(float64(nFrom)/float64(nTo+1)) + math.Log(vTo/vFrom)
		assert.Equal(t, KindGibbsTransfer, acc.Kind)
		assert.InDelta(t, want, acc.LnMetropolisProb, 1e-12)
	})
}

func TestLogRatioGuardsAgainstNonPositiveWeights(t *testing.T) {
	assert.Zero(t, logRatio(0, 5))
	assert.Zero(t, logRatio(5, 0))
	assert.Zero(t, logRatio(-1, 2))
	assert.InDelta(t, math.Log(2), logRatio(4, 2), 1e-12)
}
