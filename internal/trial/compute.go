package trial

import (
	"math"
	"math/rand"
)

// Kind identifies which acceptance-probability table row a Compute
// stage uses (spec.md §4.7).
type Kind int

const (
	KindMove Kind = iota
	KindAdd
	KindRemove
	KindVolume
	KindAVBAdd
	KindAVBRemove
	KindGibbsTransfer
)

// Acceptance is the finished record a Compute stage hands the
// criterion: the accumulated ln-probability ratio, the macrostate shift
// a flat-histogram bias should apply, and a forced-reject flag for
// moves that are invalid regardless of energy (e.g. an empty AVB
// shell).
type Acceptance struct {
	Kind              Kind
	LnMetropolisProb  float64
	ForcedReject      bool
	MacrostateShift   int
	MacrostateShiftType string
	DeltaEnergy       float64
	DeltaVolume       float64
}

// RosenbluthWeight draws k candidate placements via place, scores each
// with score (the Boltzmann weight exp(-beta*deltaU), already excluding
// the intramolecular term used for selection), and returns the total
// weight W plus the chosen candidate's index — candidate 0 is always
// included for the "old configuration" side of the table per spec.md
// §4.7.
func RosenbluthWeight(k int, score func(trial int) float64, rng *rand.Rand) (W float64, chosen int) {
	if k < 1 {
		k = 1
	}
	weights := make([]float64, k)
	for i := 0; i < k; i++ {
		weights[i] = score(i)
		W += weights[i]
	}
	if W <= 0 {
		return W, 0
	}
	target := rng.Float64() * W
	var cum float64
	for i, w := range weights {
		cum += w
		if target <= cum {
			return W, i
		}
	}
	return W, k - 1
}

// Move computes ln chi = -beta*(Enew-Eold) + ln(Wnew/Wold).
func Move(beta, eOld, eNew, wOld, wNew float64) Acceptance {
	lnChi := -beta*(eNew-eOld) + logRatio(wNew, wOld)
	return Acceptance{Kind: KindMove, LnMetropolisProb: lnChi, DeltaEnergy: eNew - eOld}
}

// ComputeAdd computes ln chi = -beta*(Enew-Eold) + ln V - ln(N+1) + beta*mu + ln(Wnew/Wold).
func ComputeAdd(beta, eOld, eNew, vol float64, n int, mu, wOld, wNew float64) Acceptance {
	lnChi := -beta*(eNew-eOld) + math.Log(vol) - math.Log(float64(n+1)) + beta*mu + logRatio(wNew, wOld)
	return Acceptance{Kind: KindAdd, LnMetropolisProb: lnChi, DeltaEnergy: eNew - eOld}
}

// ComputeRemove computes ln chi = -beta*(Enew-Eold) - ln V + ln N - beta*mu - ln(Wold/Wnew).
func ComputeRemove(beta, eOld, eNew, vol float64, n int, mu, wOld, wNew float64) Acceptance {
	lnChi := -beta*(eNew-eOld) - math.Log(vol) + math.Log(float64(n)) - beta*mu - logRatio(wOld, wNew)
	return Acceptance{Kind: KindRemove, LnMetropolisProb: lnChi, DeltaEnergy: eNew - eOld}
}

// VolumeChange computes ln chi = -beta*dE - beta*p*dV + N*ln(Vnew/Vold),
// with an extra +ln(Vnew/Vold) term when the step was drawn
// logarithmically (the Jacobian of sampling in ln V rather than V).
func VolumeChange(beta, dE, pressure, dV, vOld, vNew float64, n int, logarithmic bool) Acceptance {
	lnChi := -beta*dE - beta*pressure*dV + float64(n)*math.Log(vNew/vOld)
	if logarithmic {
		lnChi += math.Log(vNew / vOld)
	}
	return Acceptance{Kind: KindVolume, LnMetropolisProb: lnChi, DeltaEnergy: dE, DeltaVolume: dV}
}

// AVBAdd computes ln chi = -beta*(Enew-Eold) + ln(vAV) - ln(nAV+1) + ln(Wnew/Wold):
// the AVB add terms together with the energy and Rosenbluth terms.
func AVBAdd(beta, eOld, eNew, vAV float64, nAV int, wOld, wNew float64) Acceptance {
	lnChi := -beta*(eNew-eOld) + math.Log(vAV) - math.Log(float64(nAV+1)) + logRatio(wNew, wOld)
	return Acceptance{Kind: KindAVBAdd, LnMetropolisProb: lnChi, DeltaEnergy: eNew - eOld}
}

// AVBRemove is AVBAdd's symmetric remove-side counterpart.
func AVBRemove(beta, eOld, eNew, vAV float64, nAV int, wOld, wNew float64) Acceptance {
	lnChi := -beta*(eNew-eOld) - math.Log(vAV) + math.Log(float64(nAV)) - logRatio(wOld, wNew)
	return Acceptance{Kind: KindAVBRemove, LnMetropolisProb: lnChi, DeltaEnergy: eNew - eOld}
}

// GibbsTransfer computes ln chi = ln(Nfrom/(Nto+1)) + ln(Vto/Vfrom) for
// a particle moved between two boxes of a Gibbs-ensemble pair.
func GibbsTransfer(nFrom, nTo int, vFrom, vTo float64) Acceptance {
	lnChi := math.Log(float64(nFrom)/float64(nTo+1)) + math.Log(vTo/vFrom)
	return Acceptance{Kind: KindGibbsTransfer, LnMetropolisProb: lnChi}
}

func logRatio(numerator, denominator float64) float64 {
	if denominator <= 0 || numerator <= 0 {
		return 0
	}
	return math.Log(numerator / denominator)
}
