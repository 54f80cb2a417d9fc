package potential

import (
	"math"
	"math/cmplx"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
)

// Ewald is the reciprocal-space sum of the Coulomb potential, paired
// with CoulombShortRange (the real-space part) and its own self-energy
// correction. No intramolecular-screening correction is applied:
// charges within one molecule contribute to the k-space sum like any
// other pair.
//
// Grounded on original_source (plugin/ewald, whose file list in
// _INDEX.md confirms FEASST splits trial_add_multiple by Ewald-specific
// bookkeeping). The structure factors are kept in sk, but TotalEnergy
// recomputes every one of them from the current site positions on each
// call; they are not updated incrementally on a move, insert or
// delete. No FFT library is wired in (spec.md targets
// direct k-space sums at a scale where an FFT-accelerated Ewald mesh
// method is out of scope).
type Ewald struct {
	Alpha float64
	KMax2 float64 // k^2 <= KMax2 sphere cutoff, in (2*pi/L)^2 units

	kvecs []kvector
	sk    []complex128 // structure factor per k-vector, rebuilt on every TotalEnergy call
}

type kvector struct {
	kx, ky, kz int
	k2         float64
	prefactor  float64 // 4*pi/V * exp(-k^2/(4 alpha^2)) / k^2, filled at Precompute
}

func NewEwald(alpha, kmax2 float64) *Ewald {
	return &Ewald{Alpha: alpha, KMax2: kmax2}
}

func (e *Ewald) Name() string { return "ewald_reciprocal" }

// Precompute enumerates k-vectors inside the sphere cutoff and caches
// each one's constant prefactor and initial structure factor.
func (e *Ewald) Precompute(cfg *particle.Configuration) error {
	lx, ly, lz := cfg.Domain.Lx, cfg.Domain.Ly, cfg.Domain.Lz
	vol := cfg.Domain.Volume()
	kmax := int(math.Sqrt(e.KMax2)) + 1

	e.kvecs = e.kvecs[:0]
	for nx := -kmax; nx <= kmax; nx++ {
		for ny := -kmax; ny <= kmax; ny++ {
			for nz := -kmax; nz <= kmax; nz++ {
				if nx == 0 && ny == 0 && nz == 0 {
					continue
				}
				kx := 2 * math.Pi * float64(nx) / lx
				ky := 2 * math.Pi * float64(ny) / ly
				kz := 2 * math.Pi * float64(nz) / lz
				k2 := kx*kx + ky*ky + kz*kz
				if k2 > e.KMax2*math.Pow(2*math.Pi/lx, 2) {
					continue
				}
				pre := (4 * math.Pi / vol) * math.Exp(-k2/(4*e.Alpha*e.Alpha)) / k2
				e.kvecs = append(e.kvecs, kvector{nx, ny, nz, k2, pre})
			}
		}
	}
	e.sk = make([]complex128, len(e.kvecs))
	e.recomputeStructureFactors(cfg)
	return nil
}

func (e *Ewald) recomputeStructureFactors(cfg *particle.Configuration) {
	lx, ly, lz := cfg.Domain.Lx, cfg.Domain.Ly, cfg.Domain.Lz
	for ik, kv := range e.kvecs {
		kx := 2 * math.Pi * float64(kv.kx) / lx
		ky := 2 * math.Pi * float64(kv.ky) / ly
		kz := 2 * math.Pi * float64(kv.kz) / lz
		var sum complex128
		for _, s := range cfg.Sites {
			if !s.IsPhysical {
				continue
			}
			q := cfg.Params.Scalar(particle.Charge, s.Type)
			if q == 0 {
				continue
			}
			phase := kx*s.Position[0] + ky*s.Position[1] + kz*s.Position[2]
			sum += complex(q, 0) * cmplx.Exp(complex(0, phase))
		}
		e.sk[ik] = sum
	}
}

// TotalEnergy sums (1/2) * sum_k prefactor(k) * |S(k)|^2 (the 4*pi/V
// factor is already inside prefactor), adds the Gaussian self-energy
// -(alpha/sqrt(pi)) * sum q^2, and scales both terms by the Coulomb
// conversion constant 332.06.
func (e *Ewald) TotalEnergy(cfg *particle.Configuration) float64 {
	e.recomputeStructureFactors(cfg)
	var recip float64
	for ik, kv := range e.kvecs {
		recip += kv.prefactor * real(e.sk[ik]*cmplx.Conj(e.sk[ik]))
	}
	recip *= 0.5

	var selfSum float64
	for _, s := range cfg.Sites {
		if !s.IsPhysical {
			continue
		}
		q := cfg.Params.Scalar(particle.Charge, s.Type)
		selfSum += q * q
	}
	self := -(e.Alpha / math.Sqrt(math.Pi)) * selfSum

	return recip*332.06 + self*332.06
}

// LongRangeCorrection is the closed-form LJ tail correction for the
// energy omitted by truncating the pair sum at Cutoff.
//
// Grounded on the cutoff handling in force_field.go generalized to the
// closed-form tail: E_LRC = (8/3) pi N^2/V eps sigma^3 [ (1/3)(sigma/rc)^9 - (sigma/rc)^3 ],
// the standard homogeneous-fluid LJ tail correction, updated by delta-N
// on insert/delete without resumming (spec.md §4.2).
type LongRangeCorrection struct {
	Cutoff float64
}

func (l *LongRangeCorrection) Name() string { return "lrc" }

func (l *LongRangeCorrection) Precompute(cfg *particle.Configuration) error { return nil }

func (l *LongRangeCorrection) TotalEnergy(cfg *particle.Configuration) float64 {
	vol := cfg.Domain.Volume()
	var total float64
	n := cfg.Params.NumTypes
	for ti := 0; ti < n; ti++ {
		ni := float64(cfg.NumParticlesOfType(ti))
		if ni == 0 {
			continue
		}
		for tj := ti; tj < n; tj++ {
			nj := float64(cfg.NumParticlesOfType(tj))
			if nj == 0 {
				continue
			}
			eps := cfg.Params.Mixed(particle.Epsilon, ti, tj)
			sig := cfg.Params.Mixed(particle.Sigma, ti, tj)
			if eps == 0 || sig == 0 {
				continue
			}
			// Ordered (i,j) double sum: unlike types appear twice.
			pairCount := 2 * ni * nj
			if ti == tj {
				pairCount = ni * ni
			}
			sr3 := math.Pow(sig/l.Cutoff, 3)
			sr9 := sr3 * sr3 * sr3
			perPair := (8.0 / 3.0) * math.Pi * eps * sig * sig * sig * (sr9/3 - sr3) / vol
			total += pairCount * perPair
		}
	}
	return total
}
