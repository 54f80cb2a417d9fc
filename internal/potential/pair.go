package potential

import (
	"math"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
)

// LennardJones is the standard 12-6 potential with per-type-pair
// epsilon/sigma mixed via particle.ModelParams's declared rule.
//
// Grounded on backend/internal/physics/force_field.go:
// CalculateLennardJonesEnergy, generalized from per-element maps to
// ModelParams-mixed epsilon/sigma.
type LennardJones struct{}

func (LennardJones) Name() string { return "lj" }

func (LennardJones) CutoffSq(ti, tj int, mp *particle.ModelParams) float64 {
	rc := mp.Mixed(particle.RCut, ti, tj)
	return rc * rc
}

func (LennardJones) EnergyR2(r2 float64, ti, tj int, mp *particle.ModelParams) float64 {
	if r2 <= 0 {
		return math.Inf(1)
	}
	eps := mp.Mixed(particle.Epsilon, ti, tj)
	sig := mp.Mixed(particle.Sigma, ti, tj)
	s2 := sig * sig / r2
	s6 := s2 * s2 * s2
	s12 := s6 * s6
	return 4 * eps * (s12 - s6)
}

func (LennardJones) Precompute(cfg *particle.Configuration) error { return nil }

// HardSphere is an infinite step potential: +Inf for r < sigma, zero
// otherwise. Used as the reference potential for DCCB insertion.
type HardSphere struct{}

func (HardSphere) Name() string { return "hard_sphere" }

func (HardSphere) CutoffSq(ti, tj int, mp *particle.ModelParams) float64 {
	sig := mp.Mixed(particle.Sigma, ti, tj)
	return sig * sig
}

func (HardSphere) EnergyR2(r2 float64, ti, tj int, mp *particle.ModelParams) float64 {
	sig := mp.Mixed(particle.Sigma, ti, tj)
	if r2 < sig*sig {
		return math.Inf(1)
	}
	return 0
}

func (HardSphere) Precompute(cfg *particle.Configuration) error { return nil }

// SquareWell is a hard core of diameter sigma with an attractive well
// of depth epsilon out to r_cut.
type SquareWell struct{}

func (SquareWell) Name() string { return "square_well" }

func (SquareWell) CutoffSq(ti, tj int, mp *particle.ModelParams) float64 {
	rc := mp.Mixed(particle.RCut, ti, tj)
	return rc * rc
}

func (SquareWell) EnergyR2(r2 float64, ti, tj int, mp *particle.ModelParams) float64 {
	sig := mp.Mixed(particle.Sigma, ti, tj)
	if r2 < sig*sig {
		return math.Inf(1)
	}
	eps := mp.Mixed(particle.Epsilon, ti, tj)
	return -eps
}

func (SquareWell) Precompute(cfg *particle.Configuration) error { return nil }

// CoulombShortRange computes the real-space (erfc-screened) part of a
// Coulomb interaction, the complement to Ewald's k-space sum.
// When Alpha is zero this reduces to the bare Coulomb law, letting the
// same model serve un-split short-range electrostatics (spec.md §4.2
// "Coulomb short-range").
//
// Grounded on force_field.go:CalculateElectrostaticEnergy (Coulomb's
// constant kCoulomb=332.06 kcal*A/(mol*e^2)); the distance-dependent
// dielectric screening the teacher used for implicit solvent is dropped
// since spec.md's Coulomb term is explicit-charge, not implicit-solvent.
type CoulombShortRange struct {
	Alpha      float64 // Ewald splitting parameter, 0 disables screening
	KCoulomb   float64 // Coulomb constant in the working unit system
}

func NewCoulombShortRange(alpha float64) *CoulombShortRange {
	return &CoulombShortRange{Alpha: alpha, KCoulomb: 332.06}
}

func (c *CoulombShortRange) Name() string { return "coulomb_sr" }

func (c *CoulombShortRange) CutoffSq(ti, tj int, mp *particle.ModelParams) float64 {
	rc := mp.Mixed(particle.RCut, ti, tj)
	return rc * rc
}

func (c *CoulombShortRange) EnergyR2(r2 float64, ti, tj int, mp *particle.ModelParams) float64 {
	if r2 <= 0 {
		return 0
	}
	qi := mp.Scalar(particle.Charge, ti)
	qj := mp.Scalar(particle.Charge, tj)
	r := math.Sqrt(r2)
	screen := 1.0
	if c.Alpha > 0 {
		screen = math.Erfc(c.Alpha * r)
	}
	return c.KCoulomb * qi * qj * screen / r
}

func (c *CoulombShortRange) Precompute(cfg *particle.Configuration) error { return nil }

// TabulatedPair replaces an analytical PairModel with a fixed-sample
// linear interpolation table over r^2 in (0, r_cut^2], built once by
// Precompute. Tolerance is stored but never checked: neither
// construction nor Precompute compares table energies with the
// analytical form.
type TabulatedPair struct {
	Source    PairModel
	Samples   int
	Tolerance float64

	tables map[[2]int][]float64 // r2 sampled uniformly from 0 to cutoffSq
	step   map[[2]int]float64
}

func NewTabulatedPair(source PairModel, samples int, tolerance float64) *TabulatedPair {
	return &TabulatedPair{Source: source, Samples: samples, Tolerance: tolerance,
		tables: make(map[[2]int][]float64), step: make(map[[2]int]float64)}
}

func (t *TabulatedPair) Name() string { return "tabulated_" + t.Source.Name() }

func (t *TabulatedPair) CutoffSq(ti, tj int, mp *particle.ModelParams) float64 {
	return t.Source.CutoffSq(ti, tj, mp)
}

func (t *TabulatedPair) Precompute(cfg *particle.Configuration) error {
	if err := t.Source.Precompute(cfg); err != nil {
		return err
	}
	n := cfg.Params.NumTypes
	for ti := 0; ti < n; ti++ {
		for tj := ti; tj < n; tj++ {
			cut := t.Source.CutoffSq(ti, tj, cfg.Params)
			if cut <= 0 {
				continue
			}
			step := cut / float64(t.Samples)
			vals := make([]float64, t.Samples+1)
			for k := 0; k <= t.Samples; k++ {
				r2 := step * float64(k)
				if r2 == 0 {
					r2 = step / 1000 // avoid the r=0 singularity in the table itself
				}
				vals[k] = t.Source.EnergyR2(r2, ti, tj, cfg.Params)
			}
			t.tables[[2]int{ti, tj}] = vals
			t.step[[2]int{ti, tj}] = step
		}
	}
	return nil
}

func (t *TabulatedPair) EnergyR2(r2 float64, ti, tj int, mp *particle.ModelParams) float64 {
	k := [2]int{ti, tj}
	if ti > tj {
		k = [2]int{tj, ti}
	}
	vals, ok := t.tables[k]
	if !ok {
		return t.Source.EnergyR2(r2, ti, tj, mp)
	}
	step := t.step[k]
	pos := r2 / step
	lo := int(math.Floor(pos))
	if lo < 0 {
		lo = 0
	}
	if lo >= len(vals)-1 {
		return vals[len(vals)-1]
	}
	frac := pos - float64(lo)
	return vals[lo]*(1-frac) + vals[lo+1]*frac
}
