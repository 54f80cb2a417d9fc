// Package system implements the System facade: the aggregate of one or
// more Configurations, a primary PotentialFactory (plus an optional
// "optimized" factory and any number of named reference factories), and
// the thermodynamic parameters (β, per-type μ, pressure) a Criterion
// reads. System exposes total/selection/perturbed/reference energy
// queries with per-configuration caching, so a Trial can price a move
// without re-summing the whole configuration from scratch.
//
// Grounded on the teacher's MonteCarloConfig/energy-evaluation split
// (backend/internal/sampling/monte_carlo.go): the "config object beside
// an incrementally-tracked current energy" shape is the same; the
// before/after selection-energy delta itself is new (spec.md §3's
// facade has no teacher analogue — the teacher always recomputes the
// whole-molecule AMBER energy per step).
package system

import (
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
	"github.com/sarat-asymmetrica/fhmc/internal/visitor"
)

// PairStrategy names which visitor walks inter-particle pairs for a
// given configuration: either brute-force AllPairs or a named
// registered cell list.
type PairStrategy struct {
	CellListName string // empty means AllPairs
}

// System aggregates the simulated state and the thermodynamic context a
// Criterion evaluates trials against.
type System struct {
	Configs    []*particle.Configuration
	Strategies []PairStrategy // parallel to Configs

	Factory    *potential.Factory
	Optimized  *potential.Factory // cheaper screening pass, may be nil
	References map[string]*potential.Factory

	ExcludeBondDistance int // passed to visitor.Intramolecular

	Beta     float64
	Mu       []float64 // per particle type, grand-canonical chemical potential
	Pressure float64

	cached []cacheEntry // parallel to Configs
}

type cacheEntry struct {
	valid  bool
	energy float64
}

// New builds a System over one or more configurations sharing a single
// potential factory.
func New(configs []*particle.Configuration, factory *potential.Factory, beta float64) *System {
	return &System{
		Configs:    configs,
		Strategies: make([]PairStrategy, len(configs)),
		Factory:    factory,
		References: make(map[string]*potential.Factory),
		Beta:       beta,
		cached:     make([]cacheEntry, len(configs)),
	}
}

func physicalGroup(cfg *particle.Configuration, siteIdx int) bool { return true }

func (s *System) pairEnergy(configIdx int, f *potential.Factory) float64 {
	cfg := s.Configs[configIdx]
	strat := s.Strategies[configIdx]
	if strat.CellListName != "" {
		return visitor.CellList{ListName: strat.CellListName}.Compute(cfg, physicalGroup, f, nil)
	}
	return visitor.AllPairs{}.Compute(cfg, physicalGroup, f, nil)
}

// totalEnergy sums every term of factory f over configuration configIdx:
// inter-particle pairs, intramolecular pairs (bond-distance excluded),
// bonded (bond/angle/dihedral), one-body, and global terms.
func (s *System) totalEnergy(configIdx int, f *potential.Factory) float64 {
	cfg := s.Configs[configIdx]
	total := s.pairEnergy(configIdx, f)
	total += visitor.Intramolecular{ExcludeBondDistance: s.ExcludeBondDistance}.Compute(cfg, physicalGroup, f, nil)
	total += visitor.Bonded{}.Compute(cfg, physicalGroup, f)
	total += visitor.OneBody{}.Compute(cfg, physicalGroup, f)
	for _, g := range f.Globals {
		total += g.TotalEnergy(cfg)
	}
	return total
}

// TotalEnergy returns configuration configIdx's total energy under the
// primary factory, using (and populating) the per-configuration cache.
func (s *System) TotalEnergy(configIdx int) float64 {
	if e := s.cached[configIdx]; e.valid {
		return e.energy
	}
	e := s.totalEnergy(configIdx, s.Factory)
	s.cached[configIdx] = cacheEntry{valid: true, energy: e}
	return e
}

// InvalidateCache forces the next TotalEnergy call to recompute from
// scratch; callers invoke this after any perturbation that was not
// routed through Finalize/Revert's bookkeeping (e.g. a direct
// Configuration edit made for test setup).
func (s *System) InvalidateCache(configIdx int) {
	s.cached[configIdx] = cacheEntry{}
}

// SelectionEnergy returns the energy of the interactions between mobile
// and every other physical site in the configuration, under the primary
// factory: pair terms (cell-list accelerated when registered), bonded
// terms touching only mobile sites, and one-body terms on mobile sites.
// A Trial calls this once before perturbing the selection and once
// after, and uses the difference as the move's energy delta — exactly
// the "perturbed energy" query named in spec.md §3.
func (s *System) SelectionEnergy(configIdx int, mobile []int) float64 {
	return s.selectionEnergy(configIdx, mobile, s.Factory)
}

// OptimizedSelectionEnergy is the cheap first-pass screening query used
// by dual-cutoff configurational bias: same contract as
// SelectionEnergy but evaluated against the Optimized factory, which
// typically carries a shorter cutoff or a coarser reference potential.
func (s *System) OptimizedSelectionEnergy(configIdx int, mobile []int) float64 {
	if s.Optimized == nil {
		return s.SelectionEnergy(configIdx, mobile)
	}
	return s.selectionEnergy(configIdx, mobile, s.Optimized)
}

// ReferenceEnergy evaluates the named reference factory's selection
// energy — the multistate/umbrella-sampling hook of spec.md §3's "N
// reference factories".
func (s *System) ReferenceEnergy(name string, configIdx int, mobile []int) float64 {
	f, ok := s.References[name]
	if !ok {
		return 0
	}
	return s.selectionEnergy(configIdx, mobile, f)
}

func (s *System) selectionEnergy(configIdx int, mobile []int, f *potential.Factory) float64 {
	cfg := s.Configs[configIdx]
	strat := s.Strategies[configIdx]
	total := visitor.Selection{ListName: strat.CellListName}.Compute(cfg, mobile, physicalGroup, f, nil)

	mobileSet := make(map[int]bool, len(mobile))
	for _, m := range mobile {
		mobileSet[m] = true
	}
	mobileGroup := func(cfg *particle.Configuration, siteIdx int) bool { return mobileSet[siteIdx] }

	total += visitor.Intramolecular{ExcludeBondDistance: s.ExcludeBondDistance}.Compute(cfg, mobileGroup, f, nil)
	total += visitor.Bonded{}.Compute(cfg, mobileGroup, f)
	total += visitor.OneBody{}.Compute(cfg, mobileGroup, f)
	return total
}

// Finalize commits an accepted trial: the cached total energy is bumped
// by delta rather than recomputed, and every registered global term
// (Ewald, LRC) is re-precomputed since a move may have changed particle
// count or box volume.
func (s *System) Finalize(configIdx int, delta float64) {
	cfg := s.Configs[configIdx]
	for _, g := range s.Factory.Globals {
		_ = g.Precompute(cfg)
	}
	if e := s.cached[configIdx]; e.valid {
		s.cached[configIdx] = cacheEntry{valid: true, energy: e.energy + delta}
	}
}

// Revert discards a rejected trial's cached delta; since the
// perturber/selector contract guarantees site positions and cell-list
// membership are already restored, the cached total energy needs no
// adjustment.
func (s *System) Revert(configIdx int) {}
