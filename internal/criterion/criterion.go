// Package criterion implements the acceptance criteria a trial's
// ln_metropolis_prob is handed to: plain Metropolis, and the
// flat-histogram family (Wang-Landau, transition-matrix, and their
// crossover) gated by a Macrostate function and pluggable constraints.
//
// Grounded on original_source/plugin/flat_histogram (wang_landau.h,
// bias.cpp, macrostate.h): the teacher pack carries no flat-histogram
// analogue, so these recursions follow the original directly, housed in
// the Go-idiom shell (struct + per-bin slice accumulators) of
// backend/internal/sampling/basin_explorer.go's "basin" bookkeeping.
package criterion

import (
	"math"
	"math/rand"

	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

// Decision is a criterion's verdict on one staged attempt.
type Decision struct {
	Accept bool
}

// Criterion decides whether to keep a staged attempt, given its
// Acceptance record and a source of uniform randomness.
type Criterion interface {
	Decide(acc trial.Acceptance, rng *rand.Rand) Decision
	CurrentEnergy() float64
	OnAccept(acc trial.Acceptance)
}

// Constraint forces rejection of an attempt regardless of energy, given
// the macrostate value the attempt would move to. Typical uses: particle
// count bounds, N_a == N_b, |N_a - N_b/2| <= 1 (spec.md §4.8).
type Constraint interface {
	Name() string
	Forbids(macrostate int) bool
}

// NumParticleRange forbids any macrostate (interpreted as a particle
// count) outside [Min, Max].
type NumParticleRange struct {
	Min, Max int
}

func (c NumParticleRange) Name() string { return "num_particle_range" }
func (c NumParticleRange) Forbids(n int) bool { return n < c.Min || n > c.Max }

// NumEqual forbids any macrostate not exactly equal to Value — used to
// pin a two-species system's N_a == N_b.
type NumEqual struct {
	Value int
}

func (c NumEqual) Name() string       { return "num_equal" }
func (c NumEqual) Forbids(n int) bool { return n != c.Value }

// NumHalf forbids macrostates farther than Tolerance from half of
// Total, i.e. |n - Total/2| > Tolerance.
type NumHalf struct {
	Total     int
	Tolerance int
}

func (c NumHalf) Name() string { return "num_half" }
func (c NumHalf) Forbids(n int) bool {
	half := float64(c.Total) / 2
	return math.Abs(float64(n)-half) > float64(c.Tolerance)
}

// Metropolis is the plain (non-flat-histogram) criterion: accept iff
// the attempt is not forced to reject and u < exp(ln_metropolis_prob).
//
// Grounded on the teacher's acceptance block
// (backend/internal/sampling/monte_carlo.go: deltaScore<0 -> accept,
// else accept with probability exp(-deltaScore/kT)), generalized from a
// fixed energy delta to the accumulated ln_metropolis_prob a Compute
// stage assembles.
type Metropolis struct {
	Constraints []Constraint
	Macrostate  func() int

	energy float64
}

// NewMetropolis seeds a Metropolis criterion with the system's known
// starting energy.
func NewMetropolis(initialEnergy float64) *Metropolis {
	return &Metropolis{energy: initialEnergy}
}

func (m *Metropolis) CurrentEnergy() float64 { return m.energy }

func (m *Metropolis) Decide(acc trial.Acceptance, rng *rand.Rand) Decision {
	if acc.ForcedReject {
		return Decision{Accept: false}
	}
	if m.Macrostate != nil {
		next := m.Macrostate() + acc.MacrostateShift
		for _, c := range m.Constraints {
			if c.Forbids(next) {
				return Decision{Accept: false}
			}
		}
	}
	if acc.LnMetropolisProb >= 0 {
		return Decision{Accept: true}
	}
	return Decision{Accept: rng.Float64() < math.Exp(acc.LnMetropolisProb)}
}

func (m *Metropolis) OnAccept(acc trial.Acceptance) {
	m.energy += acc.DeltaEnergy
}
