// Package potential implements the pair/bond/angle/dihedral/one-body
// models a Visitor evaluates, plus the ordered PotentialFactory that
// binds each model to the parameters it reads.
//
// Grounded on the teacher's force-field package
// (backend/internal/physics/force_field.go, energy.go, solvation.go):
// the energy-function shape (distance/angle in, kcal/mol-style scalar
// out) and the AMBER-style parameter tables carry over, generalized
// from a fixed backbone-only parameter set to the declared per-type
// ModelParams of internal/particle.
package potential

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"golang.org/x/exp/maps"
)

// PairModel computes the energy of a site pair from their squared
// separation and types. Implementations that need the one-time
// constants (e.g. a tabulation, or Ewald's structure factors) do that
// work in Precompute.
type PairModel interface {
	Name() string
	// EnergyR2 returns the pair energy for squared distance r2 between
	// a site of type ti and one of type tj, or +Inf for a hard-core
	// overlap.
	EnergyR2(r2 float64, ti, tj int, mp *particle.ModelParams) float64
	// CutoffSq returns the squared cutoff beyond which EnergyR2 is
	// defined to be zero, so visitors can skip the call entirely.
	CutoffSq(ti, tj int, mp *particle.ModelParams) float64
	Precompute(cfg *particle.Configuration) error
}

// AnisotropicPairModel is a PairModel whose energy also depends on the
// two sites' orientation (patch Kern-Frenkel).
type AnisotropicPairModel interface {
	PairModel
	EnergyOriented(dr mgl64.Vec3, r2 float64, oi, oj mgl64.Quat, ti, tj int, mp *particle.ModelParams) float64
}

// OneBodyModel is an external field or confining barrier applied to
// every physical site independently of any other site.
type OneBodyModel interface {
	Name() string
	EnergySite(pos mgl64.Vec3, typeID int) float64
}

// GlobalModel is a term that cannot be decomposed into independent pair
// contributions: the Ewald reciprocal-space sum and the long-range
// correction tail both need the whole configuration (or at least whole
// per-type counts) to evaluate.
type GlobalModel interface {
	Name() string
	Precompute(cfg *particle.Configuration) error
	TotalEnergy(cfg *particle.Configuration) float64
}

// BondModel computes two-body intramolecular energy and exposes a
// configurational-bias sampler: given beta, draw a length from
// exp(-beta*U(l)).
type BondModel interface {
	Name() string
	Energy(r float64) float64
	RandomLength(beta float64, rng *rand.Rand) float64
}

// AngleModel is the three-body analogue of BondModel.
type AngleModel interface {
	Name() string
	Energy(theta float64) float64
	RandomAngle(beta float64, rng *rand.Rand) float64
}

// DihedralModel is the four-body analogue of BondModel.
type DihedralModel interface {
	Name() string
	Energy(phi float64) float64
	RandomDihedral(beta float64, rng *rand.Rand) float64
}

// Factory is the ordered collection of potential terms a System
// evaluates. Bond/angle/dihedral models are keyed by name (the
// per-bond "model name" stored on the molecule-type template), matching
// spec.md §4.4's dispatch-by-registered-name contract.
type Factory struct {
	Pairs     []PairModel
	OneBody   []OneBodyModel
	Globals   []GlobalModel
	Bonds     map[string]BondModel
	Angles    map[string]AngleModel
	Dihedrals map[string]DihedralModel

	// BondTypeNames/AngleTypeNames/DihedralTypeNames resolve a molecule
	// template's small integer Type index (particle.Bond.Type etc.) to
	// the registered model name the bond visitor should dispatch to.
	BondTypeNames     []string
	AngleTypeNames    []string
	DihedralTypeNames []string
}

// NewFactory returns an empty, ready-to-populate factory.
func NewFactory() *Factory {
	return &Factory{
		Bonds:     make(map[string]BondModel),
		Angles:    make(map[string]AngleModel),
		Dihedrals: make(map[string]DihedralModel),
	}
}

func (f *Factory) AddPair(m PairModel)       { f.Pairs = append(f.Pairs, m) }
func (f *Factory) AddOneBody(m OneBodyModel) { f.OneBody = append(f.OneBody, m) }
func (f *Factory) AddGlobal(m GlobalModel)   { f.Globals = append(f.Globals, m) }
func (f *Factory) RegisterBond(m BondModel)         { f.Bonds[m.Name()] = m }
func (f *Factory) RegisterAngle(m AngleModel)       { f.Angles[m.Name()] = m }
func (f *Factory) RegisterDihedral(m DihedralModel) { f.Dihedrals[m.Name()] = m }

// BondModelForType resolves a molecule template's bond-type index to
// its registered model.
func (f *Factory) BondModelForType(typeIdx int) BondModel {
	return f.Bonds[f.BondTypeNames[typeIdx]]
}

// AngleModelForType resolves a molecule template's angle-type index.
func (f *Factory) AngleModelForType(typeIdx int) AngleModel {
	return f.Angles[f.AngleTypeNames[typeIdx]]
}

// DihedralModelForType resolves a molecule template's dihedral-type index.
func (f *Factory) DihedralModelForType(typeIdx int) DihedralModel {
	return f.Dihedrals[f.DihedralTypeNames[typeIdx]]
}

// Precompute runs every term's one-time setup over cfg, in order, then
// confirms every type-indexed bond/angle/dihedral name a molecule
// template references actually resolves to a registered model.
func (f *Factory) Precompute(cfg *particle.Configuration) error {
	for _, p := range f.Pairs {
		if err := p.Precompute(cfg); err != nil {
			return err
		}
	}
	for _, g := range f.Globals {
		if err := g.Precompute(cfg); err != nil {
			return err
		}
	}
	return f.ValidateBondedTypes()
}

// ValidateBondedTypes confirms every name in BondTypeNames,
// AngleTypeNames, and DihedralTypeNames resolves to a model registered
// via RegisterBond/RegisterAngle/RegisterDihedral. The registries are
// unordered name->model maps, so an error lists the registry's
// available names sorted, keeping the message deterministic across
// runs rather than depending on Go's randomized map iteration order.
func (f *Factory) ValidateBondedTypes() error {
	for _, name := range f.BondTypeNames {
		if _, ok := f.Bonds[name]; !ok {
			return fmt.Errorf("potential: bond type %q not registered, have %v", name, sortedKeys(f.Bonds))
		}
	}
	for _, name := range f.AngleTypeNames {
		if _, ok := f.Angles[name]; !ok {
			return fmt.Errorf("potential: angle type %q not registered, have %v", name, sortedKeys(f.Angles))
		}
	}
	for _, name := range f.DihedralTypeNames {
		if _, ok := f.Dihedrals[name]; !ok {
			return fmt.Errorf("potential: dihedral type %q not registered, have %v", name, sortedKeys(f.Dihedrals))
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}
