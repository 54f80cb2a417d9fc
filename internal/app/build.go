// Package app turns a directive.List into a running montecarlo.MonteCarlo:
// it is the factory half of the driver, dispatching each directive by
// its Class to the piece of the engine it configures (box and particle
// template, potential terms, thermodynamic parameters, acceptance
// criterion, trial collection) and finally the Run directive that
// executes the assembled loop.
//
// Grounded on original_source/plugin/utils/include/arguments.h's
// factory-style dispatch (one constructor per class name, consuming its
// own key set) combined with the teacher's top-level "build config then
// run" shape in backend/internal/sampling/monte_carlo.go. Directive
// order follows internal/directive's documented contract: Configuration,
// Potential, ThermoParams, Criterion, Trial*, Run.
package app

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sarat-asymmetrica/fhmc/internal/criterion"
	"github.com/sarat-asymmetrica/fhmc/internal/directive"
	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	fhmcio "github.com/sarat-asymmetrica/fhmc/internal/io"
	"github.com/sarat-asymmetrica/fhmc/internal/montecarlo"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
	"github.com/sarat-asymmetrica/fhmc/internal/stepper"
	"github.com/sarat-asymmetrica/fhmc/internal/system"
	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

// Result is everything Build assembled: the runnable driver plus the
// trial count the Run directive requested.
type Result struct {
	MC        *montecarlo.MonteCarlo
	NumTrials int
}

// Build interprets list in order and returns a ready-to-Run driver. It
// recognizes "Configuration", "Potential", "ThermoParams", "Criterion",
// "TrialTranslate", "TrialAdd", "TrialRemove", "TrialVolume", and "Run"
// — the bulk single-site fluid workflow (NVT Metropolis, grand-canonical
// add/remove under a particle-count window, or NPT volume rescaling)
// spec.md's example run demonstrates. Any other class is a configuration
// error.
func Build(list directive.List, seed int64) (*Result, error) {
	b := &builder{rng: rand.New(rand.NewSource(seed))}
	var numTrials int
	for _, d := range list {
		args := directive.New(d.Class, d.Values)
		var err error
		switch d.Class {
		case "Configuration":
			err = b.configuration(args)
		case "Potential":
			err = b.potential(args)
		case "ThermoParams":
			err = b.thermoParams(args)
		case "Criterion":
			err = b.criterion(args)
		case "TrialTranslate":
			err = b.trialTranslate(args)
		case "TrialAdd":
			err = b.trialAdd(args)
		case "TrialRemove":
			err = b.trialRemove(args)
		case "TrialVolume":
			err = b.trialVolume(args)
		case "Run":
			numTrials, err = b.run(args)
		default:
			err = fmt.Errorf("unrecognized directive class %q", d.Class)
		}
		if err == nil {
			err = args.Done()
		}
		if err != nil {
			return nil, fmt.Errorf("directive %q: %w", d.Class, err)
		}
	}
	if b.sys == nil {
		return nil, fmt.Errorf("no ThermoParams directive: System was never built")
	}
	mc, err := montecarlo.New(b.sys, b.crit, b.trials, stepper.NewFactory(nil), b.rng)
	if err != nil {
		return nil, err
	}
	mc.Macrostate = b.macrostate
	return &Result{MC: mc, NumTrials: numTrials}, nil
}

type builder struct {
	rng *rand.Rand

	cfg     *particle.Configuration
	factory *potential.Factory
	typeID  int
	box     *domain.Box

	mu float64

	sys  *system.System
	crit criterion.Criterion

	trials []*trial.Trial
}

func (b *builder) macrostate() int {
	return b.cfg.NumParticlesOfType(b.typeID)
}

func (b *builder) configuration(a *directive.Args) error {
	side, err := popFloat(a, "cubic_box_length")
	if err != nil {
		return err
	}
	path, ok := a.Pop("particle_type")
	if !ok {
		return fmt.Errorf("missing particle_type")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening particle_type file: %w", err)
	}
	defer f.Close()
	df, err := fhmcio.ReadDataFile(f)
	if err != nil {
		return err
	}

	params := particle.NewModelParams(1)
	if coeffs, ok := df.PairCoeffs[1]; ok && len(coeffs) >= 2 {
		params.SetScalar(particle.Epsilon, 0, coeffs[0])
		params.SetScalar(particle.Sigma, 0, coeffs[1])
	}

	box := domain.NewBox(side, side, side)
	cfg := particle.NewConfiguration(box, params)
	typeID := cfg.AddParticleType(&particle.MoleculeType{Name: "atom", SiteTypes: []int{0}})
	b.cfg, b.typeID, b.box = cfg, typeID, box

	if numStr := a.PopDefault("num_particles", ""); numStr != "" {
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return fmt.Errorf("num_particles: %w", err)
		}
		b.seedParticles(n)
	}
	return nil
}

func (b *builder) seedParticles(n int) {
	for i := 0; i < n; i++ {
		idx := b.cfg.PendingAdd(b.typeID)
		pos := randomVec3(b.rng, b.box)
		for _, site := range b.cfg.SitesOfParticle(idx) {
			b.cfg.MoveSite(site, pos)
		}
		b.cfg.CommitAdd(idx)
	}
}

func (b *builder) potential(a *directive.Args) error {
	if b.factory == nil {
		b.factory = potential.NewFactory()
	}
	model := a.PopDefault("model", "lj")
	switch model {
	case "lj":
		b.factory.AddPair(potential.LennardJones{})
	case "hard_sphere":
		b.factory.AddPair(potential.HardSphere{})
	case "square_well":
		b.factory.AddPair(potential.SquareWell{})
	default:
		return fmt.Errorf("unrecognized model %q", model)
	}
	return nil
}

// thermoParams reads beta (and, for grand-canonical trials, mu) and
// builds the System — the last piece Configuration/Potential feed —
// since every directive after this one needs it.
func (b *builder) thermoParams(a *directive.Args) error {
	if b.cfg == nil || b.factory == nil {
		return fmt.Errorf("ThermoParams requires Configuration and Potential first")
	}
	beta, err := popFloat(a, "beta")
	if err != nil {
		return err
	}
	if mu := a.PopDefault("chemical_potential0", ""); mu != "" {
		b.mu, err = strconv.ParseFloat(mu, 64)
		if err != nil {
			return fmt.Errorf("chemical_potential0: %w", err)
		}
	}
	b.sys = system.New([]*particle.Configuration{b.cfg}, b.factory, beta)
	return nil
}

func (b *builder) criterion(a *directive.Args) error {
	if b.sys == nil {
		return fmt.Errorf("Criterion requires ThermoParams first")
	}
	critType := a.PopDefault("type", "metropolis")
	if critType != "metropolis" {
		return fmt.Errorf("unrecognized criterion type %q", critType)
	}
	m := criterion.NewMetropolis(b.sys.TotalEnergy(0))
	m.Macrostate = b.macrostate
	if lo := a.PopDefault("num_particles_min", ""); lo != "" {
		min, err := strconv.Atoi(lo)
		if err != nil {
			return fmt.Errorf("num_particles_min: %w", err)
		}
		max, err := strconv.Atoi(a.PopDefault("num_particles_max", lo))
		if err != nil {
			return fmt.Errorf("num_particles_max: %w", err)
		}
		m.Constraints = append(m.Constraints, criterion.NumParticleRange{Min: min, Max: max})
	}
	b.crit = m
	return nil
}

func (b *builder) trialTranslate(a *directive.Args) error {
	if b.sys == nil {
		return fmt.Errorf("TrialTranslate requires ThermoParams first")
	}
	weight, err := popFloatDefault(a, "weight", 1)
	if err != nil {
		return err
	}
	step, err := popFloatDefault(a, "tunable_param", 0.1)
	if err != nil {
		return err
	}
	min, max := trial.TranslateBounds(b.box)
	tune := trial.NewTunable(step, min, max, 0.5, 100)
	b.trials = append(b.trials, &trial.Trial{
		Label:     "translate",
		Weight:    weight,
		Selector:  trial.ParticleSelector{TypeID: b.typeID},
		Perturber: trial.Translate{Tune: tune},
		Compute: func(sys *system.System, sel trial.Selection, eOld float64) trial.Acceptance {
			eNew := sys.SelectionEnergy(sel.ConfigIdx, sel.Mobile)
			return trial.Move(sys.Beta, eOld, eNew, 1, 1)
		},
	})
	return nil
}

func (b *builder) trialAdd(a *directive.Args) error {
	if b.sys == nil {
		return fmt.Errorf("TrialAdd requires ThermoParams first")
	}
	weight, err := popFloatDefault(a, "weight", 1)
	if err != nil {
		return err
	}
	typeID, mu := b.typeID, b.mu
	b.trials = append(b.trials, &trial.Trial{
		Label:     "add",
		Weight:    weight,
		Selector:  nullSelector{},
		Perturber: trial.Add{TypeID: typeID},
		Compute: func(sys *system.System, sel trial.Selection, eOld float64) trial.Acceptance {
			eNew := sys.SelectionEnergy(sel.ConfigIdx, sel.Mobile)
			cfg := sys.Configs[sel.ConfigIdx]
			n := cfg.NumParticlesOfType(typeID)
			vol := cfg.Domain.Volume()
			acc := trial.ComputeAdd(sys.Beta, eOld, eNew, vol, n, mu, 1, 1)
			acc.MacrostateShift = 1
			return acc
		},
	})
	return nil
}

func (b *builder) trialRemove(a *directive.Args) error {
	if b.sys == nil {
		return fmt.Errorf("TrialRemove requires ThermoParams first")
	}
	weight, err := popFloatDefault(a, "weight", 1)
	if err != nil {
		return err
	}
	mu := b.mu
	b.trials = append(b.trials, &trial.Trial{
		Label:     "remove",
		Weight:    weight,
		Selector:  trial.ParticleSelector{TypeID: b.typeID},
		Perturber: trial.Remove{},
		Compute: func(sys *system.System, sel trial.Selection, eOld float64) trial.Acceptance {
			eNew := sys.SelectionEnergy(sel.ConfigIdx, sel.Mobile)
			cfg := sys.Configs[sel.ConfigIdx]
			n := cfg.NumParticlesOfType(b.typeID)
			vol := cfg.Domain.Volume()
			acc := trial.ComputeRemove(sys.Beta, eOld, eNew, vol, n, mu, 1, 1)
			acc.MacrostateShift = -1
			return acc
		},
	})
	return nil
}

// trialVolume wires an isotropic box-rescale trial (spec.md §4.7's
// Volume row, NPT ensemble) to the Volume perturber and the
// trial.VolumeChange acceptance formula. Its Selector is a
// *volumeSelector rather than one of the particle selectors: a rescale
// moves every physical site at once, which the mobile-vs-background
// SelectionEnergy model (every other trial here uses) cannot price —
// SelectionEnergy skips pairs where both sites are in the mobile set,
// so passing "every site" would silently total to zero. volumeSelector
// instead snapshots the whole-configuration energy via sys.TotalEnergy
// at Select time (run by Trial.Attempt before the perturber moves
// anything), and Compute reads that snapshot back after invalidating
// the cache the rescale left stale.
func (b *builder) trialVolume(a *directive.Args) error {
	if b.sys == nil {
		return fmt.Errorf("TrialVolume requires ThermoParams first")
	}
	weight, err := popFloatDefault(a, "weight", 1)
	if err != nil {
		return err
	}
	pressure, err := popFloatDefault(a, "pressure", 0)
	if err != nil {
		return err
	}
	step, err := popFloatDefault(a, "tunable_param", 0.1)
	if err != nil {
		return err
	}
	logarithmic := a.PopDefault("logarithmic", "") == "true"

	tune := trial.NewTunable(step, domain.NearZero, b.box.Volume(), 0.5, 100)
	vs := &volumeSelector{sys: b.sys}
	typeID := b.typeID
	b.trials = append(b.trials, &trial.Trial{
		Label:     "volume",
		Weight:    weight,
		Selector:  vs,
		Perturber: trial.Volume{Tune: tune, Logarithmic: logarithmic},
		Compute: func(sys *system.System, sel trial.Selection, _ float64) trial.Acceptance {
			sys.InvalidateCache(sel.ConfigIdx)
			cfg := sys.Configs[sel.ConfigIdx]
			eNew := sys.TotalEnergy(sel.ConfigIdx)
			// Finalize applies DeltaEnergy against whatever is cached at
			// accept time; sys.TotalEnergy above just re-populated the
			// cache with the absolute post-rescale energy, so leave it
			// invalid again rather than let Finalize add the delta on
			// top of that absolute value.
			sys.InvalidateCache(sel.ConfigIdx)
			newVol := cfg.Domain.Volume()
			n := cfg.NumParticlesOfType(typeID)
			return trial.VolumeChange(sys.Beta, eNew-vs.eOld, pressure, newVol-vs.oldVol, vs.oldVol, newVol, n, logarithmic)
		},
	})
	return nil
}

// volumeSelector proposes no particle selection of its own (Volume's
// perturber rescales the whole configuration directly); it exists only
// to snapshot the pre-rescale energy and volume at the point
// Trial.Attempt calls Select, before the perturber runs.
type volumeSelector struct {
	sys *system.System

	eOld   float64
	oldVol float64
}

func (volumeSelector) Name() string { return "select_volume" }

func (v *volumeSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (trial.Selection, bool) {
	v.eOld = v.sys.TotalEnergy(configIdx)
	v.oldVol = cfg.Domain.Volume()
	return trial.Selection{ConfigIdx: configIdx}, true
}

func (b *builder) run(a *directive.Args) (int, error) {
	n, err := strconv.Atoi(a.PopDefault("num_trials", "0"))
	if err != nil {
		return 0, fmt.Errorf("num_trials: %w", err)
	}
	return n, nil
}

// nullSelector proposes an empty selection; used by TrialAdd, whose
// perturber creates the new particle itself rather than moving an
// existing one.
type nullSelector struct{}

func (nullSelector) Name() string { return "select_none" }
func (nullSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (trial.Selection, bool) {
	return trial.Selection{ConfigIdx: configIdx}, true
}

func randomVec3(rng *rand.Rand, box *domain.Box) mgl64.Vec3 {
	return mgl64.Vec3{
		(rng.Float64() - 0.5) * box.Lx,
		(rng.Float64() - 0.5) * box.Ly,
		(rng.Float64() - 0.5) * box.Lz,
	}
}

func popFloat(a *directive.Args, key string) (float64, error) {
	s, ok := a.Pop(key)
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func popFloatDefault(a *directive.Args, key string, def float64) (float64, error) {
	s := a.PopDefault(key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
