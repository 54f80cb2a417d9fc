package montecarlo

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/criterion"
	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
	"github.com/sarat-asymmetrica/fhmc/internal/system"
	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

func newSimpleSystem(t *testing.T) (*system.System, *particle.Configuration) {
	t.Helper()
	box := domain.NewBox(30, 30, 30)
	params := particle.NewModelParams(1)
	params.SetScalar(particle.Epsilon, 0, 1.0)
	params.SetScalar(particle.Sigma, 0, 1.0)

	cfg := particle.NewConfiguration(box, params)
	mt := &particle.MoleculeType{Name: "atom", SiteTypes: []int{0}}
	typeID := cfg.AddParticleType(mt)

	for _, pos := range []mgl64.Vec3{{0, 0, 0}, {3, 0, 0}, {0, 3, 0}} {
		idx := cfg.PendingAdd(typeID)
		cfg.Sites[cfg.Particles[idx].SiteStart].Position = pos
		cfg.CommitAdd(idx)
	}

	f := potential.NewFactory()
	f.AddPair(potential.LennardJones{})
	sys := system.New([]*particle.Configuration{cfg}, f, 1.0)
	return sys, cfg
}

func TestMonteCarloRunExecutesRequestedAttempts(t *testing.T) {
	sys, _ := newSimpleSystem(t)
	crit := criterion.NewMetropolis(sys.TotalEnergy(0))

	tr := &trial.Trial{
		Label:     "translate",
		Weight:    1.0,
		Selector:  trial.ParticleSelector{TypeID: 0},
		Perturber: trial.Translate{Tune: trial.NewTunable(0.2, 0.01, 1.0, 0.4, 1000)},
		Compute: func(s *system.System, sel trial.Selection, eOld float64) trial.Acceptance {
			eNew := s.SelectionEnergy(sel.ConfigIdx, sel.Mobile)
			return trial.Move(s.Beta, eOld, eNew, 1.0, 1.0)
		},
	}

	mc, err := New(sys, crit, []*trial.Trial{tr}, nil, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	require.NoError(t, mc.Run(50))
	require.Equal(t, 50, tr.Attempts)
}

func TestMonteCarloRemoveTrialDropsItFromChooser(t *testing.T) {
	sys, _ := newSimpleSystem(t)
	crit := criterion.NewMetropolis(sys.TotalEnergy(0))

	tr1 := &trial.Trial{
		Label: "t1", Weight: 1.0,
		Selector:  trial.ParticleSelector{TypeID: 0},
		Perturber: trial.Translate{Tune: trial.NewTunable(0.2, 0.01, 1.0, 0.4, 1000)},
		Compute: func(s *system.System, sel trial.Selection, eOld float64) trial.Acceptance {
			eNew := s.SelectionEnergy(sel.ConfigIdx, sel.Mobile)
			return trial.Move(s.Beta, eOld, eNew, 1.0, 1.0)
		},
	}
	tr2 := &trial.Trial{
		Label: "t2", Weight: 1.0,
		Selector:  trial.ParticleSelector{TypeID: 0},
		Perturber: trial.Translate{Tune: trial.NewTunable(0.2, 0.01, 1.0, 0.4, 1000)},
		Compute: func(s *system.System, sel trial.Selection, eOld float64) trial.Acceptance {
			eNew := s.SelectionEnergy(sel.ConfigIdx, sel.Mobile)
			return trial.Move(s.Beta, eOld, eNew, 1.0, 1.0)
		},
	}

	mc, err := New(sys, crit, []*trial.Trial{tr1, tr2}, nil, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	require.NoError(t, mc.RemoveTrial(1))
	require.Len(t, mc.Trials, 1)
	require.NoError(t, mc.Run(10))
	require.Equal(t, 10, tr1.Attempts)
}
