package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
)

func newTwoAtomSystem(t *testing.T, sep float64) (*System, *particle.Configuration) {
	t.Helper()
	box := domain.NewBox(20, 20, 20)
	params := particle.NewModelParams(1)
	params.SetScalar(particle.Epsilon, 0, 1.0)
	params.SetScalar(particle.Sigma, 0, 1.0)
	params.SetScalar(particle.RCut, 0, 5.0)
	cfg := particle.NewConfiguration(box, params)

	mt := &particle.MoleculeType{Name: "atom", SiteTypes: []int{0}}
	typeID := cfg.AddParticleType(mt)

	a := cfg.PendingAdd(typeID)
	cfg.Sites[cfg.Particles[a].SiteStart].Position = mgl64.Vec3{0, 0, 0}
	cfg.CommitAdd(a)

	b := cfg.PendingAdd(typeID)
	cfg.Sites[cfg.Particles[b].SiteStart].Position = mgl64.Vec3{sep, 0, 0}
	cfg.CommitAdd(b)

	f := potential.NewFactory()
	f.AddPair(potential.LennardJones{})
	require.NoError(t, f.Precompute(cfg))

	s := New([]*particle.Configuration{cfg}, f, 1.0)
	return s, cfg
}

func TestTotalEnergyCaches(t *testing.T) {
	s, _ := newTwoAtomSystem(t, 1.5)
	first := s.TotalEnergy(0)
	second := s.TotalEnergy(0)
	require.Equal(t, first, second)
}

func TestSelectionEnergyMatchesTotalForTwoAtoms(t *testing.T) {
	s, cfg := newTwoAtomSystem(t, 1.5)
	total := s.TotalEnergy(0)

	mobile := []int{cfg.Particles[1].SiteStart}
	sel := s.SelectionEnergy(0, mobile)
	require.InDelta(t, total, sel, 1e-9)
}

func TestFinalizeUpdatesCachedEnergyByDelta(t *testing.T) {
	s, _ := newTwoAtomSystem(t, 1.5)
	before := s.TotalEnergy(0)
	s.Finalize(0, 2.5)
	require.InDelta(t, before+2.5, s.TotalEnergy(0), 1e-9)
}

func TestInvalidateCacheForcesRecompute(t *testing.T) {
	s, cfg := newTwoAtomSystem(t, 1.5)
	before := s.TotalEnergy(0)

	cfg.MoveSite(cfg.Particles[1].SiteStart, mgl64.Vec3{3.0, 0, 0})
	s.InvalidateCache(0)

	moved := s.TotalEnergy(0)
	require.NotEqual(t, before, moved)
	require.InDelta(t, 0.0, moved, 0.01)
}
