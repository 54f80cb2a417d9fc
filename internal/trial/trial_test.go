package trial

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
	"github.com/sarat-asymmetrica/fhmc/internal/system"
)

func newSingleTypeSystem(t *testing.T, n int) (*system.System, *particle.Configuration) {
	t.Helper()
	box := domain.NewBox(20, 20, 20)
	params := particle.NewModelParams(1)
	params.SetScalar(particle.Epsilon, 0, 1.0)
	params.SetScalar(particle.Sigma, 0, 1.0)
	params.SetScalar(particle.RCut, 0, 5.0)
	cfg := particle.NewConfiguration(box, params)

	mt := &particle.MoleculeType{Name: "atom", SiteTypes: []int{0}}
	typeID := cfg.AddParticleType(mt)
	for i := 0; i < n; i++ {
		idx := cfg.PendingAdd(typeID)
		start := cfg.Particles[idx].SiteStart
		cfg.Sites[start].Position = mgl64.Vec3{float64(i) * 3, 0, 0}
		cfg.CommitAdd(idx)
	}

	f := potential.NewFactory()
	f.AddPair(potential.LennardJones{})
	require.NoError(t, f.Precompute(cfg))

	sys := system.New([]*particle.Configuration{cfg}, f, 1.0)
	return sys, cfg
}

func TestTranslateMoveAndUndoRestoresPosition(t *testing.T) {
	sys, cfg := newSingleTypeSystem(t, 2)
	rng := rand.New(rand.NewSource(1))

	selector := ParticleSelector{TypeID: 0}
	sel, ok := selector.Select(cfg, 0, rng)
	require.True(t, ok)

	before := cfg.Sites[sel.Mobile[0]].Position
	tune := NewTunable(1.0, 0.01, 5.0, 0.5, 100)
	undo := Translate{Tune: tune}.Move(cfg, &sel, sys.Beta, rng)
	require.NotEqual(t, before, cfg.Sites[sel.Mobile[0]].Position)

	undo()
	require.Equal(t, before, cfg.Sites[sel.Mobile[0]].Position)
}

func TestAddPerturberCreatesPhysicalParticleOnlyAfterCommit(t *testing.T) {
	sys, cfg := newSingleTypeSystem(t, 1)
	rng := rand.New(rand.NewSource(2))
	sel := Selection{ConfigIdx: 0, TypeID: 0}

	countBefore := cfg.NumParticlesOfType(0)
	undo := Add{TypeID: 0}.Move(cfg, &sel, sys.Beta, rng)
	require.Equal(t, countBefore, cfg.NumParticlesOfType(0), "ghost stays unphysical until CommitAdd")
	require.NotEmpty(t, sel.Mobile)

	undo()
	require.Equal(t, countBefore, cfg.NumParticlesOfType(0))
}

func TestTunableConvergesTowardTarget(t *testing.T) {
	tune := NewTunable(1.0, 0.01, 10.0, 0.5, 10)
	for i := 0; i < 100; i++ {
		tune.Record(true) // always-accept pushes the step size up
	}
	require.Greater(t, tune.Value, 1.0)
}

func TestRosenbluthWeightPicksAmongCandidates(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	scores := []float64{1, 1, 1, 1}
	W, chosen := RosenbluthWeight(len(scores), func(i int) float64 { return scores[i] }, rng)
	require.InDelta(t, 4.0, W, 1e-9)
	require.GreaterOrEqual(t, chosen, 0)
	require.Less(t, chosen, len(scores))
}

func TestMoveAcceptanceMatchesMetropolisLogRatio(t *testing.T) {
	acc := Move(1.0, -1.0, -2.0, 1.0, 1.0)
	require.InDelta(t, 1.0, acc.LnMetropolisProb, 1e-9)
}
