package trial

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
	"github.com/sarat-asymmetrica/fhmc/internal/visitor"
)

func TestParticleSelectorPicksAmongPhysicalParticles(t *testing.T) {
	_, cfg := newSingleTypeSystem(t, 3)
	rng := rand.New(rand.NewSource(7))
	sel, ok := ParticleSelector{TypeID: 0}.Select(cfg, 0, rng)
	require.True(t, ok)
	require.Len(t, sel.Mobile, 1)
	require.InDelta(t, 1.0/3.0, sel.PSel, 1e-9)
}

func TestParticleSelectorFailsWithNoCandidates(t *testing.T) {
	_, cfg := newSingleTypeSystem(t, 0)
	rng := rand.New(rand.NewSource(8))
	_, ok := ParticleSelector{TypeID: 0}.Select(cfg, 0, rng)
	require.False(t, ok)
}

func TestClusterSelectorFollowsEnergyMapComponents(t *testing.T) {
	_, cfg := newSingleTypeSystem(t, 3)
	f := potential.NewFactory()
	f.AddPair(potential.LennardJones{})
	require.NoError(t, f.Precompute(cfg))

	emap := visitor.NewEnergyMap(1e-6)
	allGroup := func(c *particle.Configuration, i int) bool { return true }
	visitor.AllPairs{}.Compute(cfg, allGroup, f, emap)

	rng := rand.New(rand.NewSource(9))
	sel, ok := ClusterSelector{EnergyMap: emap}.Select(cfg, 0, rng)
	require.True(t, ok)
	require.NotEmpty(t, sel.Mobile)
}
