package particle

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *Configuration {
	t.Helper()
	box := domain.NewBox(20, 20, 20)
	params := NewModelParams(1)
	params.SetScalar(Epsilon, 0, 1.0)
	params.SetScalar(Sigma, 0, 1.0)
	cfg := NewConfiguration(box, params)
	cfg.AddParticleType(&MoleculeType{Name: "atom", SiteTypes: []int{0}})
	require.NoError(t, cfg.RegisterCellList("main", 3.0))
	return cfg
}

func TestDelayedCommitAddThenRemoveIsByteIdentical(t *testing.T) {
	cfg := newTestConfig(t)

	idx := cfg.PendingAdd(0)
	cfg.Sites[cfg.Particles[idx].SiteStart].Position = mgl64.Vec3{1, 2, 3}
	cfg.CommitAdd(idx)
	require.Equal(t, 1, cfg.NumParticlesOfType(0))
	before := cfg.Clone()

	cfg.PendingRemove(idx)
	cfg.CommitRemove(idx)
	require.Equal(t, 0, cfg.NumParticlesOfType(0))

	// Re-adding should reuse the ghost slot (FIFO) and land in the same index.
	idx2 := cfg.PendingAdd(0)
	require.Equal(t, idx, idx2)
	cfg.Sites[cfg.Particles[idx2].SiteStart].Position = mgl64.Vec3{1, 2, 3}
	cfg.CommitAdd(idx2)
	require.Equal(t, 1, cfg.NumParticlesOfType(0))
	require.Equal(t, before.Sites, cfg.Sites)
	require.Equal(t, before.Particles, cfg.Particles)

	cfg.ValidateCellLists()
}

func TestRevertAddNeverTouchesCellList(t *testing.T) {
	cfg := newTestConfig(t)
	before := cfg.CellLists["main"].NumCells()

	idx := cfg.PendingAdd(0)
	cfg.RevertAdd(idx)

	require.Equal(t, before, cfg.CellLists["main"].NumCells())
	cfg.ValidateCellLists()
}

func TestMoveSiteUpdatesCellList(t *testing.T) {
	cfg := newTestConfig(t)
	idx := cfg.PendingAdd(0)
	siteID := cfg.Particles[idx].SiteStart
	cfg.Sites[siteID].Position = mgl64.Vec3{0, 0, 0}
	cfg.CommitAdd(idx)

	cfg.MoveSite(siteID, mgl64.Vec3{9, 9, 9})
	cfg.ValidateCellLists()
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := newTestConfig(t)
	idx := cfg.PendingAdd(0)
	siteID := cfg.Particles[idx].SiteStart
	cfg.Sites[siteID].Position = mgl64.Vec3{1, 1, 1}
	cfg.CommitAdd(idx)

	clone := cfg.Clone()
	clone.MoveSite(siteID, mgl64.Vec3{5, 5, 5})

	require.Equal(t, mgl64.Vec3{1, 1, 1}, cfg.Sites[siteID].Position)
	require.Equal(t, mgl64.Vec3{5, 5, 5}, clone.Sites[siteID].Position)
}
