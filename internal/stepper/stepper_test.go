package stepper

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
	"github.com/sarat-asymmetrica/fhmc/internal/system"
	"github.com/sarat-asymmetrica/fhmc/internal/trial"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestSystem(t *testing.T) (*system.System, *particle.Configuration) {
	t.Helper()
	box := domain.NewBox(20, 20, 20)
	params := particle.NewModelParams(1)
	params.SetScalar(particle.Epsilon, 0, 1.0)
	params.SetScalar(particle.Sigma, 0, 1.0)

	cfg := particle.NewConfiguration(box, params)
	mt := &particle.MoleculeType{Name: "atom", SiteTypes: []int{0}}
	typeID := cfg.AddParticleType(mt)

	idx := cfg.PendingAdd(typeID)
	cfg.Sites[cfg.Particles[idx].SiteStart].Position = mgl64.Vec3{0, 0, 0}
	cfg.CommitAdd(idx)

	idx2 := cfg.PendingAdd(typeID)
	cfg.Sites[cfg.Particles[idx2].SiteStart].Position = mgl64.Vec3{2, 0, 0}
	cfg.CommitAdd(idx2)

	factory := potential.NewFactory()
	sys := system.New([]*particle.Configuration{cfg}, factory, 1.0)
	return sys, cfg
}

func TestBaseTickRespectsGateAndPeriod(t *testing.T) {
	b := &Base{TrialsPerUpdate: 3, Gate: Gate{StartAfterPhase: 1}}
	upd, _ := b.Tick(0)
	assert.False(t, upd, "gate should block phase 0")

	upd, _ = b.Tick(1)
	assert.False(t, upd)
	upd, _ = b.Tick(1)
	assert.False(t, upd)
	upd, _ = b.Tick(1)
	assert.True(t, upd, "third tick in an active phase should fire")
}

func TestCheckEnergyPassesWhenCacheConsistent(t *testing.T) {
	sys, _ := newTestSystem(t)
	ctx := &Context{Sys: sys, ConfigIdx: 0}
	ce := NewCheckEnergy(1, 1e-6)

	require.NotPanics(t, func() {
		ce.OnTrial(ctx)
	})
}

func TestTuneRescalesTowardHigherTargetOnOverAcceptance(t *testing.T) {
	tr := &trial.Trial{Label: "translate"}
	tune := trial.NewTunable(0.1, 0.01, 1.0, 0.3, 100)
	tr.Attempts, tr.Accepted = 10, 9 // 0.9 acceptance vs target 0.3

	ts := NewTune(1, []TunedTrial{{Trial: tr, Tunable: tune}})
	ctx := &Context{Phase: 0}
	ts.OnTrial(ctx)

	assert.Greater(t, tune.Value, 0.1, "over-accepting should grow the step size")
}

func TestWallClockLimitTerminatesAfterElapsed(t *testing.T) {
	wc := NewWallClockLimit(1, 1*time.Millisecond)
	terminate := false
	ctx := &Context{Terminate: &terminate}

	wc.OnTrial(ctx) // first tick only starts the clock
	time.Sleep(2 * time.Millisecond)
	wc.OnTrial(ctx)

	assert.True(t, terminate)
}

func TestLogEmitsRowPerTrial(t *testing.T) {
	sys, _ := newTestSystem(t)
	tr := &trial.Trial{Label: "translate", Attempts: 4, Accepted: 2}
	logger := NewLog(1, []*trial.Trial{tr})

	rows, wrote := logger.OnTrial(&Context{Sys: sys, ConfigIdx: 0})
	require.True(t, wrote)
	require.Len(t, rows, 1)
	assert.Equal(t, "translate", rows[0][2])
}

func TestMovieEmitsOneRowPerPhysicalSite(t *testing.T) {
	sys, _ := newTestSystem(t)
	movie := NewMovie(1, "traj.xyz")
	rows, wrote := movie.OnTrial(&Context{Sys: sys, ConfigIdx: 0})
	require.True(t, wrote)
	assert.Len(t, rows, 2)
}

func TestAnalyzeBondsAccumulatesBondLength(t *testing.T) {
	box := domain.NewBox(20, 20, 20)
	params := particle.NewModelParams(1)
	cfg := particle.NewConfiguration(box, params)
	mt := &particle.MoleculeType{
		Name:      "dimer",
		SiteTypes: []int{0, 0},
		Bonds:     []particle.Bond{{I: 0, J: 1, Type: 0}},
	}
	typeID := cfg.AddParticleType(mt)
	idx := cfg.PendingAdd(typeID)
	sites := cfg.SitesOfParticle(idx)
	cfg.Sites[sites[0]].Position = mgl64.Vec3{0, 0, 0}
	cfg.Sites[sites[1]].Position = mgl64.Vec3{1.5, 0, 0}
	cfg.CommitAdd(idx)

	factory := potential.NewFactory()
	sys := system.New([]*particle.Configuration{cfg}, factory, 1.0)

	ab := NewAnalyzeBonds(1)
	ab.OnTrial(&Context{Sys: sys, ConfigIdx: 0})

	rows := ab.WritePerBin()
	require.Len(t, rows, 1)
	assert.Equal(t, "bond", rows[0][0])
	mean, err := strconv.ParseFloat(rows[0][3], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, mean, 1e-9)
}
