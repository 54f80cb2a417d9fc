package stepper

import (
	"math"
	"strconv"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
)

// moments accumulates count/sum/sum-of-squares for a scalar sample,
// enough to report mean and variance without retaining every sample.
type moments struct {
	count int
	sum   float64
	sumSq float64
}

func (m *moments) add(x float64) {
	m.count++
	m.sum += x
	m.sumSq += x * x
}

func (m moments) mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m moments) variance() float64 {
	if m.count == 0 {
		return 0
	}
	mu := m.mean()
	return m.sumSq/float64(m.count) - mu*mu
}

// AnalyzeBonds accumulates per-bond-type length and per-angle-type
// angle moments across every physical molecule in the configuration,
// firing every TrialsPerUpdate attempts. Read-only with respect to the
// simulation; mutating only its own accumulators.
//
// Grounded on spec.md §4.9's AnalyzeBonds description, reusing the same
// minimum-image bond-geometry math backend/internal/physics validates
// bond/angle energies against in force_field_test.go.
type AnalyzeBonds struct {
	Base

	bondMoments  map[int]*moments
	angleMoments map[int]*moments
}

// NewAnalyzeBonds returns an AnalyzeBonds stepper sampling every
// trialsPerUpdate attempts.
func NewAnalyzeBonds(trialsPerUpdate int) *AnalyzeBonds {
	return &AnalyzeBonds{
		Base:         Base{Name: "AnalyzeBonds", TrialsPerUpdate: trialsPerUpdate},
		bondMoments:  make(map[int]*moments),
		angleMoments: make(map[int]*moments),
	}
}

func (a *AnalyzeBonds) StepperName() string { return a.Name }

func (a *AnalyzeBonds) OnTrial(ctx *Context) ([][]string, bool) {
	update, _ := a.Tick(ctx.Phase)
	if !update {
		return nil, false
	}
	cfg := ctx.Sys.Configs[ctx.ConfigIdx]
	for pIdx, p := range cfg.Particles {
		if !p.IsPhysical {
			continue
		}
		mt := cfg.Types[p.TypeID]
		sites := cfg.SitesOfParticle(pIdx)
		for _, b := range mt.Bonds {
			m, ok := a.bondMoments[b.Type]
			if !ok {
				m = &moments{}
				a.bondMoments[b.Type] = m
			}
			m.add(bondLength(cfg, sites[b.I], sites[b.J]))
		}
		for _, ang := range mt.Angles {
			m, ok := a.angleMoments[ang.Type]
			if !ok {
				m = &moments{}
				a.angleMoments[ang.Type] = m
			}
			m.add(bondAngle(cfg, sites[ang.I], sites[ang.J], sites[ang.K]))
		}
	}
	return nil, false
}

// WritePerBin renders one row per bond type and one per angle type:
// kind, type id, sample count, mean, variance.
func (a *AnalyzeBonds) WritePerBin() [][]string {
	var rows [][]string
	for t, m := range a.bondMoments {
		rows = append(rows, []string{"bond", strconv.Itoa(t), strconv.Itoa(m.count),
			strconv.FormatFloat(m.mean(), 'g', -1, 64), strconv.FormatFloat(m.variance(), 'g', -1, 64)})
	}
	for t, m := range a.angleMoments {
		rows = append(rows, []string{"angle", strconv.Itoa(t), strconv.Itoa(m.count),
			strconv.FormatFloat(m.mean(), 'g', -1, 64), strconv.FormatFloat(m.variance(), 'g', -1, 64)})
	}
	return rows
}

func bondLength(cfg *particle.Configuration, i, j int) float64 {
	pi, pj := cfg.Sites[i].Position, cfg.Sites[j].Position
	_, _, _, r2 := cfg.Domain.MinImageSq(pj[0]-pi[0], pj[1]-pi[1], pj[2]-pi[2])
	return math.Sqrt(r2)
}

func bondAngle(cfg *particle.Configuration, i, j, k int) float64 {
	pi, pj, pk := cfg.Sites[i].Position, cfg.Sites[j].Position, cfg.Sites[k].Position
	ux, uy, uz, _ := cfg.Domain.MinImageSq(pi[0]-pj[0], pi[1]-pj[1], pi[2]-pj[2])
	vx, vy, vz, _ := cfg.Domain.MinImageSq(pk[0]-pj[0], pk[1]-pj[1], pk[2]-pj[2])
	dot := ux*vx + uy*vy + uz*vz
	lu := math.Sqrt(ux*ux + uy*uy + uz*uz)
	lv := math.Sqrt(vx*vx + vy*vy + vz*vz)
	cos := dot / (lu * lv)
	if cos < -1 {
		cos = -1
	}
	if cos > 1 {
		cos = 1
	}
	return math.Acos(cos)
}
