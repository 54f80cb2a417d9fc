package visitor

import (
	"math"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
)

// Bonded sums every bond, angle, and dihedral term declared on a
// molecule's template, dispatching each one through the Factory's
// type-index resolvers added for exactly this purpose.
type Bonded struct{}

func (Bonded) Name() string { return "bonded" }

func (Bonded) Compute(cfg *particle.Configuration, group particle.GroupPredicate, f *potential.Factory) float64 {
	var total float64
	for pIdx, p := range cfg.Particles {
		if !p.IsPhysical {
			continue
		}
		mt := cfg.Types[p.TypeID]
		sites := cfg.SitesOfParticle(pIdx)
		inGroup := func(local int) bool { return group(cfg, sites[local]) }

		for _, b := range mt.Bonds {
			if !inGroup(b.I) || !inGroup(b.J) {
				continue
			}
			m := f.BondModelForType(b.Type)
			if m == nil {
				continue
			}
			r := siteDistance(cfg, sites[b.I], sites[b.J])
			total += m.Energy(r)
		}
		for _, a := range mt.Angles {
			if !inGroup(a.I) || !inGroup(a.J) || !inGroup(a.K) {
				continue
			}
			m := f.AngleModelForType(a.Type)
			if m == nil {
				continue
			}
			theta := siteAngle(cfg, sites[a.I], sites[a.J], sites[a.K])
			total += m.Energy(theta)
		}
		for _, d := range mt.Dihedrals {
			if !inGroup(d.I) || !inGroup(d.J) || !inGroup(d.K) || !inGroup(d.L) {
				continue
			}
			m := f.DihedralModelForType(d.Type)
			if m == nil {
				continue
			}
			phi := siteDihedral(cfg, sites[d.I], sites[d.J], sites[d.K], sites[d.L])
			total += m.Energy(phi)
		}
	}
	return total
}

func siteDistance(cfg *particle.Configuration, i, j int) float64 {
	pi, pj := cfg.Sites[i].Position, cfg.Sites[j].Position
	dx, dy, dz := pj[0]-pi[0], pj[1]-pi[1], pj[2]-pi[2]
	_, _, _, r2 := cfg.Domain.MinImageSq(dx, dy, dz)
	return math.Sqrt(r2)
}

func siteAngle(cfg *particle.Configuration, i, j, k int) float64 {
	pi, pj, pk := cfg.Sites[i].Position, cfg.Sites[j].Position, cfg.Sites[k].Position
	ux, uy, uz, _ := cfg.Domain.MinImageSq(pi[0]-pj[0], pi[1]-pj[1], pi[2]-pj[2])
	vx, vy, vz, _ := cfg.Domain.MinImageSq(pk[0]-pj[0], pk[1]-pj[1], pk[2]-pj[2])
	dot := ux*vx + uy*vy + uz*vz
	lu := math.Sqrt(ux*ux + uy*uy + uz*uz)
	lv := math.Sqrt(vx*vx + vy*vy + vz*vz)
	return math.Acos(clamp(dot/(lu*lv), -1, 1))
}

func siteDihedral(cfg *particle.Configuration, i, j, k, l int) float64 {
	pi, pj, pk, pl := cfg.Sites[i].Position, cfg.Sites[j].Position, cfg.Sites[k].Position, cfg.Sites[l].Position
	b1x, b1y, b1z, _ := cfg.Domain.MinImageSq(pj[0]-pi[0], pj[1]-pi[1], pj[2]-pi[2])
	b2x, b2y, b2z, _ := cfg.Domain.MinImageSq(pk[0]-pj[0], pk[1]-pj[1], pk[2]-pj[2])
	b3x, b3y, b3z, _ := cfg.Domain.MinImageSq(pl[0]-pk[0], pl[1]-pk[1], pl[2]-pk[2])

	n1x, n1y, n1z := cross(b1x, b1y, b1z, b2x, b2y, b2z)
	n2x, n2y, n2z := cross(b2x, b2y, b2z, b3x, b3y, b3z)

	b2len := math.Sqrt(b2x*b2x + b2y*b2y + b2z*b2z)
	m1x, m1y, m1z := cross(n1x, n1y, n1z, b2x/b2len, b2y/b2len, b2z/b2len)

	x := dot3(n1x, n1y, n1z, n2x, n2y, n2z)
	y := dot3(m1x, m1y, m1z, n2x, n2y, n2z)
	return math.Atan2(y, x)
}

func cross(ax, ay, az, bx, by, bz float64) (float64, float64, float64) {
	return ay*bz - az*by, az*bx - ax*bz, ax*by - ay*bx
}

func dot3(ax, ay, az, bx, by, bz float64) float64 { return ax*bx + ay*by + az*bz }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
