// Package visitor implements the tuple-iteration strategies that walk a
// Configuration and accumulate potential.Factory term energies:
// all-pairs, cell-list, selection, intramolecular, one-body, and the
// bond/angle/dihedral (three/four-body) dispatcher.
//
// Grounded on the teacher's pairwise iteration code
// (backend/internal/physics/clash_detector.go, spatial_hash.go): the
// "loop cell, loop neighbor cells, skip already-visited ordered pairs"
// shape carries over directly into CellList.
package visitor

import (
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
)

// Visitor accumulates potential energy over some subset of tuples in a
// Configuration.
type Visitor interface {
	Name() string
}

// pairEnergy evaluates every registered PairModel (isotropic and
// anisotropic) between sites i and j, applying each model's own cutoff,
// and optionally records the contribution into an EnergyMap.
func pairEnergy(cfg *particle.Configuration, f *potential.Factory, i, j int, emap *EnergyMap) float64 {
	si, sj := cfg.Sites[i], cfg.Sites[j]
	if !si.IsPhysical || !sj.IsPhysical {
		return 0
	}
	dx := sj.Position[0] - si.Position[0]
	dy := sj.Position[1] - si.Position[1]
	dz := sj.Position[2] - si.Position[2]
	sx, sy, sz, r2 := cfg.Domain.MinImageSq(dx, dy, dz)

	var total float64
	for idx, m := range f.Pairs {
		cut := m.CutoffSq(si.Type, sj.Type, cfg.Params)
		if cut > 0 && r2 > cut {
			continue
		}
		var e float64
		if aniso, ok := m.(potential.AnisotropicPairModel); ok && si.HasOrient && sj.HasOrient {
			dr := mkVec3(sx, sy, sz)
			e = aniso.EnergyOriented(dr, r2, si.Orientation, sj.Orientation, si.Type, sj.Type, cfg.Params)
		} else {
			e = m.EnergyR2(r2, si.Type, sj.Type, cfg.Params)
		}
		total += e
		if emap != nil {
			emap.Record(i, j, idx, e, r2)
		}
	}
	return total
}

// AllPairs sums every distinct inter-particle pair of physical sites in
// group. Intra-particle pairs are left to Intramolecular so bonded
// exclusions are applied exactly once.
type AllPairs struct{}

func (AllPairs) Name() string { return "all_pairs" }

func (AllPairs) Compute(cfg *particle.Configuration, group particle.GroupPredicate, f *potential.Factory, emap *EnergyMap) float64 {
	members := selectGroup(cfg, group)
	var total float64
	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			i, j := members[a], members[b]
			if particleOf(cfg, i) == particleOf(cfg, j) {
				continue
			}
			total += pairEnergy(cfg, f, i, j, emap)
		}
	}
	return total
}

// CellList sums pairs using a registered domain.CellList: outer loop
// over cells, inner loop over each cell's 27-neighbor stencil, with the
// ordered-pair-visited-once rule enforced by only descending into
// neighbor cells whose index is >= the current cell's.
type CellList struct {
	ListName string
}

func (c CellList) Name() string { return "cell_list" }

func (c CellList) Compute(cfg *particle.Configuration, group particle.GroupPredicate, f *potential.Factory, emap *EnergyMap) float64 {
	cl := cfg.CellLists[c.ListName]
	allowed := groupSet(cfg, group)
	var total float64
	for cellIdx := 0; cellIdx < cl.NumCells(); cellIdx++ {
		members := cl.Cell(cellIdx)
		for _, nb := range cl.NeighborCells(cellIdx) {
			if nb < cellIdx {
				continue
			}
			neighborMembers := cl.Cell(nb)
			for ai, i := range members {
				if !allowed[i] {
					continue
				}
				startB := 0
				if nb == cellIdx {
					startB = ai + 1
				}
				for bi := startB; bi < len(neighborMembers); bi++ {
					j := neighborMembers[bi]
					if !allowed[j] || i == j {
						continue
					}
					if particleOf(cfg, i) == particleOf(cfg, j) {
						continue
					}
					total += pairEnergy(cfg, f, i, j, emap)
				}
			}
		}
	}
	return total
}

// Selection sums pairs between a mobile set and every other physical
// site in group (honoring a cell list if one is attached under
// ListName), used by trial-compute for the selection-energy query.
type Selection struct {
	ListName string // empty means brute-force
}

func (s Selection) Name() string { return "selection" }

func (s Selection) Compute(cfg *particle.Configuration, mobile []int, group particle.GroupPredicate, f *potential.Factory, emap *EnergyMap) float64 {
	allowed := groupSet(cfg, group)
	mobileSet := make(map[int]bool, len(mobile))
	for _, m := range mobile {
		mobileSet[m] = true
	}

	var total float64
	visit := func(i, j int) {
		if i == j || !allowed[j] || mobileSet[j] {
			return
		}
		if particleOf(cfg, i) == particleOf(cfg, j) {
			return
		}
		total += pairEnergy(cfg, f, i, j, emap)
	}

	if s.ListName == "" {
		all := selectGroup(cfg, group)
		for _, i := range mobile {
			for _, j := range all {
				visit(i, j)
			}
		}
		return total
	}

	cl := cfg.CellLists[s.ListName]
	for _, i := range mobile {
		pos := cfg.Sites[i].Position
		cellIdx := cl.CellIndex(pos[0], pos[1], pos[2])
		for _, nb := range cl.NeighborCells(cellIdx) {
			for _, j := range cl.Cell(nb) {
				visit(i, j)
			}
		}
	}
	return total
}

// Intramolecular sums two-body terms within each molecule, skipping
// site pairs whose topological bond-graph distance is at most
// ExcludeBondDistance (the "excluded-by-bond-distance" rule of
// spec.md §4.3).
type Intramolecular struct {
	ExcludeBondDistance int
}

func (m Intramolecular) Name() string { return "intramolecular" }

func (m Intramolecular) Compute(cfg *particle.Configuration, group particle.GroupPredicate, f *potential.Factory, emap *EnergyMap) float64 {
	var total float64
	for pIdx, p := range cfg.Particles {
		if !p.IsPhysical {
			continue
		}
		sites := cfg.SitesOfParticle(pIdx)
		dist := bondGraphDistances(cfg.Types[p.TypeID], len(sites))
		for a := 0; a < len(sites); a++ {
			for b := a + 1; b < len(sites); b++ {
				if dist[a][b] <= m.ExcludeBondDistance {
					continue
				}
				i, j := sites[a], sites[b]
				if !group(cfg, i) || !group(cfg, j) {
					continue
				}
				total += pairEnergy(cfg, f, i, j, emap)
			}
		}
	}
	return total
}

func bondGraphDistances(mt *particle.MoleculeType, n int) [][]int {
	const inf = 1 << 20
	dist := make([][]int, n)
	for i := range dist {
		dist[i] = make([]int, n)
		for j := range dist[i] {
			if i == j {
				dist[i][j] = 0
			} else {
				dist[i][j] = inf
			}
		}
	}
	for _, b := range mt.Bonds {
		dist[b.I][b.J] = 1
		dist[b.J][b.I] = 1
	}
	// Floyd-Warshall: molecules are small enough (tens of sites) that
	// the O(n^3) closure is negligible next to the pair-energy work it
	// gates.
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if dist[i][k]+dist[k][j] < dist[i][j] {
					dist[i][j] = dist[i][k] + dist[k][j]
				}
			}
		}
	}
	return dist
}

// OneBody sums every registered OneBodyModel over every physical site
// in group.
type OneBody struct{}

func (OneBody) Name() string { return "one_body" }

func (OneBody) Compute(cfg *particle.Configuration, group particle.GroupPredicate, f *potential.Factory) float64 {
	var total float64
	for _, i := range selectGroup(cfg, group) {
		s := cfg.Sites[i]
		for _, m := range f.OneBody {
			total += m.EnergySite(s.Position, s.Type)
		}
	}
	return total
}

func selectGroup(cfg *particle.Configuration, group particle.GroupPredicate) []int {
	var out []int
	for i, s := range cfg.Sites {
		if s.IsPhysical && group(cfg, i) {
			out = append(out, i)
		}
	}
	return out
}

func groupSet(cfg *particle.Configuration, group particle.GroupPredicate) map[int]bool {
	set := make(map[int]bool)
	for _, i := range selectGroup(cfg, group) {
		set[i] = true
	}
	return set
}

func particleOf(cfg *particle.Configuration, siteID int) int {
	// Sites are stored contiguously per particle (particle.SiteStart..+NumSites);
	// binary search the particle whose range contains siteID.
	lo, hi := 0, len(cfg.Particles)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		p := cfg.Particles[mid]
		start := p.SiteStart
		end := start + cfg.Types[p.TypeID].NumSites()
		if siteID < start {
			hi = mid - 1
		} else if siteID >= end {
			lo = mid + 1
		} else {
			return mid
		}
	}
	return -1
}

func mkVec3(x, y, z float64) vec3 { return vec3{x, y, z} }

// vec3 avoids importing mathgl into a file that otherwise only needs a
// plain triple; visitor callers needing mgl64.Vec3 convert at the edge
// (potential.AnisotropicPairModel's signature takes mgl64.Vec3 directly).
type vec3 = [3]float64
