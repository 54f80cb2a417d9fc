// Package trial implements the selector/perturber/compute pipeline a
// Trial runs each attempt: choose a mobile set of sites, propose new
// coordinates for it, price the proposal's energy change, and hand the
// criterion a finished acceptance record.
//
// Grounded on the teacher's candidate-generation loop
// (backend/internal/sampling/quat_search.go: pick a residue, propose a
// quaternion-perturbed orientation, evaluate) and
// backend/internal/sampling/fragments.go's segment/chain selection,
// generalized from a fixed protein backbone to arbitrary molecule
// templates and move classes.
package trial

import (
	"math/rand"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/visitor"
)

// Selection is the output of a Selector: the sites being moved, the
// sites anchoring the proposal, any sites excluded from energy
// evaluation, the selection probability (for detailed balance), and a
// bag of named properties (e.g. "angle_type") perturbers read.
type Selection struct {
	ConfigIdx int
	TypeID    int
	Mobile    []int
	Anchor    []int
	Excluded  []int
	PSel      float64
	Properties map[string]float64
}

// Selector builds a Selection for one trial attempt.
type Selector interface {
	Name() string
	Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool)
}

// ParticleSelector picks one physical particle of TypeID uniformly at
// random and moves all of its sites. Candidates are chosen by type only;
// there is no group constraint.
type ParticleSelector struct {
	TypeID int
}

func (s ParticleSelector) Name() string { return "select_particle" }

func (s ParticleSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	candidates := particlesOfType(cfg, s.TypeID)
	if len(candidates) == 0 {
		return Selection{}, false
	}
	idx := candidates[rng.Intn(len(candidates))]
	return Selection{
		ConfigIdx: configIdx,
		TypeID:    s.TypeID,
		Mobile:    cfg.SitesOfParticle(idx),
		PSel:      1.0 / float64(len(candidates)),
		Properties: map[string]float64{},
	}, true
}

// BondSelector picks a random molecule of TypeID and fixes the mobile
// site / anchor site pair to the construction-time bond-local indices.
type BondSelector struct {
	TypeID       int
	MobileLocal  int
	AnchorLocal  int
	BondType     int
}

func (s BondSelector) Name() string { return "select_bond" }

func (s BondSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	candidates := particlesOfType(cfg, s.TypeID)
	if len(candidates) == 0 {
		return Selection{}, false
	}
	idx := candidates[rng.Intn(len(candidates))]
	sites := cfg.SitesOfParticle(idx)
	return Selection{
		ConfigIdx: configIdx,
		TypeID:    s.TypeID,
		Mobile:    []int{sites[s.MobileLocal]},
		Anchor:    []int{sites[s.AnchorLocal]},
		PSel:      1.0 / float64(len(candidates)),
		Properties: map[string]float64{"bond_type": float64(s.BondType)},
	}, true
}

// AngleSelector is BondSelector's three-body analogue: one mobile site,
// two anchors, and an angle_type property.
type AngleSelector struct {
	TypeID                        int
	MobileLocal, Anchor1, Anchor2 int
	AngleType                     int
}

func (s AngleSelector) Name() string { return "select_angle" }

func (s AngleSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	candidates := particlesOfType(cfg, s.TypeID)
	if len(candidates) == 0 {
		return Selection{}, false
	}
	idx := candidates[rng.Intn(len(candidates))]
	sites := cfg.SitesOfParticle(idx)
	return Selection{
		ConfigIdx: configIdx,
		TypeID:    s.TypeID,
		Mobile:    []int{sites[s.MobileLocal]},
		Anchor:    []int{sites[s.Anchor1], sites[s.Anchor2]},
		PSel:      1.0 / float64(len(candidates)),
		Properties: map[string]float64{"angle_type": float64(s.AngleType)},
	}, true
}

// DihedralSelector is the four-body analogue: one mobile site, three
// anchors, and a dihedral_type property.
type DihedralSelector struct {
	TypeID                                   int
	MobileLocal, Anchor1, Anchor2, Anchor3    int
	DihedralType                             int
}

func (s DihedralSelector) Name() string { return "select_dihedral" }

func (s DihedralSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	candidates := particlesOfType(cfg, s.TypeID)
	if len(candidates) == 0 {
		return Selection{}, false
	}
	idx := candidates[rng.Intn(len(candidates))]
	sites := cfg.SitesOfParticle(idx)
	return Selection{
		ConfigIdx: configIdx,
		TypeID:    s.TypeID,
		Mobile:    []int{sites[s.MobileLocal]},
		Anchor:    []int{sites[s.Anchor1], sites[s.Anchor2], sites[s.Anchor3]},
		PSel:      1.0 / float64(len(candidates)),
		Properties: map[string]float64{"dihedral_type": float64(s.DihedralType)},
	}, true
}

// ClusterSelector performs a connected-components walk over an
// EnergyMap restricted to pairs whose |energy| exceeds the map's
// threshold, and selects one component uniformly — the rigid-body
// cluster-move selection of spec.md §4.5.
type ClusterSelector struct {
	EnergyMap *visitor.EnergyMap
}

func (s ClusterSelector) Name() string { return "select_cluster" }

func (s ClusterSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	var physical []int
	for i, st := range cfg.Sites {
		if st.IsPhysical {
			physical = append(physical, i)
		}
	}
	if len(physical) == 0 {
		return Selection{}, false
	}
	seen := make(map[int]bool, len(physical))
	var comps [][]int
	for _, p := range physical {
		if seen[p] {
			continue
		}
		c := s.EnergyMap.ConnectedComponent(p)
		for _, site := range c {
			seen[site] = true
		}
		comps = append(comps, c)
	}
	comp := comps[rng.Intn(len(comps))]
	return Selection{
		ConfigIdx:  configIdx,
		Mobile:     comp,
		PSel:       1.0 / float64(len(comps)),
		Properties: map[string]float64{},
	}, true
}

// AVBSelector chooses an anchor particle uniformly, then a target
// inside the anchor's aggregation volume v_AV = (4/3)*pi*(r_out^3 - r_in^3)
// (spec.md §4.5). Select sets the selection probability itself from the
// anchor count and, when InVolume, the count of targets inside the shell.
type AVBSelector struct {
	AnchorTypeID int
	TargetTypeID int
	RIn, ROut    float64
	InVolume     bool // true selects from inside the shell, false from outside (AVB2/AVB4 asymmetry)
}

func (s AVBSelector) Name() string { return "select_avb" }

func (s AVBSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	anchors := particlesOfType(cfg, s.AnchorTypeID)
	if len(anchors) == 0 {
		return Selection{}, false
	}
	anchorIdx := anchors[rng.Intn(len(anchors))]
	anchorSite := cfg.SitesOfParticle(anchorIdx)[0]

	var inShell []int
	for _, pIdx := range particlesOfType(cfg, s.TargetTypeID) {
		if pIdx == anchorIdx {
			continue
		}
		site := cfg.SitesOfParticle(pIdx)[0]
		if shellContains(cfg, anchorSite, site, s.RIn, s.ROut) {
			inShell = append(inShell, site)
		}
	}

	vAV := shellVolume(s.RIn, s.ROut)
	if s.InVolume {
		if len(inShell) == 0 {
			return Selection{}, false
		}
		target := inShell[rng.Intn(len(inShell))]
		return Selection{
			ConfigIdx:  configIdx,
			TypeID:     s.TargetTypeID,
			Mobile:     []int{target},
			Anchor:     []int{anchorSite},
			PSel:       1.0 / (float64(len(anchors)) * float64(len(inShell))),
			Properties: map[string]float64{"v_av": vAV, "n_av": float64(len(inShell))},
		}, true
	}

	return Selection{
		ConfigIdx:  configIdx,
		TypeID:     s.TargetTypeID,
		Anchor:     []int{anchorSite},
		PSel:       1.0 / float64(len(anchors)),
		Properties: map[string]float64{"v_av": vAV, "n_av": float64(len(inShell))},
	}, true
}

func shellContains(cfg *particle.Configuration, anchor, site int, rIn, rOut float64) bool {
	pa, ps := cfg.Sites[anchor].Position, cfg.Sites[site].Position
	_, _, _, r2 := cfg.Domain.MinImageSq(ps[0]-pa[0], ps[1]-pa[1], ps[2]-pa[2])
	return r2 >= rIn*rIn && r2 <= rOut*rOut
}

func shellVolume(rIn, rOut float64) float64 {
	const fourThirdsPi = 4.18879020478639
	return fourThirdsPi * (rOut*rOut*rOut - rIn*rIn*rIn)
}

// ChainMode names the specialized chain-move set constructions.
type ChainMode int

const (
	ChainEndSegment ChainMode = iota
	ChainSegment
	ChainBranch
	ChainReptation
	ChainSiteOfType
)

// ChainSelector builds the mobile/anchor sets for the specialized chain
// moves: end-segment, segment, branch, reptation, and site-of-type.
type ChainSelector struct {
	TypeID      int
	Mode        ChainMode
	SegmentLen  int // number of sites to regrow, for EndSegment/Segment
	SiteType    int // target site type, for SiteOfType
}

func (s ChainSelector) Name() string { return "select_chain" }

func (s ChainSelector) Select(cfg *particle.Configuration, configIdx int, rng *rand.Rand) (Selection, bool) {
	candidates := particlesOfType(cfg, s.TypeID)
	if len(candidates) == 0 {
		return Selection{}, false
	}
	idx := candidates[rng.Intn(len(candidates))]
	sites := cfg.SitesOfParticle(idx)
	n := len(sites)

	switch s.Mode {
	case ChainEndSegment:
		l := s.SegmentLen
		if l <= 0 || l > n {
			l = n
		}
		mobile := append([]int(nil), sites[n-l:]...)
		var anchor []int
		if n-l-1 >= 0 {
			anchor = []int{sites[n-l-1]}
		}
		return Selection{ConfigIdx: configIdx, TypeID: s.TypeID, Mobile: mobile, Anchor: anchor,
			PSel: 1.0 / float64(len(candidates)), Properties: map[string]float64{}}, true
	case ChainSegment:
		l := s.SegmentLen
		if l <= 0 || l >= n {
			return Selection{}, false
		}
		start := 1 + rng.Intn(n-l-1)
		mobile := append([]int(nil), sites[start:start+l]...)
		anchor := []int{sites[start-1], sites[start+l]}
		return Selection{ConfigIdx: configIdx, TypeID: s.TypeID, Mobile: mobile, Anchor: anchor,
			PSel: 1.0 / float64(len(candidates)), Properties: map[string]float64{}}, true
	case ChainReptation:
		if n < 2 {
			return Selection{}, false
		}
		end := n - 1
		if rng.Intn(2) == 0 {
			end = 0
		}
		return Selection{ConfigIdx: configIdx, TypeID: s.TypeID, Mobile: []int{sites[end]}, Anchor: sites,
			PSel: 0.5 / float64(len(candidates)), Properties: map[string]float64{"reptate_end": float64(end)}}, true
	case ChainSiteOfType:
		var matches []int
		for _, si := range sites {
			if cfg.Sites[si].Type == s.SiteType {
				matches = append(matches, si)
			}
		}
		if len(matches) == 0 {
			return Selection{}, false
		}
		mobile := matches[rng.Intn(len(matches))]
		return Selection{ConfigIdx: configIdx, TypeID: s.TypeID, Mobile: []int{mobile},
			PSel: 1.0 / (float64(len(candidates)) * float64(len(matches))), Properties: map[string]float64{}}, true
	default: // ChainBranch: mobile site plus three anchors (branch point geometry)
		if n < 4 {
			return Selection{}, false
		}
		return Selection{ConfigIdx: configIdx, TypeID: s.TypeID, Mobile: []int{sites[3]}, Anchor: []int{sites[0], sites[1], sites[2]},
			PSel: 1.0 / float64(len(candidates)), Properties: map[string]float64{}}, true
	}
}

func particlesOfType(cfg *particle.Configuration, typeID int) []int {
	var out []int
	for i, p := range cfg.Particles {
		if p.IsPhysical && p.TypeID == typeID {
			out = append(out, i)
		}
	}
	return out
}
