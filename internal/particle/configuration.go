package particle

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/sarat-asymmetrica/fhmc/internal/fatal"
)

// GroupPredicate selects a subset of sites for visitor iteration, e.g.
// "every site of particle type 2" or "every site of site-type 0".
type GroupPredicate func(cfg *Configuration, siteIdx int) bool

// Configuration owns the particle list, the domain, model parameters,
// named groups, the ghost pool for delayed-commit add/remove, and the
// registry of cell lists.
//
// Grounded on backend/internal/parser (Protein holding Atoms/Residues)
// with the deep-clone idiom of protein_methods.go:Copy carried over
// into Configuration.Clone.
type Configuration struct {
	Domain *domain.Box
	Params *ModelParams
	Types  []*MoleculeType

	Sites     []*Site
	Particles []*Particle

	Groups    map[string]GroupPredicate
	CellLists map[string]*domain.CellList

	ghostPool []int // FIFO of particle indices available for reuse
}

// NewConfiguration creates an empty configuration over box.
func NewConfiguration(box *domain.Box, params *ModelParams) *Configuration {
	return &Configuration{
		Domain:    box,
		Params:    params,
		Groups:    make(map[string]GroupPredicate),
		CellLists: make(map[string]*domain.CellList),
	}
}

// AddParticleType registers a molecule-type template and returns its id.
func (c *Configuration) AddParticleType(mt *MoleculeType) int {
	c.Types = append(c.Types, mt)
	return len(c.Types) - 1
}

// RegisterCellList attaches a named cell list built over the
// configuration's domain.
func (c *Configuration) RegisterCellList(name string, minEdge float64) error {
	cl, err := domain.NewCellList(c.Domain, minEdge)
	if err != nil {
		return err
	}
	c.CellLists[name] = cl
	for i, s := range c.Sites {
		if s.IsPhysical {
			cl.Insert(i, s.Position[0], s.Position[1], s.Position[2])
			s.CellIndex[name] = mustCell(cl, i)
		}
	}
	return nil
}

func mustCell(cl *domain.CellList, siteID int) int {
	idx, _ := cl.CellOf(siteID)
	return idx
}

// PendingAdd reserves storage for a new particle of the given type,
// drawing from the ghost pool in FIFO order when available, and marks
// every one of its sites unphysical. The caller must place the sites
// and then call CommitAdd or RevertAdd exactly once.
func (c *Configuration) PendingAdd(typeID int) int {
	mt := c.Types[typeID]
	if len(c.ghostPool) > 0 {
		idx := c.ghostPool[0]
		c.ghostPool = c.ghostPool[1:]
		p := c.Particles[idx]
		p.TypeID = typeID
		p.IsPhysical = false
		for k := 0; k < mt.NumSites(); k++ {
			s := c.Sites[p.SiteStart+k]
			s.Type = mt.SiteTypes[k]
			s.IsPhysical = false
		}
		return idx
	}

	start := len(c.Sites)
	for k := 0; k < mt.NumSites(); k++ {
		s := NewSite(mt.SiteTypes[k], mgl64.Vec3{})
		s.IsPhysical = false
		c.Sites = append(c.Sites, s)
	}
	c.Particles = append(c.Particles, &Particle{TypeID: typeID, SiteStart: start, IsPhysical: false})
	return len(c.Particles) - 1
}

// CommitAdd marks a pending add's sites (and the particle) physical,
// and inserts them into every registered cell list.
func (c *Configuration) CommitAdd(idx int) {
	p := c.Particles[idx]
	p.IsPhysical = true
	mt := c.Types[p.TypeID]
	for k := 0; k < mt.NumSites(); k++ {
		s := c.Sites[p.SiteStart+k]
		s.IsPhysical = true
		pos := s.Position
		for name, cl := range c.CellLists {
			cl.Insert(p.SiteStart+k, pos[0], pos[1], pos[2])
			s.CellIndex[name] = mustCell(cl, p.SiteStart+k)
		}
	}
}

// RevertAdd undoes a pending add without ever having touched cell
// membership, returning the slot to the ghost pool.
func (c *Configuration) RevertAdd(idx int) {
	c.ghostPool = append(c.ghostPool, idx)
}

// PendingRemove marks a physical particle's sites unphysical and
// removes them from every cell list, deferring release of the storage
// slot until CommitRemove.
func (c *Configuration) PendingRemove(idx int) {
	p := c.Particles[idx]
	mt := c.Types[p.TypeID]
	for k := 0; k < mt.NumSites(); k++ {
		s := c.Sites[p.SiteStart+k]
		s.IsPhysical = false
		for _, cl := range c.CellLists {
			cl.Remove(p.SiteStart + k)
		}
	}
}

// CommitRemove finalizes a pending remove: the particle becomes a
// ghost, reusable by a future PendingAdd in FIFO order.
func (c *Configuration) CommitRemove(idx int) {
	p := c.Particles[idx]
	p.IsPhysical = false
	c.ghostPool = append(c.ghostPool, idx)
}

// RevertRemove restores a pending remove's sites/cell membership,
// undoing PendingRemove before it is committed.
func (c *Configuration) RevertRemove(idx int) {
	p := c.Particles[idx]
	mt := c.Types[p.TypeID]
	for k := 0; k < mt.NumSites(); k++ {
		s := c.Sites[p.SiteStart+k]
		s.IsPhysical = true
		pos := s.Position
		for name, cl := range c.CellLists {
			cl.Insert(p.SiteStart+k, pos[0], pos[1], pos[2])
			s.CellIndex[name] = mustCell(cl, p.SiteStart+k)
		}
	}
}

// MoveSite updates a site's position and every registered cell list's
// membership for it.
func (c *Configuration) MoveSite(siteID int, pos mgl64.Vec3) {
	s := c.Sites[siteID]
	s.Position = pos
	for name, cl := range c.CellLists {
		cl.Move(siteID, pos[0], pos[1], pos[2])
		s.CellIndex[name] = mustCell(cl, siteID)
	}
}

// NumParticlesOfType counts physical particles of the given type.
func (c *Configuration) NumParticlesOfType(typeID int) int {
	n := 0
	for _, p := range c.Particles {
		if p.IsPhysical && p.TypeID == typeID {
			n++
		}
	}
	return n
}

// SitesOfParticle returns the global site indices owned by particle idx.
func (c *Configuration) SitesOfParticle(idx int) []int {
	p := c.Particles[idx]
	mt := c.Types[p.TypeID]
	out := make([]int, mt.NumSites())
	for k := range out {
		out[k] = p.SiteStart + k
	}
	return out
}

// ValidateCellLists recomputes every registered cell list's membership
// from live site positions and fatally aborts on mismatch (spec.md §8
// property 2).
func (c *Configuration) ValidateCellLists() {
	for _, cl := range c.CellLists {
		cl.Validate(func(siteID int) (float64, float64, float64) {
			p := c.Sites[siteID].Position
			return p[0], p[1], p[2]
		})
	}
}

// Clone deep-copies the configuration: every site, particle, and cell
// list is independently allocated so mutations on the clone never
// alias the original. This is the revert/synchronize primitive used by
// multi-worker deep copies (spec.md §5 prefetch) and by Trial staging.
func (c *Configuration) Clone() *Configuration {
	clone := &Configuration{
		Domain:    &domain.Box{Lx: c.Domain.Lx, Ly: c.Domain.Ly, Lz: c.Domain.Lz, XY: c.Domain.XY, XZ: c.Domain.XZ, YZ: c.Domain.YZ, Periodic: c.Domain.Periodic},
		Params:    c.Params,
		Types:     c.Types,
		Groups:    c.Groups,
		CellLists: make(map[string]*domain.CellList),
		ghostPool: append([]int(nil), c.ghostPool...),
	}
	clone.Sites = make([]*Site, len(c.Sites))
	for i, s := range c.Sites {
		clone.Sites[i] = s.Clone()
	}
	clone.Particles = make([]*Particle, len(c.Particles))
	for i, p := range c.Particles {
		clone.Particles[i] = p.Clone()
	}
	for name, cl := range c.CellLists {
		ncl, err := domain.NewCellList(clone.Domain, cl.MinEdge)
		if err != nil {
			fatal.Raise("Configuration", "Clone", "cell list %q failed to rebuild: %v", name, err)
		}
		clone.CellLists[name] = ncl
		for i, s := range clone.Sites {
			if s.IsPhysical {
				ncl.Insert(i, s.Position[0], s.Position[1], s.Position[2])
			}
		}
	}
	return clone
}
