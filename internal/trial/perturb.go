package trial

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/sarat-asymmetrica/fhmc/internal/particle"
	"github.com/sarat-asymmetrica/fhmc/internal/potential"
)

// Undo restores whatever a Perturber's Move mutated. The trial pipeline
// calls it exactly once, only on rejection.
type Undo func()

// Perturber proposes new coordinates for sel.Mobile, mutating cfg in
// place, and returns the closure that reverts the change.
//
// Grounded on the teacher's coordinate-perturbation step
// (backend/internal/sampling/monte_carlo.go: perturbCoordinates, a
// Gaussian offset applied then undone on rejection) generalized from a
// single fixed Gaussian-translate move to the full perturber-class
// table of spec.md §4.6.
type Perturber interface {
	Name() string
	Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo
}

func savePositions(cfg *particle.Configuration, sites []int) []mgl64.Vec3 {
	saved := make([]mgl64.Vec3, len(sites))
	for i, s := range sites {
		saved[i] = cfg.Sites[s].Position
	}
	return saved
}

func restorePositions(cfg *particle.Configuration, sites []int, saved []mgl64.Vec3) Undo {
	return func() {
		for i, s := range sites {
			cfg.MoveSite(s, saved[i])
		}
	}
}

func randomUnitVector(rng *rand.Rand) mgl64.Vec3 {
	z := 2*rng.Float64() - 1
	theta := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(theta), r * math.Sin(theta), z}
}

// Translate displaces every mobile site by one shared random vector in
// a cube of half-width Tune.Value, wrapped through the box.
type Translate struct {
	Tune *Tunable
}

func (Translate) Name() string { return "translate" }

func (t Translate) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	saved := savePositions(cfg, sel.Mobile)
	delta := t.Tune.Value
	dx := (2*rng.Float64() - 1) * delta
	dy := (2*rng.Float64() - 1) * delta
	dz := (2*rng.Float64() - 1) * delta
	for _, s := range sel.Mobile {
		p := cfg.Sites[s].Position
		wx, wy, wz := cfg.Domain.Wrap(p[0]+dx, p[1]+dy, p[2]+dz)
		cfg.MoveSite(s, mgl64.Vec3{wx, wy, wz})
	}
	return restorePositions(cfg, sel.Mobile, saved)
}

// Rotate spins the mobile set by a uniform angle in [-Δ,Δ] (radians)
// about a random axis through the selection's first site.
type Rotate struct {
	Tune *Tunable
}

func (Rotate) Name() string { return "rotate" }

func (r Rotate) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	saved := savePositions(cfg, sel.Mobile)
	pivot := cfg.Sites[sel.Mobile[0]].Position
	axis := randomUnitVector(rng)
	angle := (2*rng.Float64() - 1) * r.Tune.Value
	q := mgl64.QuatRotate(angle, axis)
	for _, s := range sel.Mobile {
		rel := cfg.Sites[s].Position.Sub(pivot)
		rotated := q.Rotate(rel)
		cfg.MoveSite(s, pivot.Add(rotated))
		if site := cfg.Sites[s]; site.HasOrient {
			site.Orientation = q.Mul(site.Orientation)
		}
	}
	return restorePositions(cfg, sel.Mobile, saved)
}

// Distance regrows a bonded mobile site at anchor + length*random-unit,
// with length drawn from the bond model's configurational-bias sampler.
type Distance struct {
	Bond potential.BondModel
}

func (Distance) Name() string { return "distance" }

func (d Distance) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	mobile := sel.Mobile[0]
	saved := savePositions(cfg, []int{mobile})
	anchor := cfg.Sites[sel.Anchor[0]].Position
	length := d.Bond.RandomLength(beta, rng)
	u := randomUnitVector(rng)
	cfg.MoveSite(mobile, anchor.Add(u.Mul(length)))
	return restorePositions(cfg, []int{mobile}, saved)
}

// DistanceAngle places the mobile site at bond length l from anchor[0]
// and angle theta about anchor[1]-anchor[0], with l and theta each
// independently drawn from their model's configurational-bias sampler,
// then spun uniformly about the anchor axis.
type DistanceAngle struct {
	Bond  potential.BondModel
	Angle potential.AngleModel
}

func (DistanceAngle) Name() string { return "distance_angle" }

func (d DistanceAngle) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	mobile := sel.Mobile[0]
	saved := savePositions(cfg, []int{mobile})
	a0 := cfg.Sites[sel.Anchor[0]].Position
	a1 := cfg.Sites[sel.Anchor[1]].Position

	length := d.Bond.RandomLength(beta, rng)
	theta := d.Angle.RandomAngle(beta, rng)

	axis := a0.Sub(a1).Normalize()
	perp := perpendicularTo(axis, rng)
	q := mgl64.QuatRotate(math.Pi-theta, perp)
	dir := q.Rotate(axis)
	spin := mgl64.QuatRotate(2*math.Pi*rng.Float64(), axis)
	dir = spin.Rotate(dir)

	cfg.MoveSite(mobile, a0.Add(dir.Mul(length)))
	return restorePositions(cfg, []int{mobile}, saved)
}

func perpendicularTo(axis mgl64.Vec3, rng *rand.Rand) mgl64.Vec3 {
	arbitrary := mgl64.Vec3{1, 0, 0}
	if math.Abs(axis.Dot(arbitrary)) > 0.9 {
		arbitrary = mgl64.Vec3{0, 1, 0}
	}
	return axis.Cross(arbitrary).Normalize()
}

// Dihedral is DistanceAngle with an additional uniform spin drawn from
// the dihedral model's sampler about the anchor1->anchor2 axis.
type Dihedral struct {
	Bond     potential.BondModel
	Angle    potential.AngleModel
	Dihedral potential.DihedralModel
}

func (Dihedral) Name() string { return "dihedral" }

func (d Dihedral) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	mobile := sel.Mobile[0]
	saved := savePositions(cfg, []int{mobile})
	a0 := cfg.Sites[sel.Anchor[0]].Position
	a1 := cfg.Sites[sel.Anchor[1]].Position

	length := d.Bond.RandomLength(beta, rng)
	theta := d.Angle.RandomAngle(beta, rng)
	phi := d.Dihedral.RandomDihedral(beta, rng)

	axis := a0.Sub(a1).Normalize()
	perp := perpendicularTo(axis, rng)
	q := mgl64.QuatRotate(math.Pi-theta, perp)
	dir := q.Rotate(axis)
	spin := mgl64.QuatRotate(phi, axis)
	dir = spin.Rotate(dir)

	cfg.MoveSite(mobile, a0.Add(dir.Mul(length)))
	return restorePositions(cfg, []int{mobile}, saved)
}

// Branch places the mobile site by rejection-sampling all three
// branch-point angle distributions jointly against the three anchors,
// accepting the first candidate that satisfies all three.
type Branch struct {
	Bond            potential.BondModel
	Angle1, Angle2, Angle3 potential.AngleModel
	MaxTries        int
}

func (Branch) Name() string { return "branch" }

func (b Branch) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	mobile := sel.Mobile[0]
	saved := savePositions(cfg, []int{mobile})
	a0 := cfg.Sites[sel.Anchor[0]].Position
	a1 := cfg.Sites[sel.Anchor[1]].Position
	a2 := cfg.Sites[sel.Anchor[2]].Position

	maxTries := b.MaxTries
	if maxTries <= 0 {
		maxTries = 1000
	}
	length := b.Bond.RandomLength(beta, rng)
	// The anchor1-anchor0-anchor2 angle does not depend on the candidate,
	// so its weight is one constant factor of every joint acceptance.
	w3 := math.Exp(-beta * b.Angle3.Energy(angleBetween(a1, a0, a2)))
	var candidate mgl64.Vec3
	for try := 0; try < maxTries; try++ {
		u := randomUnitVector(rng)
		candidate = a0.Add(u.Mul(length))
		t1 := angleBetween(candidate, a0, a1)
		t2 := angleBetween(candidate, a0, a2)
		w1 := math.Exp(-beta * b.Angle1.Energy(t1))
		w2 := math.Exp(-beta * b.Angle2.Energy(t2))
		if rng.Float64() < w1*w2*w3 {
			break
		}
	}
	cfg.MoveSite(mobile, candidate)
	return restorePositions(cfg, []int{mobile}, saved)
}

func angleBetween(p, vertex, q mgl64.Vec3) float64 {
	u, v := p.Sub(vertex), q.Sub(vertex)
	cosT := u.Dot(v) / (u.Len() * v.Len())
	if cosT > 1 {
		cosT = 1
	}
	if cosT < -1 {
		cosT = -1
	}
	return math.Acos(cosT)
}

// Reptate moves one chain end by one bond length and shifts every
// intermediate site's position (and, for a heteropolymer, type) down
// the chain by one slot.
type Reptate struct {
	Bond potential.BondModel
}

func (Reptate) Name() string { return "reptate" }

func (r Reptate) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	chain := sel.Anchor // full chain, set by ChainSelector's ChainReptation mode
	end := int(sel.Properties["reptate_end"])
	n := len(chain)
	savedPos := savePositions(cfg, chain)
	savedType := make([]int, n)
	for i, s := range chain {
		savedType[i] = cfg.Sites[s].Type
	}

	length := r.Bond.RandomLength(beta, rng)
	u := randomUnitVector(rng)

	if end == n-1 {
		newEnd := cfg.Sites[chain[n-1]].Position.Add(u.Mul(length))
		for i := 0; i < n-1; i++ {
			cfg.MoveSite(chain[i], cfg.Sites[chain[i+1]].Position)
			cfg.Sites[chain[i]].Type = savedType[i+1]
		}
		cfg.MoveSite(chain[n-1], newEnd)
		cfg.Sites[chain[n-1]].Type = savedType[n-1]
	} else {
		newStart := cfg.Sites[chain[0]].Position.Add(u.Mul(length))
		for i := n - 1; i > 0; i-- {
			cfg.MoveSite(chain[i], cfg.Sites[chain[i-1]].Position)
			cfg.Sites[chain[i]].Type = savedType[i-1]
		}
		cfg.MoveSite(chain[0], newStart)
		cfg.Sites[chain[0]].Type = savedType[0]
	}

	return func() {
		for i, s := range chain {
			cfg.MoveSite(s, savedPos[i])
			cfg.Sites[s].Type = savedType[i]
		}
	}
}

// Volume rescales the box (linearly or logarithmically) and every
// molecule's center of mass, leaving intramolecular bond/angle geometry
// untouched.
type Volume struct {
	Tune        *Tunable
	Logarithmic bool
}

func (Volume) Name() string { return "volume" }

func (v Volume) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	box := cfg.Domain
	oldLx, oldLy, oldLz := box.Lx, box.Ly, box.Lz
	oldVol := box.Volume()

	var newVol float64
	delta := (2*rng.Float64() - 1) * v.Tune.Value
	if v.Logarithmic {
		newVol = oldVol * math.Exp(delta)
	} else {
		newVol = oldVol + delta
	}
	scale := math.Cbrt(newVol / oldVol)

	allSites := make([]int, 0, len(cfg.Sites))
	for i, s := range cfg.Sites {
		if s.IsPhysical {
			allSites = append(allSites, i)
		}
	}
	saved := savePositions(cfg, allSites)

	box.Lx, box.Ly, box.Lz = oldLx*scale, oldLy*scale, oldLz*scale
	for pIdx, p := range cfg.Particles {
		if !p.IsPhysical {
			continue
		}
		sites := cfg.SitesOfParticle(pIdx)
		com := centerOfMass(cfg, sites)
		scaled := com.Mul(scale)
		shift := scaled.Sub(com)
		for _, s := range sites {
			cfg.MoveSite(s, cfg.Sites[s].Position.Add(shift))
		}
	}

	return func() {
		box.Lx, box.Ly, box.Lz = oldLx, oldLy, oldLz
		for i, s := range allSites {
			cfg.MoveSite(s, saved[i])
		}
	}
}

func centerOfMass(cfg *particle.Configuration, sites []int) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, s := range sites {
		sum = sum.Add(cfg.Sites[s].Position)
	}
	return sum.Mul(1.0 / float64(len(sites)))
}

// Add stages a new particle of TypeID at a uniform random position (and,
// if AnisotropicOrientation, a uniform random orientation), leaving it
// as a ghost until the trial pipeline commits.
type Add struct {
	TypeID                  int
	AnisotropicOrientation bool
}

func (Add) Name() string { return "add" }

func (a Add) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	idx := cfg.PendingAdd(a.TypeID)
	sites := cfg.SitesOfParticle(idx)
	box := cfg.Domain
	for _, s := range sites {
		pos := mgl64.Vec3{
			(rng.Float64() - 0.5) * box.Lx,
			(rng.Float64() - 0.5) * box.Ly,
			(rng.Float64() - 0.5) * box.Lz,
		}
		cfg.Sites[s].Position = pos
		if a.AnisotropicOrientation {
			cfg.Sites[s].HasOrient = true
			cfg.Sites[s].Orientation = mgl64.QuatRotate(2*math.Pi*rng.Float64(), randomUnitVector(rng))
		}
	}
	sel.Mobile = sites
	return func() { cfg.RevertAdd(idx) }
}

// Remove defers release of the selected particle's storage slot until
// the trial pipeline's finalize step.
type Remove struct{}

func (Remove) Name() string { return "remove" }

func (r Remove) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	pIdx := particleOwning(cfg, sel.Mobile[0])
	cfg.PendingRemove(pIdx)
	return func() { cfg.RevertRemove(pIdx) }
}

func particleOwning(cfg *particle.Configuration, siteID int) int {
	for i, p := range cfg.Particles {
		mt := cfg.Types[p.TypeID]
		if siteID >= p.SiteStart && siteID < p.SiteStart+mt.NumSites() {
			return i
		}
	}
	return -1
}

// ParticleType swaps a molecule's declared type (a morphology move),
// remapping every site's type entry from the old template to the new
// one in place.
type ParticleType struct {
	NewTypeID int
}

func (ParticleType) Name() string { return "particle_type" }

func (p ParticleType) Move(cfg *particle.Configuration, sel *Selection, beta float64, rng *rand.Rand) Undo {
	pIdx := particleOwning(cfg, sel.Mobile[0])
	particleObj := cfg.Particles[pIdx]
	oldType := particleObj.TypeID
	newMT := cfg.Types[p.NewTypeID]

	sites := cfg.SitesOfParticle(pIdx)
	savedTypes := make([]int, len(sites))
	for i, s := range sites {
		savedTypes[i] = cfg.Sites[s].Type
		if i < len(newMT.SiteTypes) {
			cfg.Sites[s].Type = newMT.SiteTypes[i]
		}
	}
	particleObj.TypeID = p.NewTypeID

	return func() {
		particleObj.TypeID = oldType
		for i, s := range sites {
			cfg.Sites[s].Type = savedTypes[i]
		}
	}
}
