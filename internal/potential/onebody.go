package potential

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ElectricField applies a uniform field along x: E = -q*E_field*x.
//
// Grounded on force_field.go's charge handling, generalized to the
// uniform-field one-body term named in spec.md §4.3.
type ElectricField struct {
	FieldStrength float64
	Charge        func(typeID int) float64
}

func (f *ElectricField) Name() string { return "electric_field" }

func (f *ElectricField) EnergySite(pos mgl64.Vec3, typeID int) float64 {
	return -f.Charge(typeID) * f.FieldStrength * pos[0]
}

// SlitBarrier is a hard confining wall at z = +-HalfWidth.
type SlitBarrier struct {
	HalfWidth float64
}

func (b *SlitBarrier) Name() string { return "slit_hard" }

func (b *SlitBarrier) EnergySite(pos mgl64.Vec3, typeID int) float64 {
	if math.Abs(pos[2]) > b.HalfWidth {
		return math.Inf(1)
	}
	return 0
}

// SquareWellSlit is a slit pore with an attractive well of depth
// Epsilon within Width of each wall.
type SquareWellSlit struct {
	HalfWidth float64
	WellWidth float64
	Epsilon   float64
}

func (b *SquareWellSlit) Name() string { return "slit_square_well" }

func (b *SquareWellSlit) EnergySite(pos mgl64.Vec3, typeID int) float64 {
	d := b.HalfWidth - math.Abs(pos[2])
	if d < 0 {
		return math.Inf(1)
	}
	if d < b.WellWidth {
		return -b.Epsilon
	}
	return 0
}

// SquareWellCylinder confines sites within a cylindrical pore of
// Radius about the z-axis, with an attractive ring of width WellWidth
// at the wall.
type SquareWellCylinder struct {
	Radius    float64
	WellWidth float64
	Epsilon   float64
}

func (b *SquareWellCylinder) Name() string { return "cylinder_square_well" }

func (b *SquareWellCylinder) EnergySite(pos mgl64.Vec3, typeID int) float64 {
	rho := math.Hypot(pos[0], pos[1])
	d := b.Radius - rho
	if d < 0 {
		return math.Inf(1)
	}
	if d < b.WellWidth {
		return -b.Epsilon
	}
	return 0
}

// LennardJonesSlit is a 9-3 integrated LJ wall potential (the standard
// result of integrating a 12-6 potential over a half-space of atoms),
// confining sites between two parallel walls at z = +-HalfWidth.
type LennardJonesSlit struct {
	HalfWidth float64
	Epsilon   float64
	Sigma     float64
}

func (b *LennardJonesSlit) Name() string { return "slit_lj93" }

func (b *LennardJonesSlit) wallEnergy(d float64) float64 {
	if d <= 0 {
		return math.Inf(1)
	}
	sr := b.Sigma / d
	sr3 := sr * sr * sr
	sr9 := sr3 * sr3 * sr3
	return b.Epsilon * ((2.0/15.0)*sr9 - sr3)
}

func (b *LennardJonesSlit) EnergySite(pos mgl64.Vec3, typeID int) float64 {
	dTop := b.HalfWidth - pos[2]
	dBot := b.HalfWidth + pos[2]
	return b.wallEnergy(dTop) + b.wallEnergy(dBot)
}
