// Package particle implements the configuration/geometry data model:
// sites, particles, molecule-type templates, the ghost pool for
// delayed-commit add/remove, and per-type-pair model parameters.
//
// Grounded on the teacher's parser package (backend/internal/parser
// /protein_methods.go: Protein/Atom/Residue and the deep-clone-with-
// pointer-remap Copy() method), generalized from a fixed
// N/CA/C/O-backbone residue template to an arbitrary per-molecule-type
// site template with bonds/angles/dihedrals, plus an orientation
// quaternion (github.com/go-gl/mathgl/mgl64, grounded on
// Gekko3D-gekko's RigidBodyComponent) absent from the teacher.
package particle

import "github.com/go-gl/mathgl/mgl64"

// EulerAngles is the alternative x-convention orientation
// representation (Rz(phi)*Rx(theta)*Rz(psi)) for 3-D sites, or a single
// angle (Phi only) for 2-D sites.
type EulerAngles struct {
	Phi, Theta, Psi float64
}

// ToQuat converts the x-convention Euler triple to a quaternion.
func (e EulerAngles) ToQuat() mgl64.Quat {
	qz1 := mgl64.QuatRotate(e.Phi, mgl64.Vec3{0, 0, 1})
	qx := mgl64.QuatRotate(e.Theta, mgl64.Vec3{1, 0, 0})
	qz2 := mgl64.QuatRotate(e.Psi, mgl64.Vec3{0, 0, 1})
	return qz1.Mul(qx).Mul(qz2)
}

// Site is a point with position, type, and optional orientation. A
// site with IsPhysical false remains allocated (a ghost, or a pending
// add) but every visitor skips it.
type Site struct {
	Position    mgl64.Vec3
	Type        int
	HasOrient   bool
	Orientation mgl64.Quat
	HasEuler    bool
	Euler       EulerAngles
	IsPhysical  bool

	// CellIndex records, per active cell-list name, the cell this site
	// currently belongs to. Visitors/cell lists keep this in sync via
	// domain.CellList; it is cached here only for inspection/debugging.
	CellIndex map[string]int
}

// NewSite returns a physical site at pos with the given type.
func NewSite(typeID int, pos mgl64.Vec3) *Site {
	return &Site{Position: pos, Type: typeID, IsPhysical: true, CellIndex: make(map[string]int)}
}

// Clone deep-copies a site (CellIndex map included), the same
// pointer-safe copy shape as the teacher's Protein.Copy.
func (s *Site) Clone() *Site {
	clone := *s
	clone.CellIndex = make(map[string]int, len(s.CellIndex))
	for k, v := range s.CellIndex {
		clone.CellIndex[k] = v
	}
	return &clone
}
