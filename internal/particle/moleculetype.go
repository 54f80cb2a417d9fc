package particle

// Bond, Angle, Dihedral index sites within a single particle (not
// global site indices) — the topology is read from the molecule's type
// template, never duplicated per instance (spec.md §3).
type Bond struct {
	I, J int
	Type int
}

type Angle struct {
	I, J, K int
	Type    int
}

type Dihedral struct {
	I, J, K, L int
	Type       int
}

// MoleculeType is the immutable template every Particle of that type
// instantiates: its site types (in order) and its fixed bond/angle/
// dihedral topology.
type MoleculeType struct {
	Name      string
	SiteTypes []int
	Bonds     []Bond
	Angles    []Angle
	Dihedrals []Dihedral
}

// NumSites returns the number of sites a particle of this type owns.
func (mt *MoleculeType) NumSites() int {
	return len(mt.SiteTypes)
}
