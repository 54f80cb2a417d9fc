package potential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarat-asymmetrica/fhmc/internal/domain"
	"github.com/sarat-asymmetrica/fhmc/internal/particle"
)

func emptyConfiguration() *particle.Configuration {
	box := domain.NewBox(10, 10, 10)
	params := particle.NewModelParams(1)
	return particle.NewConfiguration(box, params)
}

func TestFactoryPrecomputeAcceptsFullyRegisteredBondedTypes(t *testing.T) {
	f := NewFactory()
	f.RegisterBond(&HarmonicBond{K0: 1, R0: 1})
	f.RegisterAngle(&HarmonicAngle{K0: 1, Theta0: 1})
	f.RegisterDihedral(&TraPPEDihedral{})
	f.BondTypeNames = []string{"harmonic_bond"}
	f.AngleTypeNames = []string{"harmonic_angle"}
	f.DihedralTypeNames = []string{"trappe_dihedral"}

	require.NoError(t, f.Precompute(emptyConfiguration()))
}

func TestFactoryPrecomputeRejectsUnregisteredBondType(t *testing.T) {
	f := NewFactory()
	f.BondTypeNames = []string{"harmonic_bond"}

	err := f.Precompute(emptyConfiguration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"harmonic_bond"`)
}

func TestValidateBondedTypesListsRegistryNamesInSortedOrder(t *testing.T) {
	f := NewFactory()
	f.RegisterAngle(&SquareWellAngle{})
	f.RegisterAngle(&RigidAngle{})
	f.RegisterAngle(&HarmonicAngle{})
	f.AngleTypeNames = []string{"missing_angle"}

	err := f.ValidateBondedTypes()
	require.Error(t, err)
	// Go map iteration order is randomized, so a deterministic error
	// message requires the registry names to be sorted before formatting.
	assert.Contains(t, err.Error(),
		`[harmonic_angle rigid_angle square_well_angle]`)
}

func TestValidateBondedTypesPassesWithNoTemplateReferences(t *testing.T) {
	f := NewFactory()
	assert.NoError(t, f.ValidateBondedTypes())
}
