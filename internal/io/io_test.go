package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadXYZParsesHeaderAndSites(t *testing.T) {
	input := "2\n" +
		"0 10 10 10 0 0 0\n" +
		"1 1.0 2.0 3.0\n" +
		"2 -1.0 -2.0 -3.0\n"

	frame, err := ReadXYZ(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 10.0, frame.Lx)
	assert.Equal(t, []int{1, 2}, frame.Types)
	assert.Equal(t, 1.0, frame.Positions[0][0])
	assert.Equal(t, -3.0, frame.Positions[1][2])
}

func TestReadXYZRejectsTruncatedSiteList(t *testing.T) {
	input := "2\n0 10 10 10 0 0 0\n1 1.0 2.0 3.0\n"
	_, err := ReadXYZ(strings.NewReader(input))
	assert.Error(t, err)
}

func TestWriteXYZThenReadXYZRoundTrips(t *testing.T) {
	frame := &XYZFrame{
		Lx: 12, Ly: 12, Lz: 12,
		Types:     []int{0, 1},
		Positions: []mgl64.Vec3{{1, 2, 3}, {4, 5, 6}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteXYZ(&buf, frame))

	got, err := ReadXYZ(&buf)
	require.NoError(t, err)
	assert.Equal(t, frame.Types, got.Types)
	assert.Equal(t, frame.Positions[1][1], got.Positions[1][1])
}

func TestReadXYZEulerIsNotImplemented(t *testing.T) {
	_, err := ReadXYZEuler(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadDataFileParsesAllSections(t *testing.T) {
	input := `Masses
1 12.011

Pair Coeffs
1 0.1 3.5

Bond Coeffs
1 450.0 1.09

Angle Coeffs
1 55.0 109.5

Atoms
1 1 0.0 0.0 0.0
2 1 1.09 0.0 0.0

Bonds
1 1 1 2

Angles
1 1 1 2 3
`
	df, err := ReadDataFile(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 12.011, df.Masses[1])
	assert.Equal(t, []float64{0.1, 3.5}, df.PairCoeffs[1])
	assert.Equal(t, []float64{450.0, 1.09}, df.BondCoeffs[1])
	require.Len(t, df.Atoms, 2)
	assert.Equal(t, DataAtom{ID: 2, Type: 1, X: 1.09}, df.Atoms[1])
	require.Len(t, df.Bonds, 1)
	assert.Equal(t, DataTopology{ID: 1, Type: 1, A: 1, B: 2}, df.Bonds[0])
	require.Len(t, df.Angles, 1)
	assert.Equal(t, 3, df.Angles[0].C)
}

func TestReadDataFileRejectsRecordOutsideSection(t *testing.T) {
	_, err := ReadDataFile(strings.NewReader("1 12.011\n"))
	assert.Error(t, err)
}

func TestReadDataFileJSONParsesSameSchema(t *testing.T) {
	input := `{"Masses": {"1": 12.011}, "Atoms": [{"ID":1,"Type":1,"X":0,"Y":0,"Z":0}]}`
	df, err := ReadDataFileJSON(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 12.011, df.Masses[1])
	require.Len(t, df.Atoms, 1)
}

func TestCheckpointRoundTripsAndDispatchesByClass(t *testing.T) {
	records := []CheckpointRecord{
		{Class: "Configuration", Version: CheckpointVersion, Lines: []string{"3", "box 10 10 10"}},
		{Class: "Criterion", Version: CheckpointVersion, Lines: []string{"metropolis"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCheckpoint(&buf, records))

	var gotConfig, gotCriterion []string
	decoders := map[string]Decode{
		"Configuration": func(lines []string) (interface{}, error) {
			gotConfig = lines
			return lines, nil
		},
		"Criterion": func(lines []string) (interface{}, error) {
			gotCriterion = lines
			return lines, nil
		},
	}
	values, err := ReadCheckpoint(&buf, decoders, CheckpointVersion)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []string{"3", "box 10 10 10"}, gotConfig)
	assert.Equal(t, []string{"metropolis"}, gotCriterion)
}

func TestCheckpointRejectsVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCheckpoint(&buf, []CheckpointRecord{
		{Class: "Configuration", Version: 7, Lines: []string{"x"}},
	}))

	decoders := map[string]Decode{
		"Configuration": func(lines []string) (interface{}, error) { return lines, nil },
	}
	_, err := ReadCheckpoint(&buf, decoders, CheckpointVersion)
	assert.Error(t, err)
}

func TestCheckpointRejectsUnknownClass(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCheckpoint(&buf, []CheckpointRecord{
		{Class: "Mystery", Version: CheckpointVersion, Lines: nil},
	}))

	_, err := ReadCheckpoint(&buf, map[string]Decode{}, CheckpointVersion)
	assert.Error(t, err)
}
