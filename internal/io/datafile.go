package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DataFile is a parsed force-field/topology template: one or more
// particle types' masses, pair/bond/angle/dihedral coefficients, and a
// single reference molecule's Atoms/Bonds/Angles/Dihedrals records,
// read once by the driver's Configuration directive (internal/app),
// which takes the pair coefficients from it.
//
// Grounded on spec.md §6's "Force-field data file (LAMMPS-style)"
// section: a text file of named sections, mirrored by an equivalent
// JSON document with the same schema.
type DataFile struct {
	Masses          map[int]float64
	PairCoeffs      map[int][]float64
	BondCoeffs      map[int][]float64
	AngleCoeffs     map[int][]float64
	DihedralCoeffs  map[int][]float64

	Atoms     []DataAtom
	Bonds     []DataTopology
	Angles    []DataTopology
	Dihedrals []DataTopology
}

// DataAtom is one "Atoms" section record: id, type, and position.
type DataAtom struct {
	ID, Type   int
	X, Y, Z    float64
}

// DataTopology is one Bonds/Angles/Dihedrals section record: id, type,
// and the 2/3/4 atom ids it connects (unused slots are zero).
type DataTopology struct {
	ID, Type       int
	A, B, C, D int
}

var sectionNames = map[string]bool{
	"Masses": true, "Pair Coeffs": true, "Bond Coeffs": true,
	"Angle Coeffs": true, "Dihedral Coeffs": true,
	"Atoms": true, "Bonds": true, "Angles": true, "Dihedrals": true,
}

// ReadDataFile parses the LAMMPS-style text format: a sequence of
// "<Section Name>" header lines, each followed by a blank line and then
// its records until the next recognized section header or EOF.
func ReadDataFile(r io.Reader) (*DataFile, error) {
	df := &DataFile{
		Masses: make(map[int]float64), PairCoeffs: make(map[int][]float64),
		BondCoeffs: make(map[int][]float64), AngleCoeffs: make(map[int][]float64),
		DihedralCoeffs: make(map[int][]float64),
	}
	scanner := bufio.NewScanner(r)
	section := ""
	for scanner.Scan() {
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}
		if sectionNames[line] {
			section = line
			continue
		}
		if err := df.parseRecord(section, line); err != nil {
			return nil, fmt.Errorf("datafile: section %q: %w", section, err)
		}
	}
	return df, scanner.Err()
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		return line[:i]
	}
	return line
}

func (df *DataFile) parseRecord(section, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	switch section {
	case "Masses":
		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return err
		}
		df.Masses[id] = m
	case "Pair Coeffs":
		vals, err := parseFloats(fields[1:])
		if err != nil {
			return err
		}
		df.PairCoeffs[id] = vals
	case "Bond Coeffs":
		vals, err := parseFloats(fields[1:])
		if err != nil {
			return err
		}
		df.BondCoeffs[id] = vals
	case "Angle Coeffs":
		vals, err := parseFloats(fields[1:])
		if err != nil {
			return err
		}
		df.AngleCoeffs[id] = vals
	case "Dihedral Coeffs":
		vals, err := parseFloats(fields[1:])
		if err != nil {
			return err
		}
		df.DihedralCoeffs[id] = vals
	case "Atoms":
		if len(fields) < 5 {
			return fmt.Errorf("atom record needs id type x y z, got %d fields", len(fields))
		}
		typ, _ := strconv.Atoi(fields[1])
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		z, errZ := strconv.ParseFloat(fields[4], 64)
		if errX != nil || errY != nil || errZ != nil {
			return fmt.Errorf("atom coordinates malformed")
		}
		df.Atoms = append(df.Atoms, DataAtom{ID: id, Type: typ, X: x, Y: y, Z: z})
	case "Bonds":
		t, a, b, err := parseTopoPair(fields)
		if err != nil {
			return err
		}
		df.Bonds = append(df.Bonds, DataTopology{ID: id, Type: t, A: a, B: b})
	case "Angles":
		t, a, b, c, err := parseTopoTriple(fields)
		if err != nil {
			return err
		}
		df.Angles = append(df.Angles, DataTopology{ID: id, Type: t, A: a, B: b, C: c})
	case "Dihedrals":
		t, a, b, c, d, err := parseTopoQuad(fields)
		if err != nil {
			return err
		}
		df.Dihedrals = append(df.Dihedrals, DataTopology{ID: id, Type: t, A: a, B: b, C: c, D: d})
	default:
		return fmt.Errorf("record outside any recognized section")
	}
	return nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseTopoPair(fields []string) (typ, a, b int, err error) {
	if len(fields) < 4 {
		return 0, 0, 0, fmt.Errorf("bond record needs id type a b")
	}
	return atoiAll(fields[1], fields[2], fields[3])
}

func parseTopoTriple(fields []string) (typ, a, b, c int, err error) {
	if len(fields) < 5 {
		return 0, 0, 0, 0, fmt.Errorf("angle record needs id type a b c")
	}
	typ, a, b, err = atoiAll(fields[1], fields[2], fields[3])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	c, err = strconv.Atoi(fields[4])
	return typ, a, b, c, err
}

func parseTopoQuad(fields []string) (typ, a, b, c, d int, err error) {
	if len(fields) < 6 {
		return 0, 0, 0, 0, 0, fmt.Errorf("dihedral record needs id type a b c d")
	}
	typ, a, b, err = atoiAll(fields[1], fields[2], fields[3])
	if err != nil {
		return 0, 0, 0, 0, 0, err
	}
	c, errC := strconv.Atoi(fields[4])
	d, errD := strconv.Atoi(fields[5])
	if errC != nil {
		return 0, 0, 0, 0, 0, errC
	}
	if errD != nil {
		return 0, 0, 0, 0, 0, errD
	}
	return typ, a, b, c, d, nil
}

func atoiAll(s1, s2, s3 string) (int, int, int, error) {
	v1, err := strconv.Atoi(s1)
	if err != nil {
		return 0, 0, 0, err
	}
	v2, err := strconv.Atoi(s2)
	if err != nil {
		return 0, 0, 0, err
	}
	v3, err := strconv.Atoi(s3)
	if err != nil {
		return 0, 0, 0, err
	}
	return v1, v2, v3, nil
}

// ReadDataFileJSON parses the JSON twin of the LAMMPS-style format,
// sharing DataFile's schema.
func ReadDataFileJSON(r io.Reader) (*DataFile, error) {
	var df DataFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&df); err != nil {
		return nil, fmt.Errorf("datafile json: %w", err)
	}
	return &df, nil
}
