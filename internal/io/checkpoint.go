package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CheckpointVersion is the serialization version a given class token
// must match on read; a deserializer that sees any other version
// rejects the record rather than guessing at its layout.
const CheckpointVersion = 1

// CheckpointRecord is one opaque, versioned, named blob: a class-name
// token, its version, and its payload lines, exactly as written by
// WriteCheckpoint and consumed by a class-specific decoder registered
// via the Decode callback passed to ReadCheckpoint.
type CheckpointRecord struct {
	Class   string
	Version int
	Lines   []string
}

// Decode turns a CheckpointRecord's payload lines back into a concrete
// value; registered per class name by the caller of ReadCheckpoint.
type Decode func(lines []string) (interface{}, error)

// WriteCheckpoint renders records as
//
//	<class> <version>
//	<n-lines>
//	<line>...
//
// repeated per record, mirroring spec.md §6's "opaque text
// serialization" contract.
func WriteCheckpoint(w io.Writer, records []CheckpointRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		fmt.Fprintf(bw, "%s %d\n", rec.Class, rec.Version)
		fmt.Fprintf(bw, "%d\n", len(rec.Lines))
		for _, line := range rec.Lines {
			fmt.Fprintln(bw, line)
		}
	}
	return bw.Flush()
}

// ReadCheckpoint parses the format WriteCheckpoint produces, dispatching
// each record to the decoder registered for its class name. A record
// whose class has no registered decoder, or whose version does not
// match expectVersion, is rejected rather than silently skipped or
// guessed at.
func ReadCheckpoint(r io.Reader, decoders map[string]Decode, expectVersion int) ([]interface{}, error) {
	scanner := bufio.NewScanner(r)
	var out []interface{}
	for scanner.Scan() {
		header := strings.Fields(scanner.Text())
		if len(header) != 2 {
			return nil, fmt.Errorf("checkpoint: malformed header %q", scanner.Text())
		}
		class := header[0]
		version, err := strconv.Atoi(header[1])
		if err != nil {
			return nil, fmt.Errorf("checkpoint: bad version in header %q: %w", scanner.Text(), err)
		}
		if version != expectVersion {
			return nil, fmt.Errorf("checkpoint: class %q has version %d, want %d", class, version, expectVersion)
		}
		decode, ok := decoders[class]
		if !ok {
			return nil, fmt.Errorf("checkpoint: no decoder registered for class %q", class)
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("checkpoint: class %q missing line count", class)
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return nil, fmt.Errorf("checkpoint: class %q bad line count: %w", class, err)
		}
		lines := make([]string, 0, n)
		for i := 0; i < n; i++ {
			if !scanner.Scan() {
				return nil, fmt.Errorf("checkpoint: class %q expected %d lines, got %d", class, n, i)
			}
			lines = append(lines, scanner.Text())
		}
		value, err := decode(lines)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: class %q: %w", class, err)
		}
		out = append(out, value)
	}
	return out, scanner.Err()
}
