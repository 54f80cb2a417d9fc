// Command fhmc reads a directive list and runs the Monte Carlo engine
// it describes.
//
// Grounded on the teacher's thin `backend/cmd/*` diagnostic mains
// (parse flags, build a config, run, print a summary) and
// internal/fatal's documented contract: "the driver (cmd/fhmc)
// recovers at the top level only to print the message and exit
// non-zero, it never continues the simulation."
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sarat-asymmetrica/fhmc/internal/app"
	"github.com/sarat-asymmetrica/fhmc/internal/directive"
	"github.com/sarat-asymmetrica/fhmc/internal/fatal"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			ferr, ok := r.(*fatal.Error)
			if !ok {
				panic(r)
			}
			fmt.Fprintln(os.Stderr, ferr.Error())
			code = 1
		}
	}()

	fs := flag.NewFlagSet("fhmc", flag.ContinueOnError)
	seed := fs.Int64("seed", 1, "random seed for the shared RNG stream")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fhmc [-seed N] <directives.json>")
		return 2
	}

	fmt.Printf("fhmc %s\n", version)

	list, err := readDirectives(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "reading directive list:", err)
		return 1
	}

	result, err := app.Build(list, *seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build:", err)
		return 1
	}
	for _, d := range list {
		fmt.Printf("  %-16s %d key(s)\n", d.Class, len(d.Values))
	}

	if err := result.MC.Run(result.NumTrials); err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		return 1
	}

	fmt.Printf("completed %d trial(s), final energy %.6f\n", result.NumTrials, result.MC.Criterion.CurrentEnergy())
	for _, t := range result.MC.Trials {
		fmt.Printf("  %-10s attempts=%-8d accepted=%-8d ratio=%.3f\n",
			t.Label, t.Attempts, t.Accepted, t.AcceptanceRatio())
	}
	return 0
}

// readDirectives parses a JSON array of {"class": "...", "values":
// {...}} records into a directive.List.
func readDirectives(path string) (directive.List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw []struct {
		Class  string            `json:"class"`
		Values map[string]string `json:"values"`
	}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, err
	}

	list := make(directive.List, len(raw))
	for i, r := range raw {
		list[i] = directive.Directive{Class: r.Class, Values: r.Values}
	}
	return list, nil
}
