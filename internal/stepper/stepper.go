// Package stepper implements the periodic actions run every k trials
// from inside the MonteCarlo loop: read-only Analyze steppers and
// mutating Modify steppers, phase-gated and optionally aggregated
// across macrostate bins.
//
// Grounded on the teacher's acceptance/diagnostic bookkeeping threaded
// through backend/internal/sampling/monte_carlo.go's MC loop (counters,
// convergence checks, adaptive temperature control), generalized from
// inline loop logic into the pluggable stepper contract spec.md §4.9
// names.
package stepper

import "github.com/sarat-asymmetrica/fhmc/internal/system"

// Context is everything a stepper may read or mutate on one trial
// boundary. MonteCarlo owns it and passes the same pointer to every
// stepper in sequence.
type Context struct {
	Sys        *system.System
	ConfigIdx  int
	Phase      int
	TrialIndex int // monotonically increasing count of completed attempts
	Macrostate func() int
	Terminate  *bool // a stepper sets *Terminate = true to end the run
}

// Gate controls which phases a stepper is active in: phase values below
// StartAfterPhase are skipped; if StopAfterPhase is positive, phases
// above it are skipped too.
type Gate struct {
	StartAfterPhase int
	StopAfterPhase  int // 0 means unbounded
}

// Active reports whether phase falls within the gate's window.
func (g Gate) Active(phase int) bool {
	if phase < g.StartAfterPhase {
		return false
	}
	if g.StopAfterPhase > 0 && phase > g.StopAfterPhase {
		return false
	}
	return true
}

// Base holds the counters and gating shared by every stepper: a period
// for mutating Update calls, a period for read-only Write calls, and
// the phase gate. Embed it and call Base.Tick once per trial.
type Base struct {
	Name            string
	TrialsPerUpdate int
	TrialsPerWrite  int
	FileName        string
	Gate            Gate

	sinceUpdate int
	sinceWrite  int
}

// Tick advances both counters for one completed trial and reports
// whether this trial should trigger an Update and/or a Write, honoring
// the phase gate. A zero period means "never fires".
func (b *Base) Tick(phase int) (shouldUpdate, shouldWrite bool) {
	if !b.Gate.Active(phase) {
		return false, false
	}
	if b.TrialsPerUpdate > 0 {
		b.sinceUpdate++
		if b.sinceUpdate >= b.TrialsPerUpdate {
			b.sinceUpdate = 0
			shouldUpdate = true
		}
	}
	if b.TrialsPerWrite > 0 {
		b.sinceWrite++
		if b.sinceWrite >= b.TrialsPerWrite {
			b.sinceWrite = 0
			shouldWrite = true
		}
	}
	return shouldUpdate, shouldWrite
}

// Stepper is driven once per completed trial by MonteCarlo (or by a
// Factory aggregating several per-macrostate instances). Update-only
// steppers mutate state and return nil rows; write-only steppers return
// rows and leave state untouched; a stepper may do both.
type Stepper interface {
	StepperName() string
	OnTrial(ctx *Context) (rows [][]string, wrote bool)
}
