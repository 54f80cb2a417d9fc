package stepper

import "github.com/sarat-asymmetrica/fhmc/internal/fatal"

// CheckEnergy recomputes the configuration's full energy from scratch
// every TrialsPerUpdate attempts and raises a fatal invariant violation
// if it disagrees with the incrementally-cached value beyond Tolerance —
// catching drift in the delta-bookkeeping Finalize relies on.
//
// Grounded on backend/internal/physics/energy_test.go's whole-vs-
// partial-sum comparison, turned from a one-shot test assertion into a
// periodic runtime check.
type CheckEnergy struct {
	Base
	Tolerance float64
}

// NewCheckEnergy returns a CheckEnergy firing every trialsPerUpdate
// attempts, tolerating up to tolerance absolute disagreement.
func NewCheckEnergy(trialsPerUpdate int, tolerance float64) *CheckEnergy {
	return &CheckEnergy{
		Base:      Base{Name: "CheckEnergy", TrialsPerUpdate: trialsPerUpdate},
		Tolerance: tolerance,
	}
}

func (c *CheckEnergy) StepperName() string { return c.Name }

func (c *CheckEnergy) OnTrial(ctx *Context) ([][]string, bool) {
	update, _ := c.Tick(ctx.Phase)
	if !update {
		return nil, false
	}
	cached := ctx.Sys.TotalEnergy(ctx.ConfigIdx)
	ctx.Sys.InvalidateCache(ctx.ConfigIdx)
	recomputed := ctx.Sys.TotalEnergy(ctx.ConfigIdx)

	diff := recomputed - cached
	if diff < 0 {
		diff = -diff
	}
	fatal.Assert(diff <= c.Tolerance, "CheckEnergy", "OnTrial",
		"cached energy %.6f disagrees with recomputed %.6f by %.6f (tolerance %.6f)",
		cached, recomputed, diff, c.Tolerance)
	return nil, false
}
