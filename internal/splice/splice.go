package splice

import (
	"strconv"
	"time"
)

// BiasProvider is the subset of criterion.Bias a clone's window
// exposes for the combined lnπ write: per-bin probability and the
// existing CSV-row renderer.
type BiasProvider interface {
	LnProbability(bin int) float64
	WritePerBin() [][]string
}

// CompleteChecker reports whether a clone's criterion has converged
// (e.g. criterion.FlatHistogram.Complete via its underlying Bias).
type CompleteChecker interface {
	Complete() bool
}

// Runner is the subset of montecarlo.MonteCarlo a clone drives: run a
// capped number of attempts, report whether a stepper asked to stop.
type Runner interface {
	Run(maxTrials int) error
	Terminate() bool
}

// Clone pairs one MonteCarlo window with the pieces CollectionMatrixSplice
// needs to inspect across windows: its macrostate range, its bias (for
// the combined lnπ write), and its completion check.
type Clone struct {
	MC        Runner
	Window    *Window
	Bias      BiasProvider
	Criterion CompleteChecker

	// AttemptsPerSlice approximates "run for hours_per hours": since the
	// trial loop has no built-in wall-clock throttle, the splice runs a
	// clone this many attempts per slice and relies on the caller sizing
	// it to roughly hoursPer of wall time for this workload.
	AttemptsPerSlice int
}

// CollectionMatrixSplice holds a group of flat-histogram MonteCarlo
// windows whose collection matrices splice together into one global
// lnπ curve.
//
// Grounded on original_source/plugin/flat_histogram/include
// /collection_matrix_splice.h per spec.md §4.10; windows run
// sequentially here (the spec's optional intra-node parallelism for
// this step is not implemented — each window's own trial loop is
// already the single-threaded, strictly sequential contract of §5).
type CollectionMatrixSplice struct {
	Clones []*Clone

	MinWindowSize     int // -1 disables bounds adjustment
	HoursPer          time.Duration
	LnProbFile        string
	BoundsFile        string
	NumAdjustPerWrite int

	numAdjustSinceWrite int
}

// NewCollectionMatrixSplice returns a splice with FEASST's documented
// defaults (min_window_size=5, hours_per=0.01h, num_adjust_per_write=1).
func NewCollectionMatrixSplice() *CollectionMatrixSplice {
	return &CollectionMatrixSplice{
		MinWindowSize:     5,
		HoursPer:          36 * time.Second, // 0.01 hours
		NumAdjustPerWrite: 1,
	}
}

// Add registers a clone, ordered by the caller to match ascending
// macrostate ranges.
func (s *CollectionMatrixSplice) Add(c *Clone) { s.Clones = append(s.Clones, c) }

// AreAllComplete reports whether every clone's criterion has converged.
func (s *CollectionMatrixSplice) AreAllComplete() bool {
	for _, c := range s.Clones {
		if !c.Criterion.Complete() {
			return false
		}
	}
	return true
}

// AdjustBounds walks adjacent window pairs and donates one boundary bin
// from whichever has executed more iterations to its neighbor,
// respecting MinWindowSize; the leftmost and rightmost windows may
// shrink past that floor once their own criterion has converged.
func (s *CollectionMatrixSplice) AdjustBounds() {
	if s.MinWindowSize < 0 {
		return
	}
	for i := 0; i < len(s.Clones)-1; i++ {
		left, right := s.Clones[i], s.Clones[i+1]
		lh, rh := left.Window.Hist, right.Window.Hist

		leftSize := lh.SoftMax - lh.SoftMin + 1
		rightSize := rh.SoftMax - rh.SoftMin + 1
		leftEdge := i == 0
		rightEdge := i+1 == len(s.Clones)-1

		switch {
		case left.Window.Iterations > right.Window.Iterations:
			if leftSize-1 >= s.MinWindowSize || (leftEdge && left.Criterion.Complete()) {
				lh.SoftMax--
				rh.SoftMin--
			}
		case right.Window.Iterations > left.Window.Iterations:
			if rightSize-1 >= s.MinWindowSize || (rightEdge && right.Criterion.Complete()) {
				lh.SoftMax++
				rh.SoftMin++
			}
		}
	}
}

// Run advances every clone by its configured attempts-per-slice,
// approximating "run each window for a capped wall-clock slice".
func (s *CollectionMatrixSplice) Run() error {
	for _, c := range s.Clones {
		if c.Criterion.Complete() || c.MC.Terminate() {
			continue
		}
		if err := c.MC.Run(c.AttemptsPerSlice); err != nil {
			return err
		}
		c.Window.Iterations += c.AttemptsPerSlice
	}
	return nil
}

// RunUntilAllComplete repeatedly runs a slice, adjusts bounds, and
// tracks the write cadence until every window reports complete.
func (s *CollectionMatrixSplice) RunUntilAllComplete() error {
	for !s.AreAllComplete() {
		if err := s.Run(); err != nil {
			return err
		}
		s.AdjustBounds()
		s.numAdjustSinceWrite++
		if s.numAdjustSinceWrite >= s.NumAdjustPerWrite {
			s.numAdjustSinceWrite = 0
			_ = s.CombinedLnProbability()
			_ = s.Bounds()
		}
	}
	for _, c := range s.Clones {
		c.Window.Complete = true
	}
	return nil
}

// CombinedLnProbability assembles the global lnπ table: for each bin,
// the row comes from whichever window's soft range owns that bin.
func (s *CollectionMatrixSplice) CombinedLnProbability() [][]string {
	var rows [][]string
	for _, c := range s.Clones {
		for _, row := range c.Bias.WritePerBin() {
			bin, err := strconv.Atoi(row[0])
			if err != nil {
				continue
			}
			if bin >= c.Window.Hist.SoftMin && bin <= c.Window.Hist.SoftMax {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// Bounds renders one row per window: id, soft-min, soft-max, iterations.
func (s *CollectionMatrixSplice) Bounds() [][]string {
	rows := make([][]string, 0, len(s.Clones))
	for _, c := range s.Clones {
		rows = append(rows, []string{
			c.Window.ID.String(),
			strconv.Itoa(c.Window.Hist.SoftMin),
			strconv.Itoa(c.Window.Hist.SoftMax),
			strconv.Itoa(c.Window.Iterations),
		})
	}
	return rows
}
