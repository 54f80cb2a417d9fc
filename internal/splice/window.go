// Package splice implements the collection-matrix splice: a set of
// MonteCarlo windows over non-overlapping soft macrostate ranges that
// periodically trade boundary bins and publish one combined lnπ curve.
//
// Grounded on original_source/plugin/flat_histogram/include
// /collection_matrix_splice.h per spec.md §4.10.
package splice

import "github.com/google/uuid"

// Window is one flat-histogram MonteCarlo's soft macrostate range,
// identified so bounds-adjustment and write passes can name it.
type Window struct {
	ID       uuid.UUID
	Hist     *Histogram
	Complete bool

	// Iterations is the window's own progress counter (e.g. total
	// attempts or sweeps so far) — used by adjust_bounds to compare
	// neighbors' relative progress.
	Iterations int
}

// Histogram is the minimal view a Window needs of its macrostate
// range: the soft bounds adjust_bounds mutates, and the hard bounds
// that must never move.
type Histogram struct {
	HardMin, HardMax int
	SoftMin, SoftMax int
}

// NewWindow returns a fresh window with a random identifier over
// [softMin, softMax], with hard bounds defaulting to the soft range.
func NewWindow(softMin, softMax int) *Window {
	return &Window{
		ID: uuid.New(),
		Hist: &Histogram{
			HardMin: softMin, HardMax: softMax,
			SoftMin: softMin, SoftMax: softMax,
		},
	}
}
