package splice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runs int
	term bool
}

func (f *fakeRunner) Run(maxTrials int) error { f.runs += maxTrials; return nil }
func (f *fakeRunner) Terminate() bool         { return f.term }

type fakeBias struct {
	rows [][]string
}

func (b *fakeBias) LnProbability(bin int) float64 { return 0 }
func (b *fakeBias) WritePerBin() [][]string       { return b.rows }

type fakeComplete struct{ complete bool }

func (c *fakeComplete) Complete() bool { return c.complete }

func newClone(lo, hi int, rows [][]string) *Clone {
	return &Clone{
		MC:               &fakeRunner{},
		Window:           NewWindow(lo, hi),
		Bias:             &fakeBias{rows: rows},
		Criterion:        &fakeComplete{},
		AttemptsPerSlice: 10,
	}
}

func TestAdjustBoundsDonatesFromMoreIteratedWindow(t *testing.T) {
	left := newClone(0, 9, nil) // size 10, above the default MinWindowSize of 5
	right := newClone(10, 19, nil)
	left.Window.Iterations = 100
	right.Window.Iterations = 10

	s := NewCollectionMatrixSplice()
	s.Add(left)
	s.Add(right)
	s.AdjustBounds()

	assert.Equal(t, 8, left.Window.Hist.SoftMax, "left window donated its boundary bin to the lagging right window")
	assert.Equal(t, 9, right.Window.Hist.SoftMin)
}

func TestAdjustBoundsRespectsMinWindowSize(t *testing.T) {
	left := newClone(0, 4, nil) // size 5, at MinWindowSize floor
	right := newClone(5, 9, nil)
	left.Window.Iterations = 100
	right.Window.Iterations = 10

	s := NewCollectionMatrixSplice()
	s.MinWindowSize = 5
	s.Add(left)
	s.Add(right)
	s.AdjustBounds()

	assert.Equal(t, 4, left.Window.Hist.SoftMax, "donating would shrink left below MinWindowSize, so it should not move")
}

func TestRunAdvancesEachIncompleteClone(t *testing.T) {
	left := newClone(0, 4, nil)
	right := newClone(5, 9, nil)
	right.Criterion.(*fakeComplete).complete = true

	s := NewCollectionMatrixSplice()
	s.Add(left)
	s.Add(right)
	require.NoError(t, s.Run())

	assert.Equal(t, 10, left.Window.Iterations)
	assert.Equal(t, 0, right.Window.Iterations, "a complete window should not be advanced further")
}

func TestCombinedLnProbabilityFiltersRowsByOwningWindow(t *testing.T) {
	left := newClone(0, 4, [][]string{{"0", "0"}, {"4", "-1"}, {"5", "-2"}})
	right := newClone(5, 9, [][]string{{"5", "-2"}, {"9", "-9"}})

	s := NewCollectionMatrixSplice()
	s.Add(left)
	s.Add(right)

	rows := s.CombinedLnProbability()
	require.Len(t, rows, 4, "bin 5 from left's stale row should be excluded; only rows within each window's soft range count")
}

func TestAreAllCompleteRequiresEveryClone(t *testing.T) {
	left := newClone(0, 4, nil)
	right := newClone(5, 9, nil)
	s := NewCollectionMatrixSplice()
	s.Add(left)
	s.Add(right)
	assert.False(t, s.AreAllComplete())

	left.Criterion.(*fakeComplete).complete = true
	right.Criterion.(*fakeComplete).complete = true
	assert.True(t, s.AreAllComplete())
}
