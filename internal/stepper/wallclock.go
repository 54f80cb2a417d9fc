package stepper

import "time"

// WallClockLimit terminates the run once elapsed wall-clock time
// exceeds Limit. Cancellation is advisory: it sets ctx.Terminate so the
// current trial completes before the MonteCarlo loop exits (spec.md §5).
type WallClockLimit struct {
	Base
	Limit time.Duration

	start   time.Time
	started bool
}

// NewWallClockLimit returns a WallClockLimit checked every
// trialsPerUpdate attempts, terminating after limit has elapsed since
// its first check.
func NewWallClockLimit(trialsPerUpdate int, limit time.Duration) *WallClockLimit {
	return &WallClockLimit{Base: Base{Name: "WallClockLimit", TrialsPerUpdate: trialsPerUpdate}, Limit: limit}
}

func (w *WallClockLimit) StepperName() string { return w.Name }

func (w *WallClockLimit) OnTrial(ctx *Context) ([][]string, bool) {
	update, _ := w.Tick(ctx.Phase)
	if !update {
		return nil, false
	}
	if !w.started {
		w.start = time.Now()
		w.started = true
		return nil, false
	}
	if time.Since(w.start) >= w.Limit && ctx.Terminate != nil {
		*ctx.Terminate = true
	}
	return nil, false
}
