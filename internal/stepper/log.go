package stepper

import (
	"strconv"

	"github.com/sarat-asymmetrica/fhmc/internal/trial"
)

// Log is a write-only stepper: every TrialsPerWrite attempts it renders
// one CSV row of [trial index, total energy, per-trial label,
// cumulative acceptance ratio] for each tracked trial — a plain-text
// progress log, the same fields the teacher threads through
// MonteCarloResult (NumAccepted/NumRejected/AcceptanceRate) but emitted
// periodically instead of once at the end.
type Log struct {
	Base
	Trials []*trial.Trial
}

// NewLog returns a Log stepper writing every trialsPerWrite attempts.
func NewLog(trialsPerWrite int, trials []*trial.Trial) *Log {
	return &Log{Base: Base{Name: "Log", TrialsPerWrite: trialsPerWrite}, Trials: trials}
}

func (l *Log) StepperName() string { return l.Name }

func (l *Log) OnTrial(ctx *Context) ([][]string, bool) {
	_, write := l.Tick(ctx.Phase)
	if !write {
		return nil, false
	}
	energy := ctx.Sys.TotalEnergy(ctx.ConfigIdx)
	rows := make([][]string, 0, len(l.Trials))
	for _, t := range l.Trials {
		rows = append(rows, []string{
			strconv.Itoa(ctx.TrialIndex),
			strconv.FormatFloat(energy, 'g', -1, 64),
			t.Label,
			strconv.FormatFloat(t.AcceptanceRatio(), 'g', -1, 64),
		})
	}
	return rows, true
}
