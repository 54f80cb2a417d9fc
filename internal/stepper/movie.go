package stepper

import "strconv"

// Movie is a write-only stepper: every TrialsPerWrite attempts it
// renders one XYZ-style frame (one row per physical site: site type,
// x, y, z) for the configured configuration. internal/io's XYZ writer
// owns the actual file I/O; this stepper only produces the rows.
type Movie struct {
	Base
}

// NewMovie returns a Movie stepper writing every trialsPerWrite attempts.
func NewMovie(trialsPerWrite int, fileName string) *Movie {
	return &Movie{Base: Base{Name: "Movie", TrialsPerWrite: trialsPerWrite, FileName: fileName}}
}

func (m *Movie) StepperName() string { return m.Name }

func (m *Movie) OnTrial(ctx *Context) ([][]string, bool) {
	_, write := m.Tick(ctx.Phase)
	if !write {
		return nil, false
	}
	cfg := ctx.Sys.Configs[ctx.ConfigIdx]
	rows := make([][]string, 0, len(cfg.Sites))
	for _, s := range cfg.Sites {
		if !s.IsPhysical {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Type),
			strconv.FormatFloat(s.Position[0], 'f', 6, 64),
			strconv.FormatFloat(s.Position[1], 'f', 6, 64),
			strconv.FormatFloat(s.Position[2], 'f', 6, 64),
		})
	}
	return rows, true
}
