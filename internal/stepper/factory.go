package stepper

// Factory aggregates steppers. In single-state mode it just calls each
// stepper's OnTrial. In multistate mode, one instance of a stepper
// template exists per macrostate bin (e.g. a separate AnalyzeBonds per
// N), and the factory dispatches Update to whichever instance owns the
// bin the configuration currently occupies, while Write always walks
// every bin in order into one combined table — the aggregation rule
// spec.md §4.9 names.
type Factory struct {
	single []Stepper

	multistate  bool
	macrostate  func() int
	perBin      map[int][]Stepper
	template    func() []Stepper // builds one fresh set of instances for a new bin
}

// NewFactory returns a single-state factory over steppers, run in the
// given order on every trial.
func NewFactory(steppers []Stepper) *Factory {
	return &Factory{single: steppers}
}

// NewMultistateFactory returns a factory that lazily builds one
// instance-set per macrostate bin (via newInstances) and dispatches
// OnTrial only to the set owning macrostate()'s current value.
func NewMultistateFactory(macrostate func() int, newInstances func() []Stepper) *Factory {
	return &Factory{
		multistate: true,
		macrostate: macrostate,
		perBin:     make(map[int][]Stepper),
		template:   newInstances,
	}
}

// OnTrial drives every active stepper (or, in multistate mode, every
// stepper owning the current macrostate bin) and collects their
// write-rows keyed by stepper name.
func (f *Factory) OnTrial(ctx *Context) map[string][][]string {
	steppers := f.single
	if f.multistate {
		bin := f.macrostate()
		set, ok := f.perBin[bin]
		if !ok {
			set = f.template()
			f.perBin[bin] = set
		}
		steppers = set
	}

	rows := make(map[string][][]string)
	for _, s := range steppers {
		r, wrote := s.OnTrial(ctx)
		if wrote {
			rows[s.StepperName()] = append(rows[s.StepperName()], r...)
		}
	}
	return rows
}

// WriteAll walks every bin in ascending order and concatenates each
// stepper-name's rows across bins — the combined-writer contract for
// multistate mode. In single-state mode it returns an empty map.
func (f *Factory) WriteAll() map[string][][]string {
	rows := make(map[string][][]string)
	if !f.multistate {
		return rows
	}
	bins := make([]int, 0, len(f.perBin))
	for b := range f.perBin {
		bins = append(bins, b)
	}
	for i := 0; i < len(bins); i++ {
		for j := i + 1; j < len(bins); j++ {
			if bins[j] < bins[i] {
				bins[i], bins[j] = bins[j], bins[i]
			}
		}
	}
	for _, b := range bins {
		for _, s := range f.perBin[b] {
			if w, ok := s.(interface{ WritePerBin() [][]string }); ok {
				rows[s.StepperName()] = append(rows[s.StepperName()], w.WritePerBin()...)
			}
		}
	}
	return rows
}
