package stepper

// InfrequentUpdater is implemented by biases that support an explicit
// out-of-band recomputation, e.g. TransitionMatrix's collection-matrix
// rebuild.
type InfrequentUpdater interface {
	InfrequentUpdate()
}

// CriteriaUpdater periodically forces a bias's infrequent update — the
// TM lnπ recomputation named in spec.md §4.9 — independent of the
// bias's own automatic cadence.
type CriteriaUpdater struct {
	Base
	Bias InfrequentUpdater
}

// NewCriteriaUpdater returns a CriteriaUpdater firing every
// trialsPerUpdate attempts.
func NewCriteriaUpdater(trialsPerUpdate int, bias InfrequentUpdater) *CriteriaUpdater {
	return &CriteriaUpdater{Base: Base{Name: "CriteriaUpdater", TrialsPerUpdate: trialsPerUpdate}, Bias: bias}
}

func (c *CriteriaUpdater) StepperName() string { return c.Name }

func (c *CriteriaUpdater) OnTrial(ctx *Context) ([][]string, bool) {
	update, _ := c.Tick(ctx.Phase)
	if !update || c.Bias == nil {
		return nil, false
	}
	c.Bias.InfrequentUpdate()
	return nil, false
}
