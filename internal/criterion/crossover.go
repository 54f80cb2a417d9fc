package criterion

// Crossover runs Wang-Landau until its modification factor drops below
// FCollect, then accumulates a TransitionMatrix in parallel; once f
// drops below FSwitch it discards further WL updates and switches to
// the TM recursion for lnπ. Grounded on original_source's WL→TM
// crossover scheme named in spec.md §4.8.
type Crossover struct {
	WL *WangLandau
	TM *TransitionMatrix

	FCollect float64
	FSwitch  float64

	collecting bool
	switched   bool
}

// NewCrossover pairs a WangLandau and TransitionMatrix bias sharing the
// same Histogram, switching to TM once wl.F drops below fSwitch and
// beginning TM accumulation once it drops below fCollect.
func NewCrossover(wl *WangLandau, tm *TransitionMatrix, fCollect, fSwitch float64) *Crossover {
	return &Crossover{WL: wl, TM: tm, FCollect: fCollect, FSwitch: fSwitch}
}

func (c *Crossover) Name() string { return "wl_tm_crossover" }

func (c *Crossover) LnProbability(bin int) float64 {
	if c.switched {
		return c.TM.LnProbability(bin)
	}
	return c.WL.LnProbability(bin)
}

func (c *Crossover) Update(binOld, binNew int, lnMetropolisProb float64, accepted bool) {
	if !c.switched {
		c.WL.Update(binOld, binNew, lnMetropolisProb, accepted)
		if c.WL.F < c.FCollect {
			c.collecting = true
		}
		if c.collecting {
			c.TM.Update(binOld, binNew, lnMetropolisProb, accepted)
		}
		if c.WL.F < c.FSwitch {
			c.switched = true
		}
		return
	}
	c.TM.Update(binOld, binNew, lnMetropolisProb, accepted)
}

func (c *Crossover) Complete() bool {
	if c.switched {
		return c.TM.Complete()
	}
	return false
}

func (c *Crossover) WritePerBin() [][]string {
	if c.switched {
		return c.TM.WritePerBin()
	}
	return c.WL.WritePerBin()
}
