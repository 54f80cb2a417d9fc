package stepper

import (
	"sort"
	"strconv"
	"strings"
)

// ChannelFunc extracts one extensive quantity from a Context on a given
// trial boundary — a per-type particle count N_i, or the configuration's
// total energy U.
type ChannelFunc func(ctx *Context) float64

// ExtensiveMoments accumulates ⟨N_i^a · N_k^b · ... · U^c⟩ for every
// exponent combination with total order up to Order, binned by the
// current macrostate — the raw moments a post-run histogram reweighting
// pass needs to extrapolate lnπ to nearby thermodynamic conditions.
//
// Grounded on spec.md §4.9's ExtensiveMoments description; generalized
// from the two-channel (N, U) case named there to an arbitrary list of
// named channels so a multi-species system's N_i, N_k, and U all
// compose.
type ExtensiveMoments struct {
	Base
	Channels map[string]ChannelFunc
	Order    int

	exponents []map[string]int         // every combination with sum(exp) <= Order
	perBin    map[int]map[int]*moments // bin -> exponent-combo index -> moments
}

// NewExtensiveMoments returns an ExtensiveMoments stepper sampling every
// trialsPerUpdate attempts, accumulating moments up to order over the
// named channels.
func NewExtensiveMoments(trialsPerUpdate, order int, channels map[string]ChannelFunc) *ExtensiveMoments {
	e := &ExtensiveMoments{
		Base:     Base{Name: "ExtensiveMoments", TrialsPerUpdate: trialsPerUpdate},
		Channels: channels,
		Order:    order,
		perBin:   make(map[int]map[int]*moments),
	}
	e.exponents = combinations(sortedKeys(channels), order)
	return e
}

func sortedKeys(m map[string]ChannelFunc) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// combinations enumerates every assignment of non-negative exponents to
// names with total order <= maxOrder.
func combinations(names []string, maxOrder int) []map[string]int {
	if len(names) == 0 {
		return []map[string]int{{}}
	}
	var out []map[string]int
	var rec func(idx, remaining int, acc map[string]int)
	rec = func(idx, remaining int, acc map[string]int) {
		if idx == len(names) {
			clone := make(map[string]int, len(acc))
			for k, v := range acc {
				clone[k] = v
			}
			out = append(out, clone)
			return
		}
		for e := 0; e <= remaining; e++ {
			acc[names[idx]] = e
			rec(idx+1, remaining-e, acc)
		}
		delete(acc, names[idx])
	}
	rec(0, maxOrder, map[string]int{})
	return out
}

func (e *ExtensiveMoments) StepperName() string { return e.Name }

func (e *ExtensiveMoments) OnTrial(ctx *Context) ([][]string, bool) {
	update, _ := e.Tick(ctx.Phase)
	if !update {
		return nil, false
	}
	values := make(map[string]float64, len(e.Channels))
	for name, fn := range e.Channels {
		values[name] = fn(ctx)
	}

	bin := 0
	if ctx.Macrostate != nil {
		bin = ctx.Macrostate()
	}
	byCombo, ok := e.perBin[bin]
	if !ok {
		byCombo = make(map[int]*moments)
		e.perBin[bin] = byCombo
	}
	for i, combo := range e.exponents {
		m, ok := byCombo[i]
		if !ok {
			m = &moments{}
			byCombo[i] = m
		}
		product := 1.0
		for name, exp := range combo {
			for k := 0; k < exp; k++ {
				product *= values[name]
			}
		}
		m.add(product)
	}
	return nil, false
}

// WritePerBin renders one row per (bin, exponent combination): bin
// index, combination label (e.g. "N^1 U^2"), sample count, mean.
func (e *ExtensiveMoments) WritePerBin() [][]string {
	var rows [][]string
	for bin, byCombo := range e.perBin {
		for i, combo := range e.exponents {
			m := byCombo[i]
			if m == nil {
				continue
			}
			rows = append(rows, []string{
				strconv.Itoa(bin),
				comboLabel(combo),
				strconv.Itoa(m.count),
				strconv.FormatFloat(m.mean(), 'g', -1, 64),
			})
		}
	}
	return rows
}

func comboLabel(combo map[string]int) string {
	var parts []string
	for name, exp := range combo {
		if exp == 0 {
			continue
		}
		parts = append(parts, name+"^"+strconv.Itoa(exp))
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, " ")
}
