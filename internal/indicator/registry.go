package indicator

import (
	"fmt"
	"sort"
	"strings"

	"spot-trader/internal/types"
)

var registry = map[string]Indicator{}

// Register adds ind to the registry under its upper-case name. It panics on duplicates.
func Register(ind Indicator) {
	name := strings.ToUpper(ind.Name())
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("indicator %s registered twice", name))
	}
	registry[name] = ind
}

// Lookup finds a registered indicator by case-insensitive name.
func Lookup(name string) (Indicator, bool) {
	ind, ok := registry[strings.ToUpper(name)]
	return ind, ok
}

// Names returns all registered indicator names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func init() {
	for _, ind := range []Indicator{
		smaIndicator{},
		emaIndicator{},
		rsiIndicator{},
		macdIndicator{},
		bbandsIndicator{},
		stochIndicator{},
		adxIndicator{},
		cciIndicator{},
		willrIndicator{},
		mfiIndicator{},
		rocIndicator{},
	} {
		Register(ind)
	}
}

// Bound is an indicator resolved against its configuration.
type Bound struct {
	Indicator Indicator
	Config    Config
}

func (b Bound) Name() string {
	return b.Indicator.Name()
}

// Evaluate computes and classifies candles in one step.
func (b Bound) Evaluate(candles []types.Candle) (types.Action, Bundle) {
	if !b.Config.Enabled {
		return types.ActionSkip, Bundle{}
	}
	bundle := b.Indicator.Compute(candles, b.Config)
	return b.Indicator.Classify(bundle, b.Config), bundle
}

// Resolve binds every configuration to a registered indicator, in order.
// Unknown names fail here, at construction time, rather than during a cycle.
func Resolve(cfgs []Config) ([]Bound, error) {
	out := make([]Bound, 0, len(cfgs))
	for _, c := range cfgs {
		ind, ok := Lookup(c.Name)
		if !ok {
			return nil, fmt.Errorf("unknown indicator %q (known: %s)", c.Name, strings.Join(Names(), ", "))
		}
		c.Name = ind.Name()
		out = append(out, Bound{Indicator: ind, Config: c})
	}
	return out, nil
}
