package domain

import "fmt"

// QuoteSide selects which side of the book a leg trades against.
type QuoteSide string

const (
	SideBid QuoteSide = "bid"
	SideAsk QuoteSide = "ask"
)

// LegOp selects how the leg's rate is applied to the running amount.
// Buying the base through the ask divides; selling it through the bid multiplies.
type LegOp string

const (
	OpMultiply LegOp = "multiply"
	OpDivide   LegOp = "divide"
)

// Leg is one conversion step of a cycle: which instrument, which book side,
// and whether the rate multiplies or divides the running amount.
type Leg struct {
	Instrument string    `yaml:"instrument" json:"instrument"`
	Side       QuoteSide `yaml:"side" json:"side"`
	Op         LegOp     `yaml:"op" json:"op"`
}

// Cycle is a named, fixed sequence of legs that returns to its starting asset.
// Cycles never change shape at runtime. Forward and reverse traversals of the
// same triangle are distinct cycles.
type Cycle struct {
	ID   string `yaml:"id" json:"id"`
	Legs []Leg  `yaml:"legs" json:"legs"`
}

// Catalog is the static set of cycles tracked by the monitor, in declaration
// order. Declaration order is significant: it breaks ties when two cycles
// report an identical edge.
type Catalog struct {
	cycles  []Cycle
	symbols []string // unique instrument symbols referenced, first-seen order
}

// NewCatalog validates the cycle definitions against the configured
// instrument set and returns an immutable catalog. A cycle referencing an
// unknown instrument, carrying no legs, or using an invalid side/op tag is a
// configuration error.
func NewCatalog(cycles []Cycle, instruments []Instrument) (*Catalog, error) {
	known := make(map[string]bool, len(instruments))
	for _, inst := range instruments {
		known[inst.Symbol] = true
	}

	seen := make(map[string]bool, len(cycles))
	var symbols []string
	symbolSeen := make(map[string]bool)

	for _, c := range cycles {
		if c.ID == "" {
			return nil, &ConfigError{Field: "cycles", Err: fmt.Errorf("cycle with empty id")}
		}
		if seen[c.ID] {
			return nil, &ConfigError{Field: "cycles", Err: fmt.Errorf("duplicate cycle id %q", c.ID)}
		}
		seen[c.ID] = true

		if len(c.Legs) == 0 {
			return nil, &ConfigError{Field: "cycles", Err: fmt.Errorf("cycle %q has no legs", c.ID)}
		}
		for i, leg := range c.Legs {
			if !known[leg.Instrument] {
				return nil, &ConfigError{
					Field: "cycles",
					Err:   fmt.Errorf("cycle %q leg %d references unknown instrument %q", c.ID, i, leg.Instrument),
				}
			}
			if leg.Side != SideBid && leg.Side != SideAsk {
				return nil, &ConfigError{
					Field: "cycles",
					Err:   fmt.Errorf("cycle %q leg %d has invalid side %q", c.ID, i, leg.Side),
				}
			}
			if leg.Op != OpMultiply && leg.Op != OpDivide {
				return nil, &ConfigError{
					Field: "cycles",
					Err:   fmt.Errorf("cycle %q leg %d has invalid op %q", c.ID, i, leg.Op),
				}
			}
			if !symbolSeen[leg.Instrument] {
				symbolSeen[leg.Instrument] = true
				symbols = append(symbols, leg.Instrument)
			}
		}
	}

	return &Catalog{cycles: cycles, symbols: symbols}, nil
}

// Cycles returns all cycles in declaration order.
func (c *Catalog) Cycles() []Cycle {
	return c.cycles
}

// LegsOf returns the ordered legs of the named cycle, or false if unknown.
func (c *Catalog) LegsOf(id string) ([]Leg, bool) {
	for _, cyc := range c.cycles {
		if cyc.ID == id {
			return cyc.Legs, true
		}
	}
	return nil, false
}

// Symbols returns the unique instrument symbols referenced by any cycle,
// in first-reference order. This is the readiness set for evaluation.
func (c *Catalog) Symbols() []string {
	return c.symbols
}
