package domain

import (
	"errors"
	"testing"
)

var catInstruments = []Instrument{
	{Symbol: "BTCUSDT", Base: "BTC", Quote: "USDT"},
	{Symbol: "ETHUSDT", Base: "ETH", Quote: "USDT"},
	{Symbol: "ETHBTC", Base: "ETH", Quote: "BTC"},
}

func validCycles() []Cycle {
	return []Cycle{
		{ID: "A", Legs: []Leg{
			{Instrument: "BTCUSDT", Side: SideAsk, Op: OpDivide},
			{Instrument: "ETHBTC", Side: SideAsk, Op: OpDivide},
			{Instrument: "ETHUSDT", Side: SideBid, Op: OpMultiply},
		}},
		{ID: "B", Legs: []Leg{
			{Instrument: "ETHUSDT", Side: SideAsk, Op: OpDivide},
			{Instrument: "ETHBTC", Side: SideBid, Op: OpMultiply},
			{Instrument: "BTCUSDT", Side: SideBid, Op: OpMultiply},
		}},
	}
}

func TestNewCatalog_Valid(t *testing.T) {
	cat, err := NewCatalog(validCycles(), catInstruments)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	if len(cat.Cycles()) != 2 {
		t.Errorf("Expected 2 cycles, got %d", len(cat.Cycles()))
	}

	legs, ok := cat.LegsOf("A")
	if !ok || len(legs) != 3 {
		t.Errorf("LegsOf(A) = %v, %v", legs, ok)
	}
	if _, ok := cat.LegsOf("Z"); ok {
		t.Error("Unknown cycle id should report false")
	}

	// First-reference order: BTCUSDT, ETHBTC, ETHUSDT.
	syms := cat.Symbols()
	if len(syms) != 3 || syms[0] != "BTCUSDT" || syms[1] != "ETHBTC" || syms[2] != "ETHUSDT" {
		t.Errorf("Symbols order = %v", syms)
	}
}

func TestNewCatalog_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([]Cycle) []Cycle
	}{
		{"unknown instrument", func(cs []Cycle) []Cycle {
			cs[0].Legs[1].Instrument = "DOGEUSDT"
			return cs
		}},
		{"empty id", func(cs []Cycle) []Cycle {
			cs[0].ID = ""
			return cs
		}},
		{"duplicate id", func(cs []Cycle) []Cycle {
			cs[1].ID = "A"
			return cs
		}},
		{"no legs", func(cs []Cycle) []Cycle {
			cs[0].Legs = nil
			return cs
		}},
		{"invalid side", func(cs []Cycle) []Cycle {
			cs[0].Legs[0].Side = "mid"
			return cs
		}},
		{"invalid op", func(cs []Cycle) []Cycle {
			cs[0].Legs[0].Op = "add"
			return cs
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.mutate(validCycles()), catInstruments)
			if err == nil {
				t.Fatal("Expected a configuration error")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected *ConfigError, got %T", err)
			}
			if IsRetriable(err) {
				t.Error("Configuration errors are never retriable")
			}
		})
	}
}

func TestCatalog_PreservesDeclarationOrder(t *testing.T) {
	cat, err := NewCatalog(validCycles(), catInstruments)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	cycles := cat.Cycles()
	if cycles[0].ID != "A" || cycles[1].ID != "B" {
		t.Errorf("Declaration order not preserved: %s, %s", cycles[0].ID, cycles[1].ID)
	}
}
