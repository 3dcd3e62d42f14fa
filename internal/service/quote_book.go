package service

import (
	"math"
	"sync"

	"triarb/internal/domain"
)

// QuoteBook holds the latest best bid/ask per instrument. It is the only
// shared-mutable state in the pipeline: the feed worker writes, the monitor
// loop reads. A quote's (bid, ask) pair is always observed from a single
// update; cross-instrument consistency is deliberately weak, matching a
// top-of-book stream where instruments tick independently.
type QuoteBook struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

// NewQuoteBook creates an empty quote book.
func NewQuoteBook() *QuoteBook {
	return &QuoteBook{
		quotes: make(map[string]domain.Quote),
	}
}

// Update overwrites both sides for a symbol as a pair. Ticks with
// non-positive or non-finite prices are dropped: feed data is trusted once
// stored, so the invariant is enforced at the boundary.
func (b *QuoteBook) Update(symbol string, bid, ask float64) {
	if !validPrice(bid) || !validPrice(ask) {
		return
	}

	b.mu.Lock()
	b.quotes[symbol] = domain.Quote{Bid: bid, Ask: ask}
	b.mu.Unlock()
}

// Get returns the latest quote for a symbol, and whether one exists yet.
func (b *QuoteBook) Get(symbol string) (domain.Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.quotes[symbol]
	return q, ok
}

// Snapshot returns a copy of the latest quotes for the requested symbols.
// Symbols with no data yet are omitted from the result.
func (b *QuoteBook) Snapshot(symbols []string) map[string]domain.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make(map[string]domain.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := b.quotes[s]; ok {
			result[s] = q
		}
	}
	return result
}

// IsReady reports whether every requested symbol has received at least one
// update. Instruments are never removed, so once true it stays true.
func (b *QuoteBook) IsReady(symbols []string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range symbols {
		if _, ok := b.quotes[s]; !ok {
			return false
		}
	}
	return true
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
