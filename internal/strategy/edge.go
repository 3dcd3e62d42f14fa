package strategy

import (
	"math"
	"time"

	"triarb/internal/domain"
)

// Evaluator computes fee-adjusted net returns for every catalog cycle against
// a quote snapshot. It is stateless and deterministic.
type Evaluator struct {
	catalog *domain.Catalog
	fee     float64
}

// NewEvaluator creates an evaluator with the given per-leg taker fee.
func NewEvaluator(catalog *domain.Catalog, takerFee float64) *Evaluator {
	if takerFee < 0 || takerFee >= 1 {
		panic("Evaluator: taker fee must be in [0, 1)")
	}
	return &Evaluator{catalog: catalog, fee: takerFee}
}

// EvaluateAll traverses each cycle over the snapshot and returns one
// evaluation per cycle, in catalog declaration order. It returns ErrNotReady
// if any instrument referenced by the catalog has no quote yet. A cycle whose
// traversal hits a non-positive or non-finite rate is skipped for this pass
// (stale data), never producing a NaN/Inf edge.
func (e *Evaluator) EvaluateAll(quotes map[string]domain.Quote, now time.Time) ([]domain.CycleEvaluation, error) {
	for _, sym := range e.catalog.Symbols() {
		if _, ok := quotes[sym]; !ok {
			return nil, domain.ErrNotReady
		}
	}

	cycles := e.catalog.Cycles()
	evals := make([]domain.CycleEvaluation, 0, len(cycles))
	for _, cycle := range cycles {
		gross, err := traverse(cycle.Legs, quotes)
		if err != nil {
			continue
		}

		// Fee compounds once per leg, applied to the gross product at the
		// end rather than folded into each intermediate rate.
		feeFactor := math.Pow(1-e.fee, float64(len(cycle.Legs)))
		net := gross*feeFactor - 1.0
		if math.IsNaN(net) || math.IsInf(net, 0) {
			continue
		}

		evals = append(evals, domain.CycleEvaluation{
			CycleID:   cycle.ID,
			Gross:     gross,
			NetEdge:   net,
			Timestamp: now,
		})
	}
	return evals, nil
}

// traverse walks the legs in order starting from a notional 1 unit of the
// cycle's funding asset and returns the gross roundtrip product.
func traverse(legs []domain.Leg, quotes map[string]domain.Quote) (float64, error) {
	amount := 1.0
	for _, leg := range legs {
		q := quotes[leg.Instrument]

		rate := q.Ask
		if leg.Side == domain.SideBid {
			rate = q.Bid
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return 0, domain.ErrStaleData
		}

		if leg.Op == domain.OpDivide {
			amount /= rate
		} else {
			amount *= rate
		}
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, domain.ErrStaleData
	}
	return amount, nil
}
