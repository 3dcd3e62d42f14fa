package domain

import "time"

// CycleEvaluation is the ephemeral result of evaluating one cycle against the
// current quote snapshot. It is consumed immediately by crossing detection
// and never persisted as an entity.
type CycleEvaluation struct {
	CycleID   string    `json:"cycle"`
	Gross     float64   `json:"gross"`    // roundtrip product before fees
	NetEdge   float64   `json:"net_edge"` // gross * (1-fee)^legs - 1
	Timestamp time.Time `json:"timestamp"`
}

// AlertRecord is the unit appended to the durable sink and formatted for
// notification. Immutable once constructed.
type AlertRecord struct {
	Timestamp time.Time        `json:"timestamp"`
	CycleID   string           `json:"cycle"`
	Edge      float64          `json:"edge"`     // decimal (0.0035 = 0.35%)
	EdgePct   float64          `json:"edge_pct"` // percent
	SimPnL    float64          `json:"sim_pnl"`  // on the configured notional
	Quotes    map[string]Quote `json:"quotes"`   // snapshot of all tracked instruments
}

// NewAlertRecord builds a record for a qualifying evaluation. notional is the
// simulated position size in the funding asset; quotes is the book snapshot
// taken at the same evaluation pass.
func NewAlertRecord(eval CycleEvaluation, notional float64, quotes map[string]Quote) AlertRecord {
	return AlertRecord{
		Timestamp: eval.Timestamp,
		CycleID:   eval.CycleID,
		Edge:      eval.NetEdge,
		EdgePct:   eval.NetEdge * 100.0,
		SimPnL:    notional * eval.NetEdge,
		Quotes:    quotes,
	}
}
