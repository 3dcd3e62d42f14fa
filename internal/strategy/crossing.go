package strategy

import "triarb/internal/domain"

// Policy selects how above-threshold evaluations become events.
type Policy string

const (
	// PolicyEdge emits an event only when a cycle's edge transitions from
	// at-or-below the threshold to above it. Staying above produces nothing
	// further until the cycle dips back below.
	PolicyEdge Policy = "edge"

	// PolicyLevel emits an event for every above-threshold evaluation.
	// Rate limiting for notifications is the dispatcher's concern.
	PolicyLevel Policy = "level"
)

// Detector is the stateful filter between evaluation and dispatch. It tracks,
// per cycle, whether the previous evaluation was above the threshold.
// It is owned exclusively by the monitor loop and needs no locking.
type Detector struct {
	policy    Policy
	threshold float64
	wasAbove  map[string]bool
}

// NewDetector creates a detector. The threshold is a decimal edge and may be
// negative to catch near-breakeven cycles as well as strictly profitable ones.
func NewDetector(policy Policy, threshold float64) *Detector {
	if policy != PolicyEdge && policy != PolicyLevel {
		panic("Detector: unknown policy " + string(policy))
	}
	return &Detector{
		policy:    policy,
		threshold: threshold,
		wasAbove:  make(map[string]bool),
	}
}

// Threshold returns the configured alert threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Filter returns the evaluations that qualify as events this pass and
// advances the per-cycle crossing state. Input order is preserved, so
// downstream tie-breaking follows catalog declaration order.
func (d *Detector) Filter(evals []domain.CycleEvaluation) []domain.CycleEvaluation {
	var events []domain.CycleEvaluation
	for _, ev := range evals {
		above := ev.NetEdge > d.threshold

		switch d.policy {
		case PolicyEdge:
			if above && !d.wasAbove[ev.CycleID] {
				events = append(events, ev)
			}
		case PolicyLevel:
			if above {
				events = append(events, ev)
			}
		}

		d.wasAbove[ev.CycleID] = above
	}
	return events
}

// AnyAbove reports whether any evaluation in the slice exceeds the threshold.
// Used for the compact console status line.
func (d *Detector) AnyAbove(evals []domain.CycleEvaluation) bool {
	for _, ev := range evals {
		if ev.NetEdge > d.threshold {
			return true
		}
	}
	return false
}
