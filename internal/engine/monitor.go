package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"triarb/internal/domain"
	"triarb/internal/infra"
	"triarb/internal/service"
	"triarb/internal/strategy"
)

// Monitor is the evaluation activity: a free-running timer that recomputes
// every cycle's edge against the current quote book and drives crossing
// detection and dispatch. It deliberately wakes on its own interval rather
// than on feed arrivals; the interval is the poll granularity for crossing
// detection and cooldown expiry, and evaluating unchanged data is fine.
type Monitor struct {
	book       *service.QuoteBook
	evaluator  *strategy.Evaluator
	detector   *strategy.Detector
	dispatcher *Dispatcher
	symbols    []string

	interval    time.Duration
	statusEvery time.Duration
	lastStatus  time.Time
}

// NewMonitor wires the evaluation loop. symbols is the readiness set
// (catalog.Symbols()). statusEvery throttles the compact console status line;
// zero logs a status on every pass with an edge above threshold.
func NewMonitor(book *service.QuoteBook, evaluator *strategy.Evaluator, detector *strategy.Detector,
	dispatcher *Dispatcher, symbols []string, interval, statusEvery time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Monitor{
		book:        book,
		evaluator:   evaluator,
		detector:    detector,
		dispatcher:  dispatcher,
		symbols:     symbols,
		interval:    interval,
		statusEvery: statusEvery,
	}
}

// Run executes the evaluate -> detect -> dispatch loop until ctx is
// cancelled. This MUST be run in a single goroutine: the detector's crossing
// state is owned by this loop and unsynchronized.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("Monitor started",
		slog.Duration("interval", m.interval),
		slog.Int("symbols", len(m.symbols)),
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Monitor stopping...")
			return
		case <-ticker.C:
			m.runOnce(ctx, time.Now())
		}
	}
}

// runOnce performs a single evaluation pass. A slow dispatch (disk or
// notification I/O) delays the next pass but never corrupts it; quote book
// updates continue independently on the feed side.
func (m *Monitor) runOnce(ctx context.Context, now time.Time) {
	if !m.book.IsReady(m.symbols) {
		return
	}

	quotes := m.book.Snapshot(m.symbols)
	evals, err := m.evaluator.EvaluateAll(quotes, now)
	if err != nil {
		// Not ready; simply wait for more ticks.
		return
	}
	infra.GlobalMetrics.RecordEvaluation()

	if m.detector.AnyAbove(evals) && (m.statusEvery == 0 || now.Sub(m.lastStatus) >= m.statusEvery) {
		slog.Info("Edges above threshold", slog.String("status", statusLine(evals)))
		m.lastStatus = now
	}

	events := m.detector.Filter(evals)
	if len(events) > 0 {
		m.dispatcher.Dispatch(ctx, events, quotes, now)
	}
}

// statusLine renders the compact per-cycle edge summary, e.g.
// "A: 1.3560% | B: -0.4880%".
func statusLine(evals []domain.CycleEvaluation) string {
	parts := make([]string, len(evals))
	for i, ev := range evals {
		parts[i] = fmt.Sprintf("%s:%8.4f%%", ev.CycleID, ev.NetEdge*100)
	}
	return strings.Join(parts, " | ")
}
