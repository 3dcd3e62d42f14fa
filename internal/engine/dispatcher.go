package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"triarb/internal/domain"
	"triarb/internal/infra"
)

// Notifier is the outbound notification boundary the dispatcher talks to.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, title, message string) error
}

// CooldownScope selects what the notification cooldown applies to.
type CooldownScope string

const (
	ScopeGlobal CooldownScope = "global"
	ScopeCycle  CooldownScope = "cycle"
)

// DispatcherConfig carries the alerting policy parameters.
type DispatcherConfig struct {
	Notional           float64       // simulated position size for P&L
	Threshold          float64       // included in the message for context
	TakerFee           float64       // included in the message for context
	Cooldown           time.Duration // minimum gap between notifications per scope
	Scope              CooldownScope
	SingleNotification bool          // notify only the best cycle per pass
	NotifyTimeout      time.Duration // bound on each outbound send
	Symbols            []string      // snapshot column order for messages
}

// Dispatcher forwards qualifying events to the durable sink and, cooldown
// permitting, to the notification sink. Sink appends are never rate-limited;
// only notifications are. A transport failure still advances the cooldown so
// a broken transport cannot cause a retry storm.
type Dispatcher struct {
	sink        domain.AlertSink
	notifier    Notifier
	cfg         DispatcherConfig
	nextAllowed map[string]time.Time
}

// NewDispatcher creates a dispatcher. sink must be non-nil; notifier may be a
// no-op.
func NewDispatcher(sink domain.AlertSink, notifier Notifier, cfg DispatcherConfig) *Dispatcher {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	return &Dispatcher{
		sink:        sink,
		notifier:    notifier,
		cfg:         cfg,
		nextAllowed: make(map[string]time.Time),
	}
}

// Dispatch handles one evaluation pass worth of qualifying events. events
// must be in catalog declaration order; quotes is the snapshot the events
// were computed from.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.CycleEvaluation, quotes map[string]domain.Quote, now time.Time) {
	if len(events) == 0 {
		return
	}

	for _, ev := range events {
		infra.GlobalMetrics.RecordCrossing()
		rec := domain.NewAlertRecord(ev, d.cfg.Notional, quotes)
		if err := d.sink.Append(rec); err != nil {
			infra.GlobalMetrics.RecordSinkError()
			slog.Error("Durable sink append failed",
				slog.String("cycle", ev.CycleID),
				slog.Any("error", err),
			)
		}
	}

	if d.notifier == nil || !d.notifier.Enabled() {
		return
	}

	candidates := events
	if d.cfg.SingleNotification {
		candidates = []domain.CycleEvaluation{bestOf(events)}
	}

	for _, ev := range candidates {
		key := "global"
		if d.cfg.Scope == ScopeCycle {
			key = ev.CycleID
		}
		if now.Before(d.nextAllowed[key]) {
			continue
		}

		// The attempt itself arms the cooldown, success or not.
		d.nextAllowed[key] = now.Add(d.cfg.Cooldown)

		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.NotifyTimeout)
		err := d.notifier.Notify(sendCtx, "Arb Opportunity", d.formatMessage(ev, quotes))
		cancel()

		infra.GlobalMetrics.RecordNotification()
		if err != nil {
			infra.GlobalMetrics.RecordNotifyError()
			slog.Warn("Notification send failed",
				slog.String("cycle", ev.CycleID),
				slog.Any("error", err),
			)
		}
	}
}

// bestOf picks the event with the largest net edge; ties keep the earlier
// (catalog declaration order) entry.
func bestOf(events []domain.CycleEvaluation) domain.CycleEvaluation {
	best := events[0]
	for _, ev := range events[1:] {
		if ev.NetEdge > best.NetEdge {
			best = ev
		}
	}
	return best
}

func (d *Dispatcher) formatMessage(ev domain.CycleEvaluation, quotes map[string]domain.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cycle *%s*\n", ev.CycleID)
	fmt.Fprintf(&b, "Edge: *%.3f%%*   (sim P&L on $%.0f: %.2f USDT)\n",
		ev.NetEdge*100, d.cfg.Notional, d.cfg.Notional*ev.NetEdge)
	fmt.Fprintf(&b, "Threshold: %.3f%%   Fees/leg: %.2f%%\n",
		d.cfg.Threshold*100, d.cfg.TakerFee*100)

	parts := make([]string, 0, len(d.cfg.Symbols))
	for _, sym := range d.cfg.Symbols {
		q, ok := quotes[sym]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("`%s` %s/%s",
			sym,
			strconv.FormatFloat(q.Bid, 'f', -1, 64),
			strconv.FormatFloat(q.Ask, 'f', -1, 64),
		))
	}
	b.WriteString(strings.Join(parts, " | "))

	return b.String()
}
