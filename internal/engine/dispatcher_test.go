package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"triarb/internal/domain"
)

type fakeSink struct {
	records []domain.AlertRecord
	err     error
}

func (f *fakeSink) Append(rec domain.AlertRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func (f *fakeSink) Close() error { return nil }

type fakeNotifier struct {
	messages []string
	err      error
	enabled  bool
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) Notify(ctx context.Context, title, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

func eventAt(cycle string, edge float64, ts time.Time) domain.CycleEvaluation {
	return domain.CycleEvaluation{CycleID: cycle, NetEdge: edge, Timestamp: ts}
}

var testQuotes = map[string]domain.Quote{
	"BTCUSDT": {Bid: 50000, Ask: 50010},
	"ETHUSDT": {Bid: 3000, Ask: 3001},
	"ETHBTC":  {Bid: 0.0589, Ask: 0.0590},
}

func testDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Notional:           1000,
		Threshold:          0,
		TakerFee:           0.001,
		Cooldown:           15 * time.Second,
		Scope:              ScopeGlobal,
		SingleNotification: true,
		Symbols:            []string{"BTCUSDT", "ETHUSDT", "ETHBTC"},
	}
}

func TestDispatcher_AppendsEveryEvent(t *testing.T) {
	sink := &fakeSink{}
	notifier := &fakeNotifier{enabled: true}
	d := NewDispatcher(sink, notifier, testDispatcherConfig())

	now := time.Now()
	events := []domain.CycleEvaluation{
		eventAt("A", 0.01, now),
		eventAt("B", 0.02, now),
	}
	d.Dispatch(context.Background(), events, testQuotes, now)

	if len(sink.records) != 2 {
		t.Fatalf("Every event must reach the sink, got %d records", len(sink.records))
	}
	if sink.records[0].CycleID != "A" || sink.records[1].CycleID != "B" {
		t.Errorf("Records out of order: %v, %v", sink.records[0].CycleID, sink.records[1].CycleID)
	}
	if sink.records[0].SimPnL != 10 {
		t.Errorf("SimPnL = %v, want 10 (1000 * 0.01)", sink.records[0].SimPnL)
	}
}

func TestDispatcher_CooldownLimitsNotificationsNotRecords(t *testing.T) {
	sink := &fakeSink{}
	notifier := &fakeNotifier{enabled: true}
	d := NewDispatcher(sink, notifier, testDispatcherConfig())

	base := time.Now()
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.01, base)}, testQuotes, base)
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.02, base.Add(time.Second))}, testQuotes, base.Add(time.Second))

	if len(sink.records) != 2 {
		t.Errorf("Both qualifying events must be logged, got %d", len(sink.records))
	}
	if len(notifier.messages) != 1 {
		t.Errorf("Cooldown should allow at most 1 notification, got %d", len(notifier.messages))
	}

	// After the window, notifications resume.
	later := base.Add(16 * time.Second)
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.03, later)}, testQuotes, later)
	if len(notifier.messages) != 2 {
		t.Errorf("Expired cooldown should permit a new notification, got %d", len(notifier.messages))
	}
}

func TestDispatcher_PerCycleCooldownScope(t *testing.T) {
	cfg := testDispatcherConfig()
	cfg.Scope = ScopeCycle
	cfg.SingleNotification = false

	sink := &fakeSink{}
	notifier := &fakeNotifier{enabled: true}
	d := NewDispatcher(sink, notifier, cfg)

	now := time.Now()
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.01, now)}, testQuotes, now)

	// A is cooling down, B is not.
	next := now.Add(time.Second)
	d.Dispatch(context.Background(), []domain.CycleEvaluation{
		eventAt("A", 0.01, next),
		eventAt("B", 0.01, next),
	}, testQuotes, next)

	if len(notifier.messages) != 2 {
		t.Errorf("Per-cycle scope should let B through while A cools, got %d messages", len(notifier.messages))
	}
}

func TestDispatcher_BestCycleSelection(t *testing.T) {
	t.Run("largest edge wins", func(t *testing.T) {
		sink := &fakeSink{}
		notifier := &fakeNotifier{enabled: true}
		d := NewDispatcher(sink, notifier, testDispatcherConfig())

		now := time.Now()
		d.Dispatch(context.Background(), []domain.CycleEvaluation{
			eventAt("A", 0.01, now),
			eventAt("B", 0.03, now),
			eventAt("C", 0.02, now),
		}, testQuotes, now)

		if len(notifier.messages) != 1 {
			t.Fatalf("Single-notification mode should send once, got %d", len(notifier.messages))
		}
		if want := "Cycle *B*"; len(notifier.messages[0]) < len(want) || notifier.messages[0][:len(want)] != want {
			t.Errorf("Best cycle should be B, message was %q", notifier.messages[0])
		}
	})

	t.Run("ties break by declaration order", func(t *testing.T) {
		sink := &fakeSink{}
		notifier := &fakeNotifier{enabled: true}
		d := NewDispatcher(sink, notifier, testDispatcherConfig())

		now := time.Now()
		d.Dispatch(context.Background(), []domain.CycleEvaluation{
			eventAt("A", 0.02, now),
			eventAt("B", 0.02, now),
		}, testQuotes, now)

		if want := "Cycle *A*"; notifier.messages[0][:len(want)] != want {
			t.Errorf("Tie should pick the first-declared cycle, message was %q", notifier.messages[0])
		}
	})
}

func TestDispatcher_TransportFailureStillArmsCooldown(t *testing.T) {
	sink := &fakeSink{}
	notifier := &fakeNotifier{enabled: true, err: errors.New("telegram down")}
	d := NewDispatcher(sink, notifier, testDispatcherConfig())

	base := time.Now()
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.01, base)}, testQuotes, base)
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.01, base.Add(time.Second))}, testQuotes, base.Add(time.Second))

	// No retry storm: the failed attempt consumed the window.
	if len(notifier.messages) != 1 {
		t.Errorf("Failed send must still arm the cooldown, got %d attempts", len(notifier.messages))
	}
}

func TestDispatcher_SinkErrorDoesNotStopDispatch(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	notifier := &fakeNotifier{enabled: true}
	d := NewDispatcher(sink, notifier, testDispatcherConfig())

	now := time.Now()
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.01, now)}, testQuotes, now)

	if len(notifier.messages) != 1 {
		t.Errorf("A sink failure must not block the notification path, got %d", len(notifier.messages))
	}
}

func TestDispatcher_DisabledNotifierOnlyLogs(t *testing.T) {
	sink := &fakeSink{}
	notifier := &fakeNotifier{enabled: false}
	d := NewDispatcher(sink, notifier, testDispatcherConfig())

	now := time.Now()
	d.Dispatch(context.Background(), []domain.CycleEvaluation{eventAt("A", 0.01, now)}, testQuotes, now)

	if len(sink.records) != 1 {
		t.Errorf("Sink should still receive the record, got %d", len(sink.records))
	}
	if len(notifier.messages) != 0 {
		t.Errorf("Disabled notifier must not be called, got %d", len(notifier.messages))
	}
}
