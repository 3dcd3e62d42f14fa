package app

import (
	"fmt"
	"log/slog"
	"time"

	"triarb/internal/domain"
	"triarb/internal/infra"
	"triarb/internal/infra/storage"
	"triarb/internal/notify"
	"triarb/internal/service"

	"github.com/joho/godotenv"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Catalog  *domain.Catalog
	Book     *service.QuoteBook
	Sink     domain.AlertSink
	Notifier *notify.Notifier
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization. Any error here is a startup
// configuration failure: no activity has begun yet.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping triarb...")

	// .env is optional; environment beats file either way.
	_ = godotenv.Load()

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Validate cycles against the instrument set
	catalog, err := domain.NewCatalog(cfg.Cycles, cfg.Instruments)
	if err != nil {
		return err
	}
	b.Catalog = catalog
	slog.Info("✅ Cycle catalog validated",
		slog.Int("cycles", len(catalog.Cycles())),
		slog.Int("instruments", len(catalog.Symbols())),
	)

	// 4. Quote book (shared state: feed writes, monitor reads)
	b.Book = service.NewQuoteBook()

	// 5. Durable sink
	sink, err := b.buildSink()
	if err != nil {
		return err
	}
	b.Sink = sink
	slog.Info("✅ Durable sink ready",
		slog.String("kind", cfg.Sink.Kind),
		slog.String("path", cfg.Sink.Path),
	)

	// 6. Notification sink (no-op without credentials)
	b.Notifier = b.buildNotifier()
	if b.Notifier.Enabled() {
		slog.Info("✅ Telegram notifications enabled")
	} else {
		slog.Info("ℹ️ No notification target configured, alerts log-only")
	}

	return nil
}

func (b *Bootstrap) buildSink() (domain.AlertSink, error) {
	switch b.Config.Sink.Kind {
	case "csv":
		return storage.NewCSVSink(b.Config.Sink.Path, b.Catalog.Symbols())
	case "sqlite":
		return storage.NewSQLiteSink(b.Config.Sink.Path)
	default:
		// Config.Validate rejects anything else before we get here.
		return nil, fmt.Errorf("unknown sink kind %q", b.Config.Sink.Kind)
	}
}

func (b *Bootstrap) buildNotifier() *notify.Notifier {
	tg := b.Config.Telegram
	if tg.BotToken == "" || tg.ChatID == "" {
		return notify.NewNotifier()
	}
	return notify.NewNotifier(notify.NewTelegramSender(tg.BotToken, tg.ChatID, 10*time.Second))
}
