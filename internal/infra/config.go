package infra

import (
	"fmt"
	"os"

	"triarb/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration. Sensitive values can be
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL string `yaml:"ws_url"`
	} `yaml:"feed"`

	Instruments []domain.Instrument `yaml:"instruments"`
	Cycles      []domain.Cycle      `yaml:"cycles"`

	Engine struct {
		TakerFee         decimal.Decimal `yaml:"taker_fee"`  // per-leg proportional cost
		Threshold        decimal.Decimal `yaml:"threshold"`  // decimal edge, may be negative
		NotionalUSDT     decimal.Decimal `yaml:"notional_usdt"`
		PollIntervalMS   int             `yaml:"poll_interval_ms"`
		StatusIntervalMS int             `yaml:"status_interval_ms"`
		Policy           string          `yaml:"policy"` // "edge" or "level"
		Cooldown         struct {
			Scope   string `yaml:"scope"` // "global" or "cycle"
			Seconds int    `yaml:"seconds"`
		} `yaml:"cooldown"`
		SingleNotification bool `yaml:"single_notification"`
	} `yaml:"engine"`

	Sink struct {
		Kind string `yaml:"kind"` // "csv" or "sqlite"
		Path string `yaml:"path"`
	} `yaml:"sink"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration validity. Cycle/instrument cross-validation
// happens in domain.NewCatalog; this covers everything else.
func (c *Config) Validate() error {
	if c.Feed.WSURL == "" || (!hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://")) {
		return &domain.ConfigError{Field: "feed.ws_url", Err: fmt.Errorf("invalid websocket URL %q", c.Feed.WSURL)}
	}
	if len(c.Instruments) == 0 {
		return &domain.ConfigError{Field: "instruments", Err: fmt.Errorf("at least one instrument is required")}
	}
	for i, inst := range c.Instruments {
		if inst.Symbol == "" || inst.Base == "" || inst.Quote == "" {
			return &domain.ConfigError{Field: "instruments", Err: fmt.Errorf("instrument %d is incomplete", i)}
		}
	}
	if len(c.Cycles) == 0 {
		return &domain.ConfigError{Field: "cycles", Err: fmt.Errorf("at least one cycle is required")}
	}

	fee := c.Engine.TakerFee
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &domain.ConfigError{Field: "engine.taker_fee", Err: fmt.Errorf("taker fee must be in [0, 1), got %s", fee)}
	}
	if c.Engine.NotionalUSDT.IsNegative() {
		return &domain.ConfigError{Field: "engine.notional_usdt", Err: fmt.Errorf("notional must be non-negative")}
	}
	if c.Engine.PollIntervalMS <= 0 {
		return &domain.ConfigError{Field: "engine.poll_interval_ms", Err: fmt.Errorf("poll interval must be positive")}
	}
	if c.Engine.StatusIntervalMS < 0 {
		return &domain.ConfigError{Field: "engine.status_interval_ms", Err: fmt.Errorf("status interval must be non-negative")}
	}
	if c.Engine.Policy != "edge" && c.Engine.Policy != "level" {
		return &domain.ConfigError{Field: "engine.policy", Err: fmt.Errorf("policy must be \"edge\" or \"level\", got %q", c.Engine.Policy)}
	}
	if c.Engine.Cooldown.Scope != "global" && c.Engine.Cooldown.Scope != "cycle" {
		return &domain.ConfigError{Field: "engine.cooldown.scope", Err: fmt.Errorf("cooldown scope must be \"global\" or \"cycle\", got %q", c.Engine.Cooldown.Scope)}
	}
	if c.Engine.Cooldown.Seconds < 0 {
		return &domain.ConfigError{Field: "engine.cooldown.seconds", Err: fmt.Errorf("cooldown must be non-negative")}
	}

	if c.Sink.Kind != "csv" && c.Sink.Kind != "sqlite" {
		return &domain.ConfigError{Field: "sink.kind", Err: fmt.Errorf("sink kind must be \"csv\" or \"sqlite\", got %q", c.Sink.Kind)}
	}
	if c.Sink.Path == "" {
		return &domain.ConfigError{Field: "sink.path", Err: fmt.Errorf("sink path is required")}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv overrides config values from environment variables when set.
// Telegram credentials never belong in the YAML file in production.
func overrideWithEnv(cfg *Config) {
	if token := os.Getenv("TRIARB_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if chat := os.Getenv("TRIARB_TELEGRAM_CHAT_ID"); chat != "" {
		cfg.Telegram.ChatID = chat
	}
	if url := os.Getenv("TRIARB_FEED_WS_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if path := os.Getenv("TRIARB_SINK_PATH"); path != "" {
		cfg.Sink.Path = path
	}
}
