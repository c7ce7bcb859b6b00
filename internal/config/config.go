package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/fx"
)

// Config holds all runtime configuration for the service. Values are
// resolved in three layers: built-in defaults, an optional TOML file
// pointed at by CHURNBUSTER_CONFIG, then environment variables.
type Config struct {
	Environment string   `toml:"environment"`
	HTTPAddr    string   `toml:"http_addr"`
	Database    Database `toml:"database"`
	Platform    Platform `toml:"platform"`
	Webhook     Webhook  `toml:"webhook"`
	Credits     Credits  `toml:"credits"`
	Events      Events   `toml:"events"`
	Telemetry   Telemetry `toml:"telemetry"`
}

// Events configures the outbox publisher. An empty SinkURL drains the
// outbox without external delivery.
type Events struct {
	SinkURL      string        `toml:"sink_url"`
	PollInterval time.Duration `toml:"poll_interval"`
	BatchSize    int           `toml:"batch_size"`
}

type Database struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Platform configures the host membership platform client.
type Platform struct {
	APIKey  string `toml:"api_key"`
	AppID   string `toml:"app_id"`
	BaseURL string `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

type Webhook struct {
	Secret string `toml:"secret"`
}

// CreditTier maps an exact payment amount in cents to a credit pack size.
type CreditTier struct {
	AmountCents int64 `toml:"amount_cents"`
	Credits     int64 `toml:"credits"`
}

// Credits configures grant amounts, the purchase tier table and the
// proportional fallback for non-standard payment amounts.
type Credits struct {
	WelcomeBonus   int64        `toml:"welcome_bonus"`
	CentsPerCredit int64        `toml:"cents_per_credit"`
	Tiers          []CreditTier `toml:"tiers"`
	// Packs maps a purchasable pack size to the platform plan id used
	// for hosted checkout.
	Packs map[string]string `toml:"packs"`
}

type Telemetry struct {
	ServiceName      string  `toml:"service_name"`
	TracingEnabled   bool    `toml:"tracing_enabled"`
	ExporterEndpoint string  `toml:"exporter_endpoint"`
	ExporterProtocol string  `toml:"exporter_protocol"`
	SamplingRatio    float64 `toml:"sampling_ratio"`
}

// Module provides the resolved Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load resolves configuration from defaults, file and environment.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHURNBUSTER_CONFIG")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Credits.WelcomeBonus < 0 {
		return Config{}, fmt.Errorf("credits.welcome_bonus must not be negative")
	}
	if cfg.Credits.CentsPerCredit <= 0 {
		return Config{}, fmt.Errorf("credits.cents_per_credit must be positive")
	}
	sort.Slice(cfg.Credits.Tiers, func(i, j int) bool {
		return cfg.Credits.Tiers[i].AmountCents < cfg.Credits.Tiers[j].AmountCents
	})

	return cfg, nil
}

func defaults() Config {
	return Config{
		Environment: "development",
		HTTPAddr:    ":8080",
		Database: Database{
			Driver: "sqlite",
			DSN:    "churnbuster.db",
		},
		Platform: Platform{
			BaseURL: "https://api.whop.com",
			Timeout: 10 * time.Second,
		},
		Credits: Credits{
			WelcomeBonus:   10,
			CentsPerCredit: 500,
			Tiers: []CreditTier{
				{AmountCents: 5000, Credits: 10},
				{AmountCents: 20000, Credits: 50},
				{AmountCents: 70000, Credits: 200},
			},
			Packs: map[string]string{
				"10":  "plan_TiRTD1hLt3Qms",
				"50":  "plan_zcRyWFMoC7qq4",
				"200": "plan_ZkocUylT3Psgd",
			},
		},
		Events: Events{
			PollInterval: 15 * time.Second,
			BatchSize:    100,
		},
		Telemetry: Telemetry{
			ServiceName:      "churnbuster",
			ExporterProtocol: "grpc",
			SamplingRatio:    0.1,
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "CHURNBUSTER_ENV")
	setString(&cfg.HTTPAddr, "CHURNBUSTER_HTTP_ADDR")
	setString(&cfg.Database.Driver, "CHURNBUSTER_DB_DRIVER")
	setString(&cfg.Database.DSN, "CHURNBUSTER_DB_DSN")
	setString(&cfg.Platform.APIKey, "WHOP_API_KEY")
	setString(&cfg.Platform.AppID, "WHOP_APP_ID")
	setString(&cfg.Platform.BaseURL, "WHOP_API_BASE_URL")
	setString(&cfg.Webhook.Secret, "WHOP_WEBHOOK_SECRET")
	setInt64(&cfg.Credits.WelcomeBonus, "CHURNBUSTER_WELCOME_BONUS")
	setInt64(&cfg.Credits.CentsPerCredit, "CHURNBUSTER_CENTS_PER_CREDIT")
	setString(&cfg.Events.SinkURL, "CHURNBUSTER_EVENT_SINK_URL")
	setString(&cfg.Telemetry.ServiceName, "CHURNBUSTER_SERVICE_NAME")
	setBool(&cfg.Telemetry.TracingEnabled, "CHURNBUSTER_TRACING_ENABLED")
	setString(&cfg.Telemetry.ExporterEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.ExporterProtocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func setInt64(dst *int64, key string) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}
	*dst = parsed
}

func setBool(dst *bool, key string) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return
	}
	*dst = parsed
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// CreditsForAmount resolves the number of credits granted for a payment
// amount. Exact tier matches win; any other amount falls back to the
// proportional rate (CentsPerCredit cents per credit, floored).
func (c Config) CreditsForAmount(amountCents int64) int64 {
	for _, tier := range c.Credits.Tiers {
		if tier.AmountCents == amountCents {
			return tier.Credits
		}
	}
	if amountCents <= 0 || c.Credits.CentsPerCredit <= 0 {
		return 0
	}
	return amountCents / c.Credits.CentsPerCredit
}
