// Package config maps the dispatcher's environment into one typed
// struct. Everything has a workable default except the collaborators
// that are genuinely optional: without DATABASE_URL the service runs
// on in-memory stores, without REDIS_ADDR counters stay local.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Kafka struct {
	Brokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	Topic   string `env:"KAFKA_TOPIC" envDefault:"incidents.events"`
	GroupID string `env:"KAFKA_GROUP_ID" envDefault:"incident-management-consumer"`
}

type Retry struct {
	MaxAttempts    int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	InitialBackoff time.Duration `env:"RETRY_INITIAL_BACKOFF" envDefault:"500ms"`
	Multiplier     float64       `env:"RETRY_BACKOFF_MULTIPLIER" envDefault:"2.0"`
}

type SMTP struct {
	Host string `env:"SMTP_HOST" envDefault:"localhost"`
	Port string `env:"SMTP_PORT" envDefault:"1025"`
	From string `env:"SMTP_FROM" envDefault:"incidents@opskit.local"`
}

type Webhook struct {
	URL     string        `env:"NOTIFY_WEBHOOK_URL"`
	Token   string        `env:"NOTIFY_WEBHOOK_TOKEN"`
	Timeout time.Duration `env:"NOTIFY_WEBHOOK_TIMEOUT" envDefault:"5s"`
}

type Directory struct {
	BaseURL string        `env:"DIRECTORY_BASE_URL"`
	Token   string        `env:"DIRECTORY_TOKEN"`
	Timeout time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"3s"`
	// Static fallbacks used when no base URL is configured.
	Watchers []string `env:"DIRECTORY_WATCHERS" envSeparator:","`
	OnCall   []string `env:"ONCALL_ROSTER" envSeparator:","`
}

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"dispatcher-service"`
	Port        string `env:"PORT" envDefault:"8086"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationsURL string `env:"MIGRATIONS_URL" envDefault:"file://db/migrations"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Notifier selects the delivery transport: smtp, webhook or noop.
	Notifier string `env:"NOTIFIER" envDefault:"smtp"`

	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`
	LeadEmails  []string `env:"LEAD_EMAILS" envSeparator:","`

	ProcessTimeout time.Duration `env:"PROCESS_TIMEOUT" envDefault:"30s"`

	Kafka     Kafka
	Retry     Retry
	SMTP      SMTP
	Webhook   Webhook
	Directory Directory
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
