package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// WorkerConfig is read from the environment only; the worker runs in
// containers where a config file is more trouble than it is worth.
type WorkerConfig struct {
	DatabaseHost     string `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DB_USER" default:"postgres"`
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	DatabaseName     string `envconfig:"DB_NAME" default:"portal"`
	DatabaseSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	BatchSize        int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval     time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts    int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay       time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	OutboxRetention  time.Duration `envconfig:"OUTBOX_RETENTION" default:"168h"`
	ReminderInterval time.Duration `envconfig:"REMINDER_INTERVAL" default:"1h"`

	SMTPHost            string `envconfig:"SMTP_HOST"`
	SMTPPort            int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername        string `envconfig:"SMTP_USERNAME"`
	SMTPPassword        string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom            string `envconfig:"SMTP_FROM" default:"noreply@carelink.example"`
	SMTPOperatorAddress string `envconfig:"SMTP_OPERATOR_ADDRESS"`

	HealthPort int `envconfig:"HEALTH_PORT" default:"8081"`
}

func LoadWorkerConfig() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process worker config: %w", err)
	}
	return &cfg, nil
}

// Database converts the flat env fields into the shared database config.
func (c *WorkerConfig) Database() DatabaseConfig {
	return DatabaseConfig{
		Host:     c.DatabaseHost,
		Port:     c.DatabasePort,
		User:     c.DatabaseUser,
		Password: c.DatabasePassword,
		Name:     c.DatabaseName,
		SSLMode:  c.DatabaseSSLMode,
	}
}
