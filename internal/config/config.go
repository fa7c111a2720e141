package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN      string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL      string `env:"RABBITMQ_URL,required=true"`
	RedisURL         string `env:"REDIS_URL,required=true"`
	PushGatewayURL   string `env:"PUSH_GATEWAY_URL,required=true"`
	PushGatewayToken string `env:"PUSH_GATEWAY_TOKEN"`
	JWTSecret        string `env:"JWT_SECRET,required=true"`

	QueueUpdatesQueue string `env:"QUEUE_UPDATES_QUEUE,default=queue.updates"`
	ConsumerPrefetch  int    `env:"CONSUMER_PREFETCH,default=8"`

	GatewayRateLimitPerSec int `env:"GATEWAY_RATE_LIMIT_PER_SEC,default=100"`
	BulkConcurrency        int `env:"BULK_CONCURRENCY,default=8"`

	SweepIntervalHours int `env:"SWEEP_INTERVAL_HOURS,default=24"`
	RetentionDays      int `env:"RETENTION_DAYS,default=30"`
	SweepBatchLimit    int `env:"SWEEP_BATCH_LIMIT,default=500"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
