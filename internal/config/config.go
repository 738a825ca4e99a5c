package config

import "github.com/caarlos0/env"

type Config struct {
	HTTPAddress string `json:"http_address" env:"HTTP_ADDRESS" envDefault:"127.0.0.1:8080"`
	LogLevel    int    `json:"log_level" env:"LOG_LEVEL" envDefault:"0"`

	// DatabaseDSN selects the postgres audit store when set; empty keeps
	// audit records in memory only.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN" envDefault:""`

	// KafkaBrokers enables outcome-event publishing when non-empty.
	KafkaBrokers []string `json:"kafka_brokers" env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `json:"kafka_topic" env:"KAFKA_TOPIC" envDefault:"transaction_outcomes"`

	MaxRetries       int    `json:"max_retries" env:"PROCESSOR_MAX_RETRIES" envDefault:"2"`
	ExternalFeeFixed string `json:"external_fee_fixed" env:"PROCESSOR_EXTERNAL_FEE" envDefault:"1"`

	RiskFrequencyWindowSeconds int `json:"risk_frequency_window_seconds" env:"RISK_FREQUENCY_WINDOW_SECONDS" envDefault:"60"`
	RiskFrequencyLimit         int `json:"risk_frequency_limit" env:"RISK_FREQUENCY_LIMIT" envDefault:"3"`
}

func MustNewConfig() *Config {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		panic(err)
	}
	return c
}
