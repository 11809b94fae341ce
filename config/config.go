// Package config provides configuration management for the Redsys payment service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"redsyspay/entity"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config holds all configuration for the payment service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug bool `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	Listen  struct {
		BindIP         string   `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port           string   `yaml:"port" env:"PORT" env-default:"5100"`
		TLS            bool     `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile       string   `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile        string   `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"*"`
	} `yaml:"listen"`
	Merchant struct {
		Secret          entity.SecretKey `yaml:"secret" env:"MERCHANT_SECRET" env-default:""`
		Code            string           `yaml:"code" env:"MERCHANT_CODE" env-default:""`
		Terminal        string           `yaml:"terminal" env:"MERCHANT_TERMINAL" env-default:"1"`
		Currency        string           `yaml:"currency" env:"MERCHANT_CURRENCY" env-default:"978"`
		TransactionType string           `yaml:"transaction_type" env:"MERCHANT_TRANSACTION_TYPE" env-default:"1"`
		RequestUrl      string           `yaml:"request_url" env:"MERCHANT_REQUEST_URL" env-default:"https://sis-t.redsys.es:25443/sis/realizarPago"`
		NotifyUrl       string           `yaml:"notify_url" env:"MERCHANT_NOTIFY_URL" env-default:""`
		OkUrl           string           `yaml:"ok_url" env:"MERCHANT_OK_URL" env-default:""`
		KoUrl           string           `yaml:"ko_url" env:"MERCHANT_KO_URL" env-default:""`
		Language        string           `yaml:"language" env:"MERCHANT_LANGUAGE" env-default:""`
	} `yaml:"merchant"`
	Webhook struct {
		MaxAgeSeconds  uint32        `yaml:"max_age_seconds" env:"WEBHOOK_MAX_AGE_SECONDS" env-default:"300"`
		CheckFreshness bool          `yaml:"check_freshness" env:"WEBHOOK_CHECK_FRESHNESS" env-default:"true"`
		TimeZone       string        `yaml:"time_zone" env:"WEBHOOK_TIME_ZONE" env-default:"Europe/Madrid"`
		DedupTTL       time.Duration `yaml:"dedup_ttl" env:"WEBHOOK_DEDUP_TTL" env-default:"24h"`
	} `yaml:"webhook"`
	Store struct {
		Type          string        `yaml:"type" env:"STORE_TYPE" env-default:"mongo"`
		RetryAttempts int           `yaml:"retry_attempts" env:"STORE_RETRY_ATTEMPTS" env-default:"3"`
		RetryBackoff  time.Duration `yaml:"retry_backoff" env:"STORE_RETRY_BACKOFF" env-default:"200ms"`
		Timeout       time.Duration `yaml:"timeout" env:"STORE_TIMEOUT" env-default:"10s"`
	} `yaml:"store"`
	Mongo struct {
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"tours"`
	} `yaml:"mongo"`
	Postgres struct {
		Dsn string `yaml:"dsn" env:"POSTGRES_DSN" env-default:""`
	} `yaml:"postgres"`
	Redis struct {
		Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Url     string `yaml:"url" env:"REDIS_URL" env-default:"127.0.0.1:6379"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
		Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"127.0.0.1:9092"`
		Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"reservations.payment"`
	} `yaml:"kafka"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("load config: %w; %s", err, desc)
			instance = nil
			return
		}
		if err = instance.Check(); err != nil {
			instance = nil
		}
	})
	return instance, err
}

// Check validates values that cannot be expressed as defaults.
// Key material is validated separately by the payments service.
func (c *Config) Check() error {
	if c.Merchant.Secret.IsEmpty() || c.Merchant.Code == "" || c.Merchant.Terminal == "" {
		return fmt.Errorf("merchant not configured")
	}
	switch c.Store.Type {
	case StoreMongo, StorePostgres:
	default:
		return fmt.Errorf("unknown store type: %s", c.Store.Type)
	}
	if c.Store.Type == StorePostgres && c.Postgres.Dsn == "" {
		return fmt.Errorf("postgres dsn is empty")
	}
	if c.Store.RetryAttempts < 1 {
		return fmt.Errorf("store retry attempts must be positive, got %d", c.Store.RetryAttempts)
	}
	return nil
}
