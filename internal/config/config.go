package config

import (
	"fmt"
	"os"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type FlatRateEntry struct {
	Price        string `yaml:"price"`
	DeliveryDays int    `yaml:"delivery_days"`
}

type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	MySQLDSN  string `yaml:"mysql_dsn"`
	RedisAddr string `yaml:"redis_addr"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Aggregator struct {
		BaseURL          string `yaml:"base_url"`
		Token            string `yaml:"token"`
		OriginPostalCode string `yaml:"origin_postal_code"`
	} `yaml:"aggregator"`

	Payment struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"payment"`

	AddressBaseURL string `yaml:"address_base_url"`

	// FlatRates maps courier localities to their published rates.
	FlatRates map[string]FlatRateEntry `yaml:"flat_rates"`
}

// Load reads the YAML config file and applies environment overrides.
// Credentials are expected from the environment in deployments; the file
// carries the static parts like the courier rate table.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{HTTPAddr: ":8080"}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.MySQLDSN, "MYSQL_DSN")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	overrideString(&cfg.Aggregator.BaseURL, "AGGREGATOR_BASE_URL")
	overrideString(&cfg.Aggregator.Token, "AGGREGATOR_TOKEN")
	overrideString(&cfg.Aggregator.OriginPostalCode, "ORIGIN_POSTAL_CODE")
	overrideString(&cfg.Payment.BaseURL, "PAYMENT_BASE_URL")
	overrideString(&cfg.Payment.Token, "PAYMENT_TOKEN")
	overrideString(&cfg.AddressBaseURL, "ADDRESS_BASE_URL")

	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "sale-events"
	}

	return cfg, nil
}

// FlatRateTable converts the YAML entries to domain rates, rejecting
// unparseable or negative prices at startup rather than at quote time.
func (c *Config) FlatRateTable() (map[string]domain.Rate, error) {
	table := make(map[string]domain.Rate, len(c.FlatRates))
	for locality, entry := range c.FlatRates {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("flat rate for %q: invalid price %q", locality, entry.Price)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("flat rate for %q: negative price", locality)
		}
		table[locality] = domain.Rate{Price: price, DeliveryDays: entry.DeliveryDays}
	}
	return table, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
