package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      logger.Config  `yaml:"log"`
	Kitchen  KitchenConfig  `yaml:"kitchen"`
	Order    OrderConfig    `yaml:"order"`
	Payment  PaymentConfig  `yaml:"payment"`
	Client   ClientConfig   `yaml:"client"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

type KitchenConfig struct {
	Port         int            `yaml:"port"`
	URL          string         `yaml:"url"`
	InitialStock map[string]int `yaml:"initial_stock"`
}

type OrderConfig struct {
	Port           int           `yaml:"port"`
	HandoffTimeout time.Duration `yaml:"handoff_timeout"`
	Archive        ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig selects where the order table snapshot lives.
type ArchiveConfig struct {
	Driver string        `yaml:"driver"` // file, postgres or redis
	Dir    string        `yaml:"dir"`
	TTL    time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	Port int    `yaml:"port"`
	URL  string `yaml:"url"`
}

// ClientConfig drives the user front end's connector.
type ClientConfig struct {
	Primary           string        `yaml:"primary"`
	Secondaries       []string      `yaml:"secondaries"`
	Timeout           time.Duration `yaml:"timeout"`
	SecondaryAttempts int           `yaml:"secondary_attempts"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

const (
	ArchiveFile     = "file"
	ArchivePostgres = "postgres"
	ArchiveRedis    = "redis"
)

// Default returns a configuration good enough to run every service locally.
func Default() *Config {
	return &Config{
		Log: logger.DefaultConfig(),
		Kitchen: KitchenConfig{
			Port: 1234,
			URL:  "http://localhost:1234",
		},
		Order: OrderConfig{
			Port:           3000,
			HandoffTimeout: 5 * time.Second,
			Archive: ArchiveConfig{
				Driver: ArchiveFile,
				Dir:    "data",
				TTL:    48 * time.Hour,
			},
		},
		Payment: PaymentConfig{
			Port: 4333,
			URL:  "http://localhost:4333",
		},
		Client: ClientConfig{
			Primary:           "http://localhost:3000",
			Timeout:           5 * time.Second,
			SecondaryAttempts: 1,
			PollInterval:      time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "kitchenline",
			Database: "kitchenline",
			SSLMode:  "disable",
			MaxConns: 4,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			User: "guest",
			// amqp091 default credentials
			Password: "guest",
		},
	}
}

// Load reads a YAML file on top of Default. ${VAR} references are expanded
// from the environment before parsing. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping cfg's values for absent keys.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error

	for name, port := range map[string]int{"kitchen.port": c.Kitchen.Port, "order.port": c.Order.Port, "payment.port": c.Payment.Port} {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s: %d out of range", name, port))
		}
	}
	for item, count := range c.Kitchen.InitialStock {
		if count < 0 {
			errs = append(errs, fmt.Errorf("kitchen.initial_stock.%s: negative count %d", item, count))
		}
	}
	switch c.Order.Archive.Driver {
	case ArchiveFile:
		if c.Order.Archive.Dir == "" {
			errs = append(errs, errors.New("order.archive.dir is required for the file driver"))
		}
	case ArchivePostgres, ArchiveRedis:
	default:
		errs = append(errs, fmt.Errorf("order.archive.driver: unknown driver %q", c.Order.Archive.Driver))
	}
	if c.Order.HandoffTimeout <= 0 {
		errs = append(errs, errors.New("order.handoff_timeout must be positive"))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if c.Client.SecondaryAttempts < 0 {
		errs = append(errs, errors.New("client.secondary_attempts must not be negative"))
	}
	if c.Client.PollInterval <= 0 {
		errs = append(errs, errors.New("client.poll_interval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
