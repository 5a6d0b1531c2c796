package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CHAINLEDGER_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Transport TransportConfig `yaml:"transport"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
	// RateLimitPerMinute caps requests per client IP; 0 disables the limit.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" validate:"min=0"`
}

type DBConfig struct {
	Driver   string         `yaml:"driver" validate:"oneof=sqlite postgres"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds either a DSN or the RDS IAM settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Endpoint string `yaml:"endpoint"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Name     string `yaml:"name"`
	Region   string `yaml:"region"`
	Profile  string `yaml:"profile"`
	SSLMode  string `yaml:"sslmode"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Path  string `yaml:"path"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultTenant serves unauthenticated requests when auth is disabled.
	DefaultTenant string `yaml:"default_tenant" validate:"required"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" validate:"oneof=http stdio"`
}

type LedgerConfig struct {
	MaxHistoryYears int    `yaml:"max_history_years" validate:"min=1,max=100"`
	MaxRevenue      string `yaml:"max_revenue" validate:"required,numeric"`
	MaxUnits        int64  `yaml:"max_units" validate:"min=0"`
}

// Limits converts the ledger section into validation limits.
func (c LedgerConfig) Limits() (period.Limits, error) {
	maxRevenue, err := decimal.NewFromString(c.MaxRevenue)
	if err != nil {
		return period.Limits{}, fmt.Errorf("invalid ledger.max_revenue: %w", err)
	}
	if maxRevenue.IsNegative() {
		return period.Limits{}, errors.New("invalid ledger.max_revenue: negative")
	}
	return period.Limits{
		MaxHistoryYears: c.MaxHistoryYears,
		MaxRevenue:      maxRevenue,
		MaxUnits:        c.MaxUnits,
	}, nil
}

// Default returns the built-in configuration.
func Default() Config {
	limits := period.DefaultLimits()
	return Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			RateLimitPerMinute: 600,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "chainledger.db",
			Postgres: PostgresConfig{
				Port:    5432,
				SSLMode: "require",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled:       false,
			DefaultTenant: "default",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Ledger: LedgerConfig{
			MaxHistoryYears: limits.MaxHistoryYears,
			MaxRevenue:      limits.MaxRevenue.String(),
			MaxUnits:        limits.MaxUnits,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field ranges and cross-field requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Ledger.Limits(); err != nil {
		return err
	}
	if c.DB.Driver == "postgres" && c.DB.Postgres.DSN == "" {
		pg := c.DB.Postgres
		if pg.Endpoint == "" || pg.User == "" || pg.Name == "" || pg.Region == "" {
			return errors.New("invalid config: postgres needs db.postgres.dsn or endpoint, user, name and region")
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) error {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
		return nil
	}

	setString("SERVER_HOST", &cfg.Server.Host)
	if err := setInt("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := setInt("RATE_LIMIT_PER_MINUTE", &cfg.Server.RateLimitPerMinute); err != nil {
		return err
	}

	setString("DB_DRIVER", &cfg.DB.Driver)
	setString("DB_PATH", &cfg.DB.Path)
	setString("PG_DSN", &cfg.DB.Postgres.DSN)
	setString("PG_ENDPOINT", &cfg.DB.Postgres.Endpoint)
	if err := setInt("PG_PORT", &cfg.DB.Postgres.Port); err != nil {
		return err
	}
	setString("PG_USER", &cfg.DB.Postgres.User)
	setString("PG_NAME", &cfg.DB.Postgres.Name)
	setString("PG_REGION", &cfg.DB.Postgres.Region)
	setString("PG_PROFILE", &cfg.DB.Postgres.Profile)
	setString("PG_SSLMODE", &cfg.DB.Postgres.SSLMode)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_PATH", &cfg.Log.Path)

	if v := os.Getenv(envPrefix + "AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sAUTH_ENABLED: %w", envPrefix, err)
		}
		cfg.Auth.Enabled = enabled
	}
	setString("DEFAULT_TENANT", &cfg.Auth.DefaultTenant)
	setString("TRANSPORT_MODE", &cfg.Transport.Mode)

	if err := setInt("MAX_HISTORY_YEARS", &cfg.Ledger.MaxHistoryYears); err != nil {
		return err
	}
	setString("MAX_REVENUE", &cfg.Ledger.MaxRevenue)
	if v := os.Getenv(envPrefix + "MAX_UNITS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_UNITS: %w", envPrefix, err)
		}
		cfg.Ledger.MaxUnits = n
	}

	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
