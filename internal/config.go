package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	EnvironmentTest = "test"
	EnvironmentLive = "live"

	CheckoutOptionClassic      = "classic"
	CheckoutOptionCombinedPage = "combinedpage"

	ModePayOnly = "payonly"
	ModePayPlus = "payplus"
	ModeFullPay = "fullpay"

	DefaultGatewayID = "emspay"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Checkout      CheckoutConfig      `mapstructure:"checkout"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OpenAPISpec       string        `mapstructure:"openapi_spec"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// GatewayConfig holds the merchant settings for the hosted payment page. The
// same callback URL receives success, failure and notification calls.
type GatewayConfig struct {
	ID             string `mapstructure:"id"`
	StoreName      string `mapstructure:"store_name" validate:"required"`
	SharedSecret   string `mapstructure:"shared_secret" validate:"required"`
	Environment    string `mapstructure:"environment" validate:"required,oneof=test live"`
	CheckoutOption string `mapstructure:"checkout_option" validate:"oneof=classic combinedpage"`
	Mode           string `mapstructure:"mode" validate:"oneof=payonly payplus fullpay"`
	CallbackURL    string `mapstructure:"callback_url" validate:"required,url"`
}

type CheckoutConfig struct {
	BaseURL         string            `mapstructure:"base_url" validate:"required,url"`
	DefaultTimezone string            `mapstructure:"default_timezone"`
	ReceiptSecret   string            `mapstructure:"receipt_secret" validate:"required,min=32"`
	ReceiptTokenTTL time.Duration     `mapstructure:"receipt_token_ttl"`
	EnabledMethods  []string          `mapstructure:"enabled_methods"`
	ExtraFields     map[string]string `mapstructure:"extra_fields"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv builds the configuration for container deployments where
// no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			OpenAPISpec:       getEnv("OPENAPI_SPEC", "api/openapi.yml"),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Gateway: GatewayConfig{
			ID:             getEnv("EMS_GATEWAY_ID", DefaultGatewayID),
			StoreName:      getEnv("EMS_STORE_NAME", ""),
			SharedSecret:   getEnv("EMS_SHARED_SECRET", ""),
			Environment:    getEnv("EMS_ENVIRONMENT", EnvironmentTest),
			CheckoutOption: getEnv("EMS_CHECKOUT_OPTION", CheckoutOptionClassic),
			Mode:           getEnv("EMS_MODE", ModePayOnly),
			CallbackURL:    getEnv("EMS_CALLBACK_URL", ""),
		},
		Checkout: CheckoutConfig{
			BaseURL:         getEnv("CHECKOUT_BASE_URL", "http://localhost:8080"),
			DefaultTimezone: getEnv("CHECKOUT_DEFAULT_TIMEZONE", "UTC"),
			ReceiptSecret:   getEnv("CHECKOUT_RECEIPT_SECRET", ""),
			ReceiptTokenTTL: getEnvAsDuration("CHECKOUT_RECEIPT_TOKEN_TTL", time.Hour),
			EnabledMethods:  getEnvAsList("CHECKOUT_ENABLED_METHODS"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
			Metrics: MetricsConfig{
				Enabled:   getEnv("METRICS_ENABLED", "true") == "true",
				Namespace: getEnv("METRICS_NAMESPACE", "emspay"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills optional settings left empty by the config file.
func (c *Config) ApplyDefaults() {
	if c.Gateway.ID == "" {
		c.Gateway.ID = DefaultGatewayID
	}
	if c.Gateway.CheckoutOption == "" {
		c.Gateway.CheckoutOption = CheckoutOptionClassic
	}
	if c.Gateway.Mode == "" {
		c.Gateway.Mode = ModePayOnly
	}
	if c.Checkout.DefaultTimezone == "" {
		c.Checkout.DefaultTimezone = "UTC"
	}
	if c.Checkout.ReceiptTokenTTL <= 0 {
		c.Checkout.ReceiptTokenTTL = time.Hour
	}
	if c.Server.OpenAPISpec == "" {
		c.Server.OpenAPISpec = "api/openapi.yml"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "json"
	}
	if c.Observability.Metrics.Namespace == "" {
		c.Observability.Metrics.Namespace = "emspay"
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ----------------- VALIDATION -----------------

// Validate checks the struct tags first, then the rules that span fields or
// need the environment (time zone database, URL shape).
func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if err := c.Checkout.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("checkout config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *GatewayConfig) Validate() error {
	if c.StoreName == "" {
		return errors.New("store_name is required")
	}
	if c.SharedSecret == "" {
		return errors.New("shared_secret is required")
	}
	switch c.Environment {
	case EnvironmentTest, EnvironmentLive:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvironmentTest, EnvironmentLive, c.Environment)
	}
	switch c.CheckoutOption {
	case CheckoutOptionClassic, CheckoutOptionCombinedPage:
	default:
		return fmt.Errorf("unknown checkout_option %q", c.CheckoutOption)
	}
	switch c.Mode {
	case ModePayOnly, ModePayPlus, ModeFullPay:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if u, err := url.Parse(c.CallbackURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("callback_url must be an absolute URL, got %q", c.CallbackURL)
	}
	return nil
}

func (c *CheckoutConfig) Validate() error {
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	if len(c.ReceiptSecret) < 32 {
		return errors.New("receipt_secret must be at least 32 characters")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default_timezone %q: %w", c.DefaultTimezone, err)
	}
	return nil
}
