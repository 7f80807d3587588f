package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	CRM        CRMConfig        `yaml:"crm" mapstructure:"crm"`
	Lead       LeadConfig       `yaml:"lead" mapstructure:"lead"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CRMConfig holds the remote CRM credentials and workspace identifiers.
// Token, LocationID and PipelineID are static for process lifetime and
// required before any lead can be submitted.
type CRMConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	LocationID string  `yaml:"location_id" mapstructure:"location_id"`
	PipelineID string  `yaml:"pipeline_id" mapstructure:"pipeline_id"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LeadConfig configures lead mapping behavior.
type LeadConfig struct {
	// DefaultCountryCode is prefixed to phone numbers submitted without one.
	DefaultCountryCode string `yaml:"default_country_code" mapstructure:"default_country_code"`

	// VocabularyFile optionally points to a YAML file overriding the
	// inquiry-type tag table used by the form mapper.
	VocabularyFile string `yaml:"vocabulary_file" mapstructure:"vocabulary_file"`
}

// StoreConfig configures the submission journal backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// RetryConfig configures retries for the pipeline-stage fetch.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// MonitoringConfig configures submission-failure alerting. Alerting is
// disabled when WebhookURL is empty.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ConfigurationError names a required configuration value that is absent.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: missing required value %q", e.Key)
}

// Validate fails fast with a ConfigurationError naming the first missing
// credential. Called before constructing anything that talks to the CRM.
func (c CRMConfig) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return &ConfigurationError{Key: "crm.token"}
	}
	if strings.TrimSpace(c.LocationID) == "" {
		return &ConfigurationError{Key: "crm.location_id"}
	}
	if strings.TrimSpace(c.PipelineID) == "" {
		return &ConfigurationError{Key: "crm.pipeline_id"}
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("crm.base_url", "https://services.leadconnectorhq.com")
	v.SetDefault("crm.rate_limit", 0)
	v.SetDefault("lead.default_country_code", "57")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadsync.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
