package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort int `mapstructure:"server_port"`

	// Environment (development, production, test)
	Environment string `mapstructure:"environment"`
	LogDir      string `mapstructure:"log_dir"`

	// Backend configuration
	BackendURL          string        `mapstructure:"backend_url"`
	BackendGRPCEndpoint string        `mapstructure:"backend_grpc_endpoint"`
	BackendProbeTimeout time.Duration `mapstructure:"backend_probe_timeout"`

	// Component registry configuration
	Components            []string        `mapstructure:"components"`
	AvailabilityMode      string          `mapstructure:"availability_mode"`
	AvailabilityFile      string          `mapstructure:"availability_file"`
	ComponentAvailability map[string]bool `mapstructure:"component_availability"`

	// Execution configuration
	TestTimeout      time.Duration     `mapstructure:"test_timeout"`
	SuiteConcurrency int               `mapstructure:"suite_concurrency"`
	Suites           []SuiteConfig     `mapstructure:"suites"`
	ScheduledSuites  map[string]string `mapstructure:"scheduled_suites"`

	// Scheduler configuration
	SchedulerEnabled bool   `mapstructure:"scheduler_enabled"`
	ProbeSchedule    string `mapstructure:"probe_schedule"`

	// Redis configuration (optional, used for rate limiting and readiness)
	RedisURL string `mapstructure:"redis_url"`

	// Rate limit configuration for the /test routes
	RateLimitEnabled     bool          `mapstructure:"rate_limit_enabled"`
	RateLimitMaxRequests int           `mapstructure:"rate_limit_max_requests"`
	RateLimitWindow      time.Duration `mapstructure:"rate_limit_window"`
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`

	// Metrics configuration
	MetricsNamespace  string `mapstructure:"metrics_namespace"`
	MetricsPath       string `mapstructure:"metrics_path"`
	WorkerMetricsPort int    `mapstructure:"worker_metrics_port"`
}

// SuiteConfig declares an additional test suite
type SuiteConfig struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Components  []string `mapstructure:"components"`
	TestTypes   []string `mapstructure:"test_types"`
}

// Availability modes
const (
	AvailabilityStatic = "static"
	AvailabilityFile   = "file"
	AvailabilityPing   = "ping"
)

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file path
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, continue with environment variables
	}

	// Override with environment variables if they exist
	// BACKEND_GRPC_ENDPOINT -> backend_grpc_endpoint
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", 8080)
	v.SetDefault("environment", "development")
	v.SetDefault("log_dir", "logs")

	v.SetDefault("backend_url", "https://supacrypt-backend:5001")
	v.SetDefault("backend_grpc_endpoint", "supacrypt-backend:5051")
	v.SetDefault("backend_probe_timeout", "3s")

	v.SetDefault("components", DefaultComponents())
	v.SetDefault("availability_mode", AvailabilityStatic)
	v.SetDefault("availability_file", "configs/availability.yaml")
	v.SetDefault("component_availability", DefaultAvailability())

	v.SetDefault("test_timeout", "30s")
	v.SetDefault("suite_concurrency", 4)

	v.SetDefault("scheduler_enabled", false)
	v.SetDefault("probe_schedule", "* * * * *")

	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_max_requests", 60)
	v.SetDefault("rate_limit_window", "1m")
	v.SetDefault("rate_limit_burst", 10)

	v.SetDefault("metrics_namespace", "supacrypt")
	v.SetDefault("metrics_path", "/metrics")
	v.SetDefault("worker_metrics_port", 9090)
}

// DefaultComponents returns the provider components known to the orchestrator
func DefaultComponents() []string {
	return []string{"backend", "pkcs11", "csp", "ksp", "ctk"}
}

// DefaultAvailability is the static readiness table used when no live source is configured
func DefaultAvailability() map[string]bool {
	return map[string]bool{
		"backend": true,
		"pkcs11":  true,
		"csp":     false,
		"ksp":     false,
		"ctk":     true,
	}
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("at least one component must be configured")
	}
	switch c.AvailabilityMode {
	case AvailabilityStatic, AvailabilityFile, AvailabilityPing:
	default:
		return fmt.Errorf("unknown availability_mode %q", c.AvailabilityMode)
	}
	if c.AvailabilityMode == AvailabilityFile && c.AvailabilityFile == "" {
		return fmt.Errorf("availability_file is required when availability_mode is %q", AvailabilityFile)
	}
	if c.SuiteConcurrency < 1 {
		return fmt.Errorf("suite_concurrency must be at least 1, got %d", c.SuiteConcurrency)
	}
	for _, s := range c.Suites {
		if s.Name == "" {
			return fmt.Errorf("suite definitions require a name")
		}
		if len(s.TestTypes) == 0 {
			return fmt.Errorf("suite %s declares no test types", s.Name)
		}
		for _, component := range s.Components {
			if !slices.Contains(c.Components, component) {
				return fmt.Errorf("suite %s references unknown component %q", s.Name, component)
			}
		}
	}
	return nil
}
