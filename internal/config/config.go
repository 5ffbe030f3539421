// Package config provides client configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/platform-client/pkg/jsontransport"
	"github.com/morezero/platform-client/pkg/semver"
)

const logPrefix = "config:LoadConfig"

// Config holds platform-client configuration.
type Config struct {
	// Platform API
	Environment  string `envconfig:"PLATFORM_ENVIRONMENT" default:"sandbox"`
	BaseURL      string `envconfig:"PLATFORM_BASE_URL"`
	APIKey       string `envconfig:"API_KEY"`
	SessionToken string `envconfig:"SESSION_TOKEN"`

	// EnvironmentsFile holds the environment to base URL table; BaseURL overrides
	// the entry for Environment.
	EnvironmentsFile string `envconfig:"PLATFORM_ENVIRONMENTS_FILE"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"180s"`

	// Client identification headers
	APIVersion    string `envconfig:"API_VERSION" default:"1.0"`
	SDKVersion    string `envconfig:"SDK_VERSION" default:"1.0.0"`
	SDKMinVersion string `envconfig:"SDK_MIN_VERSION"`
	Device        string `envconfig:"DEVICE_PLATFORM"`
	DeviceVersion string `envconfig:"DEVICE_OS_VERSION"`

	AllowSelfSignedCertificate bool `envconfig:"ALLOW_SELF_SIGNED_CERTIFICATE" default:"false"`
	DebugLogEnable             bool `envconfig:"DEBUG_LOG_ENABLE" default:"false"`

	// Reachability (empty host = derive from base URL)
	ReachabilityHost     string        `envconfig:"REACHABILITY_HOST"`
	ReachabilityInterval time.Duration `envconfig:"REACHABILITY_INTERVAL" default:"5s"`
	ReachabilityTimeout  time.Duration `envconfig:"REACHABILITY_TIMEOUT" default:"3s"`

	// COMMS: empty COMMSURL disables the NATS event bridge.
	COMMSURL           string `envconfig:"COMMS_URL"`
	COMMSName          string `envconfig:"SERVICE_NAME" default:"platform-client"`
	EventSubjectPrefix string `envconfig:"EVENT_SUBJECT_PREFIX" default:"platform.events"`

	// Database: empty DatabaseURL disables persistent diagnostics.
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// HTTP health endpoint
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// PlatformEnvironment parses Environment.
func (c *Config) PlatformEnvironment() (jsontransport.Environment, error) {
	return jsontransport.ParseEnvironment(c.Environment)
}

// BaseURLs loads the environments file table and applies BaseURL to the configured
// environment.
func (c *Config) BaseURLs() (jsontransport.StaticBaseURLs, error) {
	env, err := c.PlatformEnvironment()
	if err != nil {
		return nil, err
	}
	table, err := jsontransport.LoadBaseURLs(c.EnvironmentsFile)
	if err != nil {
		return nil, fmt.Errorf("%s - PLATFORM_ENVIRONMENTS_FILE: %w", logPrefix, err)
	}
	return table.Merge(jsontransport.StaticBaseURLs{env: c.BaseURL}), nil
}

// Validate checks the configuration needed to issue API requests.
func (c *Config) Validate() error {
	env, err := c.PlatformEnvironment()
	if err != nil {
		return fmt.Errorf("%s - PLATFORM_ENVIRONMENT: %w", logPrefix, err)
	}
	if env != jsontransport.EnvironmentLocal && strings.TrimSpace(c.BaseURL) == "" && c.EnvironmentsFile == "" {
		return fmt.Errorf("%s - PLATFORM_BASE_URL or PLATFORM_ENVIRONMENTS_FILE is required for environment %s", logPrefix, env)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if _, err := semver.ParseSDKVersion(c.SDKVersion); err != nil {
		return fmt.Errorf("%s - SDK_VERSION: %w", logPrefix, err)
	}
	if c.SDKMinVersion != "" {
		if err := semver.CheckMinimum(c.SDKVersion, c.SDKMinVersion); err != nil {
			return fmt.Errorf("%s - SDK_VERSION: %w", logPrefix, err)
		}
	}
	if c.ReachabilityInterval <= 0 {
		return fmt.Errorf("%s - REACHABILITY_INTERVAL must be positive", logPrefix)
	}
	if c.ReachabilityTimeout <= 0 {
		return fmt.Errorf("%s - REACHABILITY_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForServe checks Validate plus the health endpoint settings.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%s - HTTP_PORT %d out of range", logPrefix, c.HTTPPort)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, diagnostics).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
