package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tokenforge/launchpad-middleware/pkg/registry"
)

// Config represents the launchpad API server configuration
type Config struct {
	Server         ServerConfig             `mapstructure:"server"`
	Database       DatabaseConfig           `mapstructure:"database"`
	Networks       map[string]NetworkConfig `mapstructure:"networks"`
	Wallet         WalletConfig             `mapstructure:"wallet"`
	Artifacts      ArtifactsConfig          `mapstructure:"artifacts"`
	JWKS           JWKSConfig               `mapstructure:"jwks"`
	Monitoring     MonitoringConfig         `mapstructure:"monitoring"`
	Logging        LoggingConfig            `mapstructure:"logging"`
	Reconciliation ReconciliationConfig     `mapstructure:"reconciliation"`
	Shutdown       ShutdownConfig           `mapstructure:"shutdown"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// NetworkConfig contains per-network Ethereum client settings. The key
// in the networks map must name a network from the fixed registry.
type NetworkConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	GasLimit        uint64        `mapstructure:"gas_limit"`
	MaxGasPrice     string        `mapstructure:"max_gas_price"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"`
	PollingInterval time.Duration `mapstructure:"polling_interval"`
}

// WalletConfig contains the deployer wallet settings
type WalletConfig struct {
	DeployerPrivateKey string `mapstructure:"deployer_private_key"`
}

// ArtifactsConfig maps token types to compiled creation bytecode files
type ArtifactsConfig struct {
	Standard  string `mapstructure:"standard"`
	Marketing string `mapstructure:"marketing"`
	Business  string `mapstructure:"business"`
}

// JWKSConfig contains JWKS configuration for JWT validation. Auth is
// disabled when the URL is empty.
type JWKSConfig struct {
	URL    string `mapstructure:"url"`
	Issuer string `mapstructure:"issuer"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ReconciliationConfig contains settings for the diverged-record repair job
type ReconciliationConfig struct {
	InitialTimeout time.Duration `mapstructure:"initial_timeout"`
	Interval       time.Duration `mapstructure:"interval"`
}

// ShutdownConfig contains graceful shutdown settings
type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "launchpad")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_port", 9090)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")

	// Reconciliation defaults
	viper.SetDefault("reconciliation.initial_timeout", "2m")
	viper.SetDefault("reconciliation.interval", "5m")

	// Shutdown defaults
	viper.SetDefault("shutdown.timeout", "30s")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if len(config.Networks) == 0 {
		return fmt.Errorf("at least one network must be configured")
	}
	for id, n := range config.Networks {
		if !registry.IsSupported(id) {
			return fmt.Errorf("networks.%s is not a supported network", id)
		}
		if n.RPCURL == "" {
			return fmt.Errorf("networks.%s.rpc_url is required", id)
		}
	}
	if config.Wallet.DeployerPrivateKey == "" {
		return fmt.Errorf("wallet.deployer_private_key is required")
	}
	return nil
}

// Network returns the client settings for a configured network.
func (c *Config) Network(id string) (NetworkConfig, bool) {
	n, ok := c.Networks[id]
	return n, ok
}
