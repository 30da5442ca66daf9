// ABOUTME: Configuration loading and parsing for inkwell
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// TLS credential filenames inside the configured TLS directory.
const (
	CertFileName = "server.pem"
	KeyFileName  = "server.key"
)

// Defaults applied by Load when the file leaves fields unset.
const (
	DefaultPort      = 8443
	DefaultTLSDir    = "tls"
	DefaultAssetsDir = "client"
	DefaultDBPath    = "inkwell.db"
)

// Config represents the complete inkwell configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	TLS      TLSConfig      `yaml:"tls"`
	Devices  DevicesConfig  `yaml:"devices"`
	Assets   AssetsConfig   `yaml:"assets"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the listen address configuration.
type ServerConfig struct {
	Host string `yaml:"host"` // externally reachable hostname for the startup URL
	Port int    `yaml:"port"`
}

// TLSConfig locates the certificate and key on disk.
type TLSConfig struct {
	// Dir contains server.pem and server.key.
	Dir string `yaml:"dir"`
}

// DevicesConfig locates the authorized-device file.
type DevicesConfig struct {
	Path string `yaml:"path"`
}

// AssetsConfig locates the static HTML/JS client.
type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig holds note store configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config with defaults applied. Environment variables in the format
// ${VAR_NAME} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a Config with all defaults applied and no device file,
// for callers that configure entirely via flags.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.TLS.Dir == "" {
		c.TLS.Dir = DefaultTLSDir
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = DefaultAssetsDir
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
}

// CertFile returns the path to the TLS certificate.
func (c *Config) CertFile() string {
	return filepath.Join(c.TLS.Dir, CertFileName)
}

// KeyFile returns the path to the TLS private key.
func (c *Config) KeyFile() string {
	return filepath.Join(c.TLS.Dir, KeyFileName)
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Devices.Path == "" {
		return fmt.Errorf("devices.path is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
