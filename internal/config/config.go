package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Auth versions understood by the authenticator.
const (
	AuthOIDC   = "10.x"
	AuthLegacy = "pre-10"
)

var requiredFields = []string{"zvm_url", "auth", "verify_tls", "output_dir"}

type Config struct {
	ZVMURL          string           `yaml:"zvm_url"`
	Auth            AuthConfig       `yaml:"auth"`
	VerifyTLS       bool             `yaml:"verify_tls"`
	OutputDir       string           `yaml:"output_dir"`
	TimeoutSeconds  int              `yaml:"timeout_seconds"`
	LogDir          string           `yaml:"log_dir"`
	AlertThresholds ThresholdsConfig `yaml:"alert_thresholds"`
	History         HistoryConfig    `yaml:"history"`
	CloudWatch      CloudWatchConfig `yaml:"cloudwatch"`
	Server          ServerConfig     `yaml:"server"`
	Cache           CacheConfig      `yaml:"cache"`

	raw map[string]interface{}
}

type AuthConfig struct {
	Version      string `yaml:"version"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// ThresholdsConfig holds utilization thresholds as fractions (0.80 = 80%).
type ThresholdsConfig struct {
	UtilizationWarn float64 `yaml:"utilization_warn"`
	UtilizationCrit float64 `yaml:"utilization_crit"`
}

type HistoryConfig struct {
	Path       string `yaml:"path"`
	Windows    []int  `yaml:"windows"`
	MaxSamples int    `yaml:"max_samples"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// Default configuration
func Default() *Config {
	return &Config{
		TimeoutSeconds: 60,
		LogDir:         "./logs",
		AlertThresholds: ThresholdsConfig{
			UtilizationWarn: 0.80,
			UtilizationCrit: 0.95,
		},
		History: HistoryConfig{
			Windows:    []int{7, 30, 90},
			MaxSamples: 400,
		},
		CloudWatch: CloudWatchConfig{
			Namespace: "Zerto/Licensing",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Cache: CacheConfig{
			TTLMinutes: 5,
		},
	}
}

// Load reads, expands and validates the configuration file at filename.
func Load(filename string) (*Config, error) {
	info, err := os.Stat(filename)
	if err != nil || info.IsDir() {
		if err == nil {
			err = errors.New("is a directory")
		}
		return nil, &Error{Kind: KindMissingFile, Path: filename, Err: err}
	}

	// Values already exported win over the .env file.
	envFile := filepath.Join(filepath.Dir(filename), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &Error{Kind: KindParse, Path: envFile, Err: err}
		}
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &Error{Kind: KindMissingFile, Path: filename, Err: err}
	}
	return Parse(filename, ExpandEnv(data))
}

// Parse decodes already-expanded YAML content. path is only used in errors.
func Parse(path string, data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: KindParse, Path: path, Err: err}
	}
	if len(raw) == 0 {
		return nil, &Error{Kind: KindMissingField, Path: path, Err: errors.New("configuration is empty")}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Kind: KindParse, Path: path, Err: err}
	}
	cfg.raw = raw

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate(path string) error {
	for _, field := range requiredFields {
		if _, ok := c.raw[field]; !ok {
			return &Error{Kind: KindMissingField, Path: path, Field: field}
		}
	}
	switch c.Auth.Version {
	case AuthOIDC, AuthLegacy:
	default:
		return &Error{
			Kind:  KindInvalidValue,
			Path:  path,
			Field: "auth.version",
			Err:   fmt.Errorf("%q is not one of %q, %q", c.Auth.Version, AuthOIDC, AuthLegacy),
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.ZVMURL = strings.TrimRight(c.ZVMURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.OutputDir, "history.json")
	}
	if len(c.History.Windows) == 0 {
		c.History.Windows = []int{7, 30, 90}
	}
	if c.History.MaxSamples <= 0 {
		c.History.MaxSamples = 400
	}
}

// Get returns the raw value at a dot-separated path such as "auth.version",
// or def when any segment is missing.
func (c *Config) Get(key string, def interface{}) interface{} {
	var value interface{} = c.raw
	for _, k := range strings.Split(key, ".") {
		m, ok := value.(map[string]interface{})
		if !ok {
			return def
		}
		value, ok = m[k]
		if !ok || value == nil {
			return def
		}
	}
	return value
}

// GetTimeout returns the HTTP timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetCacheTTL returns the cache TTL as a duration
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// GetPort returns the server port, checking environment variable first
func (c *Config) GetPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	if c.Server.Port == "" {
		return "8080"
	}
	return c.Server.Port
}
