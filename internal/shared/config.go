package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Player   PlayerConfig   `toml:"player"`
	Search   SearchConfig   `toml:"search"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// PlayerConfig locates the player's REST API.
type PlayerConfig struct {
	BaseURL             string `toml:"base_url"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
}

// SearchConfig locates the search proxy.
type SearchConfig struct {
	ProxyURL string `toml:"proxy_url"`
	Limit    int    `toml:"limit"`
}

// MonitorConfig controls connection polling and auto-shutdown.
type MonitorConfig struct {
	AutoShutdown         bool `toml:"auto_shutdown"`
	ShutdownAfterSeconds int  `toml:"shutdown_after_seconds"`
	PollIntervalSeconds  int  `toml:"poll_interval_seconds"`
	GraceSeconds         int  `toml:"grace_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                  string   `toml:"host"`
	Port                  int      `toml:"port"`
	PublicURL             string   `toml:"public_url"`
	InstructionsPath      string   `toml:"instructions_path"`
	CORSOrigins           []string `toml:"cors_origins"`
	EnqueueRate           float64  `toml:"enqueue_rate"`
	EnqueueBurst          int      `toml:"enqueue_burst"`
	StatusIntervalSeconds int      `toml:"status_interval_seconds"`
	TrustProxy            bool     `toml:"trust_proxy"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the data request timeout.
func (p PlayerConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the reachability probe timeout.
func (p PlayerConfig) ProbeTimeout() time.Duration {
	return time.Duration(p.ProbeTimeoutSeconds) * time.Second
}

// ShutdownAfter returns the auto-shutdown deadline.
func (m MonitorConfig) ShutdownAfter() time.Duration {
	return time.Duration(m.ShutdownAfterSeconds) * time.Second
}

// PollInterval returns the reachability polling interval.
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// Grace returns the delay between the deadline firing and the shutdown request.
func (m MonitorConfig) Grace() time.Duration {
	return time.Duration(m.GraceSeconds) * time.Second
}

// LoadConfig reads a TOML configuration file and overlays it onto [DefaultConfig].
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides configuration values from environment variables.
//
// Recognized: YTMD_API, SEARCH_PROXY, HOST, PORT, LOG_LEVEL, NGROK_HOST, SONGREQ_DB.
// getenv defaults to [os.Getenv].
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := strings.TrimSpace(getenv("YTMD_API")); v != "" {
		c.Player.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("SEARCH_PROXY")); v != "" {
		c.Search.ProxyURL = v
	}
	if v := strings.TrimSpace(getenv("HOST")); v != "" {
		c.Server.Host = v
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q is not a number", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv("SONGREQ_DB")); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(getenv("NGROK_HOST")); v != "" {
		c.Server.CORSOrigins = append(c.Server.CORSOrigins, "https://"+v)
		c.Server.TrustProxy = true
	}

	return nil
}

// Validate checks that the configuration can drive the service.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Player.BaseURL); err != nil {
		return fmt.Errorf("%w: player.base_url %q: %v", ErrInvalidConfig, c.Player.BaseURL, err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Player.TimeoutSeconds <= 0 || c.Player.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: player timeouts must be positive", ErrInvalidConfig)
	}
	if c.Monitor.PollIntervalSeconds <= 0 {
		return fmt.Errorf("%w: monitor.poll_interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.Monitor.AutoShutdown && c.Monitor.ShutdownAfterSeconds <= 0 {
		return fmt.Errorf("%w: monitor.shutdown_after_seconds must be positive", ErrInvalidConfig)
	}
	if c.Server.EnqueueRate < 0 || c.Server.EnqueueBurst < 0 {
		return fmt.Errorf("%w: enqueue rate limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise,
// then applies environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(nil); err != nil {
		return nil, err
	}
	return config, nil
}
