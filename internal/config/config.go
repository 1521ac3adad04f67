// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app" yaml:"app"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Timeouts  TimeoutConfig   `mapstructure:"timeouts" yaml:"timeouts"`
	Retry     RetryConfig     `mapstructure:"retry" yaml:"retry"`
	Correlate CorrelateConfig `mapstructure:"correlate" yaml:"correlate"`
	Batch     BatchConfig     `mapstructure:"batch" yaml:"batch"`
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Selectors Selectors       `mapstructure:"selectors" yaml:"selectors"`
}

// AppConfig identifies the intranet deployment the bot drives.
type AppConfig struct {
	// LoginURL is the full URL of the intranet login form.
	LoginURL string `mapstructure:"login_url" yaml:"login_url"`
}

// AuthConfig carries the intranet credentials. In practice these arrive via
// DPBOT_AUTH_USERNAME / DPBOT_AUTH_PASSWORD rather than the config file.
type AuthConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// BrowserConfig controls the Chrome session.
type BrowserConfig struct {
	Headless    bool   `mapstructure:"headless" yaml:"headless"`
	ProxyServer string `mapstructure:"proxy_server" yaml:"proxy_server"`
	UserAgent   string `mapstructure:"user_agent" yaml:"user_agent"`
	// ChromeArgs holds extra flags as "name" or "name=value" strings.
	ChromeArgs []string `mapstructure:"chrome_args" yaml:"chrome_args"`
}

// TimeoutConfig mirrors the three wait horizons the screen's widgets need.
type TimeoutConfig struct {
	Default time.Duration `mapstructure:"default" yaml:"default"`
	Short   time.Duration `mapstructure:"short" yaml:"short"`
	Long    time.Duration `mapstructure:"long" yaml:"long"`
}

// RetryConfig bounds the recovery loops.
type RetryConfig struct {
	// MaxAttempts is the per-record attempt budget in the batch loop.
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
	// DropdownAttempts bounds the type-ahead dropdown selection rounds.
	DropdownAttempts int `mapstructure:"dropdown_attempts" yaml:"dropdown_attempts"`
}

// CorrelateConfig configures the in-page response hook.
type CorrelateConfig struct {
	// URLFragment is the substring identifying the ticket-creation endpoint.
	URLFragment     string        `mapstructure:"url_fragment" yaml:"url_fragment"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout" yaml:"response_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// BatchConfig paces the main loop.
type BatchConfig struct {
	// ItemPause is the minimum spacing between attempted work items.
	ItemPause time.Duration `mapstructure:"item_pause" yaml:"item_pause"`
}

// DataConfig names the two input files.
type DataConfig struct {
	MasterFile   string `mapstructure:"master_file" yaml:"master_file"`
	WorklistFile string `mapstructure:"worklist_file" yaml:"worklist_file"`
}

// LoggerConfig holds settings for the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	// LogFile enables a rotating JSON file core when non-empty.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// defaultUserAgent matches the pinned desktop profile the intranet is known
// to accept.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- App / Auth --
	v.SetDefault("app.login_url", "")
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.proxy_server", "")
	v.SetDefault("browser.user_agent", defaultUserAgent)
	v.SetDefault("browser.chrome_args", []string{})

	// -- Timeouts --
	v.SetDefault("timeouts.default", "15s")
	v.SetDefault("timeouts.short", "5s")
	v.SetDefault("timeouts.long", "30s")

	// -- Retry --
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "2s")
	v.SetDefault("retry.dropdown_attempts", 3)

	// -- Correlation --
	v.SetDefault("correlate.url_fragment", "/project-management/configuring/dp/create-ticket")
	v.SetDefault("correlate.response_timeout", "120s")
	v.SetDefault("correlate.poll_interval", "500ms")

	// -- Batch --
	v.SetDefault("batch.item_pause", "1s")

	// -- Data files --
	v.SetDefault("data.master_file", "master_data_dp.csv")
	v.SetDefault("data.worklist_file", "input_dp.txt")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dpbot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	setSelectorDefaults(v)
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("auth.username", "DPBOT_AUTH_USERNAME")
	v.BindEnv("auth.password", "DPBOT_AUTH_PASSWORD")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Timeouts.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Correlate.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	return c.Selectors.Validate()
}

func (a AppConfig) Validate() error {
	if a.LoginURL == "" {
		return fmt.Errorf("app.login_url is required")
	}
	u, err := url.Parse(a.LoginURL)
	if err != nil {
		return fmt.Errorf("app.login_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("app.login_url must be http or https, got %q", u.Scheme)
	}
	return nil
}

func (a AuthConfig) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return fmt.Errorf("auth.username is required (DPBOT_AUTH_USERNAME)")
	}
	if a.Password == "" {
		return fmt.Errorf("auth.password is required (DPBOT_AUTH_PASSWORD)")
	}
	return nil
}

func (t TimeoutConfig) Validate() error {
	if t.Default <= 0 || t.Short <= 0 || t.Long <= 0 {
		return fmt.Errorf("timeouts must all be positive (default=%s short=%s long=%s)", t.Default, t.Short, t.Long)
	}
	return nil
}

func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", r.MaxAttempts)
	}
	if r.DropdownAttempts < 1 {
		return fmt.Errorf("retry.dropdown_attempts must be at least 1, got %d", r.DropdownAttempts)
	}
	if r.Delay < 0 {
		return fmt.Errorf("retry.delay must not be negative, got %s", r.Delay)
	}
	return nil
}

func (c CorrelateConfig) Validate() error {
	if c.URLFragment == "" {
		return fmt.Errorf("correlate.url_fragment is required")
	}
	if c.ResponseTimeout <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("correlate timeouts must be positive (response_timeout=%s poll_interval=%s)",
			c.ResponseTimeout, c.PollInterval)
	}
	return nil
}

func (d DataConfig) Validate() error {
	if d.MasterFile == "" {
		return fmt.Errorf("data.master_file is required")
	}
	if d.WorklistFile == "" {
		return fmt.Errorf("data.worklist_file is required")
	}
	return nil
}
