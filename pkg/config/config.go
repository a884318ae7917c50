package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Dedup struct {
		Window time.Duration `yaml:"window"`
	} `yaml:"dedup"`
	Intake struct {
		MaxPerTickerPerMin float64 `yaml:"max_per_ticker_per_min"`
	} `yaml:"intake"`
	Queue struct {
		Backend    string        `yaml:"backend"` // memory or redis
		Workers    int           `yaml:"workers"`
		Size       int           `yaml:"size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"queue"`
	Capture struct {
		ServiceURL  string        `yaml:"service_url"`
		FallbackURL string        `yaml:"fallback_chart_url"`
		Timeout     time.Duration `yaml:"timeout"`
		AuditDir    string        `yaml:"audit_dir"`
	} `yaml:"capture"`
	Analysis struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		VisionModel    string        `yaml:"vision_model"`
		ReasoningModel string        `yaml:"reasoning_model"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"analysis"`
	Notify struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxTextLen int           `yaml:"max_text_len"`
	} `yaml:"notify"`
	Ledger struct {
		Path string `yaml:"path"`
	} `yaml:"ledger"`
	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`
	Events struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`
	PriceFeed struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"pricefeed"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and addresses
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ANALYSIS_API_KEY"); v != "" {
		c.Analysis.APIKey = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := os.Getenv("CAPTURE_SERVICE_URL"); v != "" {
		c.Capture.ServiceURL = v
	}
	if v := os.Getenv("EVENT_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Queue.Redis.Addr = v
	}
	if v := os.Getenv("PRICEFEED_API_KEY"); v != "" {
		c.PriceFeed.APIKey = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Dedup.Window == 0 {
		c.Dedup.Window = 120 * time.Second
	}
	if c.Queue.Backend == "" {
		c.Queue.Backend = "memory"
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.Size == 0 {
		c.Queue.Size = 64
	}
	if c.Queue.RetryDelay == 0 {
		c.Queue.RetryDelay = 10 * time.Second
	}
	if c.Capture.Timeout == 0 {
		c.Capture.Timeout = 90 * time.Second
	}
	if c.Analysis.Timeout == 0 {
		c.Analysis.Timeout = 120 * time.Second
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 15 * time.Second
	}
	if c.Notify.MaxTextLen == 0 {
		c.Notify.MaxTextLen = 600
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "data/last_prediction.json"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/journal.db"
	}
	if c.PriceFeed.ReconnectDelay == 0 {
		c.PriceFeed.ReconnectDelay = 5 * time.Second
	}
	if c.PriceFeed.PingInterval == 0 {
		c.PriceFeed.PingInterval = 20 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Capture.ServiceURL == "" {
		return fmt.Errorf("capture.service_url is required")
	}
	if c.Capture.FallbackURL == "" {
		return fmt.Errorf("capture.fallback_chart_url is required")
	}
	if c.Analysis.APIKey == "" {
		return fmt.Errorf("analysis.api_key is required")
	}
	if c.Queue.Backend != "memory" && c.Queue.Backend != "redis" {
		return fmt.Errorf("queue.backend must be 'memory' or 'redis', got '%s'", c.Queue.Backend)
	}
	if c.Queue.Backend == "redis" && c.Queue.Redis.Addr == "" {
		return fmt.Errorf("queue.redis.addr is required for redis backend")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events are enabled")
	}
	if c.PriceFeed.Enabled && c.PriceFeed.WebSocketURL == "" {
		return fmt.Errorf("pricefeed.websocket_url is required when pricefeed is enabled")
	}
	return nil
}
