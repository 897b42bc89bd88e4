package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI       AIConfig       `yaml:"ai"`
	Email    EmailConfig    `yaml:"email"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	LogLevel string         `yaml:"log_level"`
}

type AIConfig struct {
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type EmailConfig struct {
	SMTPServer     string `yaml:"smtp_server"`
	SMTPPort       int    `yaml:"smtp_port"`
	Username       string `yaml:"username" env:"EMAIL_USERNAME"`
	Password       string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail      string `yaml:"from_email"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StoreConfig struct {
	DataDir string `yaml:"data_dir"`
}

type ServerConfig struct {
	Port              int    `yaml:"port"`
	TickToken         string `yaml:"tick_token" env:"TICK_TOKEN"`
	UnsubscribeSecret string `yaml:"unsubscribe_secret" env:"UNSUBSCRIBE_SECRET"`
	BaseURL           string `yaml:"base_url"`
}

type DispatchConfig struct {
	// TickSchedule is a cron expression; the default fires every 5 minutes.
	TickSchedule string `yaml:"tick_schedule"`
	Workers      int    `yaml:"workers"`
	QueueBuffer  int    `yaml:"queue_buffer"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if cfg.Server.TickToken == "" {
		cfg.Server.TickToken = os.Getenv("TICK_TOKEN")
	}
	if cfg.Server.UnsubscribeSecret == "" {
		cfg.Server.UnsubscribeSecret = os.Getenv("UNSUBSCRIBE_SECRET")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.Email.TimeoutSeconds == 0 {
		c.Email.TimeoutSeconds = 30
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Dispatch.TickSchedule == "" {
		c.Dispatch.TickSchedule = "*/5 * * * *"
	}
	if c.Dispatch.Workers == 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.QueueBuffer == 0 {
		c.Dispatch.QueueBuffer = 64
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Email.Username == "" {
		return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
	}
	if c.Email.SMTPServer == "" {
		return fmt.Errorf("SMTP server is required (email.smtp_server)")
	}
	if c.Email.FromEmail == "" {
		return fmt.Errorf("From address is required (email.from_email)")
	}
	if c.Server.TickToken == "" {
		return fmt.Errorf("Tick token is required (set TICK_TOKEN or server.tick_token)")
	}
	if c.Server.UnsubscribeSecret == "" {
		return fmt.Errorf("Unsubscribe secret is required (set UNSUBSCRIBE_SECRET or server.unsubscribe_secret)")
	}
	return nil
}
