package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/garyjia/evidence-check/internal/domain/audit"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Logger LoggerConfig `mapstructure:"logger"`
	Audit  AuditConfig  `mapstructure:"audit"`
	Vision VisionConfig `mapstructure:"vision"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Lark   LarkConfig   `mapstructure:"lark"`
	Export ExportConfig `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB    int64         `mapstructure:"max_upload_mb"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// AuditConfig holds the comparison threshold and score weights
type AuditConfig struct {
	TimeThresholdSeconds float64 `mapstructure:"time_threshold_seconds"`
	TimeWeight           int     `mapstructure:"time_weight"`
	SeverityWeight       int     `mapstructure:"severity_weight"`
}

// VisionConfig holds the keyframe vision service configuration
type VisionConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// OCRConfig holds report document reading configuration
type OCRConfig struct {
	MaxPDFPages        int  `mapstructure:"max_pdf_pages"`
	HandwritingEnabled bool `mapstructure:"handwriting_enabled"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	PromptsPath string `mapstructure:"prompts_path"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	ChatID    string `mapstructure:"chat_id"`
	BaseURL   string `mapstructure:"base_url"`
}

// ExportConfig holds result archiving configuration
type ExportConfig struct {
	Dir string `mapstructure:"dir"` // one workbook per analysis when set
}

// Load loads configuration from file and environment variables. An empty
// configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EVIDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 300*time.Second)
	v.SetDefault("server.max_upload_mb", 500)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Audit defaults
	v.SetDefault("audit.time_threshold_seconds", audit.DefaultTimeThresholdSeconds)
	v.SetDefault("audit.time_weight", audit.DefaultTimeWeight)
	v.SetDefault("audit.severity_weight", audit.DefaultSeverityWeight)

	// Vision defaults
	v.SetDefault("vision.endpoint", "http://localhost:8001/analyze-video")
	v.SetDefault("vision.timeout", 5*time.Minute)
	v.SetDefault("vision.max_attempts", 2)

	// OCR defaults
	v.SetDefault("ocr.max_pdf_pages", 5)
	v.SetDefault("ocr.handwriting_enabled", false)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o")

	// Lark defaults
	v.SetDefault("lark.enabled", false)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"lark.app_id":     "LARK_APP_ID",
		"lark.app_secret": "LARK_APP_SECRET",
		"lark.chat_id":    "LARK_CHAT_ID",
		"vision.endpoint": "VISION_ENDPOINT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "EVIDENCE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// EngineConfig returns the audit engine settings
func (c *Config) EngineConfig() audit.Config {
	return audit.Config{
		TimeThresholdSeconds: c.Audit.TimeThresholdSeconds,
		TimeWeight:           c.Audit.TimeWeight,
		SeverityWeight:       c.Audit.SeverityWeight,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive"))
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be json or console"))
	}

	if err := c.EngineConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audit: %w", err))
	}

	if c.Vision.Endpoint != "" {
		u, err := url.Parse(c.Vision.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("vision.endpoint must be an absolute URL"))
		}
	}
	if c.Vision.Timeout < 0 {
		errs = append(errs, fmt.Errorf("vision.timeout must not be negative"))
	}

	// Handwriting transcription needs OpenAI credentials
	if c.OCR.HandwritingEnabled && c.OpenAI.APIKey == "" {
		errs = append(errs, fmt.Errorf("openai.api_key is required when ocr.handwriting_enabled is set"))
	}

	// Validate Lark credentials
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			errs = append(errs, fmt.Errorf("lark.app_id is required"))
		}
		if c.Lark.AppSecret == "" {
			errs = append(errs, fmt.Errorf("lark.app_secret is required"))
		}
		if c.Lark.ChatID == "" {
			errs = append(errs, fmt.Errorf("lark.chat_id is required"))
		}
	}

	return errors.Join(errs...)
}
