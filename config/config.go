package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the search service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	GCP       GCPConfig       `mapstructure:"gcp"`
	Vertex    VertexConfig    `mapstructure:"vertex"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen       string   `mapstructure:"listen"`
	Debug        bool     `mapstructure:"debug"`
	LogLevel     string   `mapstructure:"log_level"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// GCPConfig contains Google Cloud project identity settings.
// ServiceAccountKey is the minified JSON key material, not a file path.
type GCPConfig struct {
	ProjectID         string `mapstructure:"project_id"`
	ServiceAccountKey string `mapstructure:"service_account_key"`
}

func (g GCPConfig) Validate() error {
	if strings.TrimSpace(g.ProjectID) == "" {
		return fmt.Errorf("gcp.project_id is required")
	}
	if strings.TrimSpace(g.ServiceAccountKey) == "" {
		return fmt.Errorf("gcp.service_account_key is required")
	}
	return nil
}

// VertexConfig contains document-search backend settings
type VertexConfig struct {
	EngineID string        `mapstructure:"engine_id"`
	Location string        `mapstructure:"location"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (v VertexConfig) Validate() error {
	if strings.TrimSpace(v.EngineID) == "" {
		return fmt.Errorf("vertex.engine_id is required")
	}
	return nil
}

// GeminiConfig contains generative backend settings. APIKey may be empty
// when only direct mode is used; streaming mode checks it at call time.
type GeminiConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	AllowedModels []string      `mapstructure:"allowed_models"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ResolveModel returns requested if it is in the allowed list, otherwise
// the configured default model.
func (g GeminiConfig) ResolveModel(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return g.Model
	}
	for _, m := range g.AllowedModels {
		if m == requested {
			return requested
		}
	}
	return g.Model
}

// FeedbackConfig contains feedback archival settings
type FeedbackConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

func (f FeedbackConfig) Validate() error {
	if strings.TrimSpace(f.Bucket) == "" {
		return fmt.Errorf("feedback.bucket is required")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.listen", ":8000")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.allow_origins", []string{"*"})
	viper.SetDefault("vertex.location", "global")
	viper.SetDefault("vertex.timeout", 30*time.Second)
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.allowed_models", []string{"gemini-2.0-flash", "gemini-2.5-flash"})
	viper.SetDefault("gemini.timeout", 30*time.Second)
	viper.SetDefault("feedback.bucket", "9expert-feedback-storage")
	viper.SetDefault("feedback.prefix", "chat-feedback")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("RAGSVC")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.GCP.Validate(); err != nil {
		panic(err)
	}
	if err := config.Vertex.Validate(); err != nil {
		panic(err)
	}
	if err := config.Feedback.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	return &config
}
