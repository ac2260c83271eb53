package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DatabaseConfig holds the database connection information.
type DatabaseConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// GeminiConfig holds the text-generation service settings.
type GeminiConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// ImageConfig holds the image-generation service settings.
type ImageConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// GateConfig holds the admission settings for one gated action.
// AllowAnonymous is a pointer so an explicit false in the file can be told
// apart from an absent key, which takes the per-action default.
type GateConfig struct {
	Limit          int    `yaml:"limit"`
	Window         string `yaml:"window"`
	Cooldown       string `yaml:"cooldown"`
	AllowAnonymous *bool  `yaml:"allow_anonymous"`
}

// Anonymous reports whether the gate admits requests without an identity.
func (g GateConfig) Anonymous() bool {
	return g.AllowAnonymous != nil && *g.AllowAnonymous
}

// QuotaConfig selects the limiting policy and configures each gated action.
type QuotaConfig struct {
	Policy          string     `yaml:"policy"`
	Enforcement     GateConfig `yaml:"enforcement"`
	ImageGeneration GateConfig `yaml:"image_generation"`
}

// AdminConfig holds configuration for the admin endpoints.
type AdminConfig struct {
	Password string `yaml:"password"`
}

// SchedulerConfig holds configuration for the background scheduler.
type SchedulerConfig struct {
	UsageRetention string `yaml:"usage_retention"`
}

// Config holds the configuration for the service.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Image     ImageConfig     `yaml:"image"`
	Quota     QuotaConfig     `yaml:"quota"`
	Admin     AdminConfig     `yaml:"admin"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Port      int             `yaml:"port"`
	Debug     bool            `yaml:"debug"`
}

// PolicyRolling and PolicyCounter are the two supported quota policies.
const (
	PolicyRolling = "rolling"
	PolicyCounter = "counter"
)

// LoadConfig reads and parses the configuration file. It returns the config
// and a potential warning message describing defaults that were applied.
func LoadConfig(path string) (*Config, string, error) {
	var config Config
	var warnings []string

	data, err := os.ReadFile(path)
	if err == nil {
		// File exists, so unmarshal it
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		// An error other than "not found" occurred
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}
	// If file does not exist, we continue with an empty config and rely on environment variables.

	// Set default values
	if config.Port == 0 {
		config.Port = 8080
		warnings = append(warnings, "port not set, using default value of 8080")
	}
	if config.Gemini.Model == "" {
		config.Gemini.Model = "gemini-2.5-flash"
	}
	if config.Gemini.Temperature == 0 {
		config.Gemini.Temperature = 0.8
	}
	if config.Gemini.MaxOutputTokens == 0 {
		config.Gemini.MaxOutputTokens = 2000
	}
	if config.Image.BaseURL == "" {
		config.Image.BaseURL = "https://api.stability.ai/v2beta/stable-image/generate/core"
	}
	if config.Quota.Policy == "" {
		config.Quota.Policy = PolicyRolling
		warnings = append(warnings, "quota.policy not set, using rolling-window policy")
	}
	// Anonymous enforcement searches are admitted by default; image
	// generation always needs a wallet to charge.
	applyGateDefaults(&config.Quota.Enforcement, true)
	applyGateDefaults(&config.Quota.ImageGeneration, false)
	if config.Scheduler.UsageRetention == "" {
		config.Scheduler.UsageRetention = "72h"
	}

	// Override with environment variables if they exist
	if dsn := os.Getenv("INTELLECT_DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if dbType := os.Getenv("INTELLECT_DATABASE_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if port := os.Getenv("INTELLECT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if key := os.Getenv("INTELLECT_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("INTELLECT_IMAGE_API_KEY"); key != "" {
		config.Image.APIKey = key
	}
	if password := os.Getenv("INTELLECT_ADMIN_PASSWORD"); password != "" {
		config.Admin.Password = password
	}
	if debug := os.Getenv("INTELLECT_DEBUG"); debug != "" {
		config.Debug = (debug == "true")
	}

	// Final validation after overrides
	if config.Database.Type == "" || config.Database.DSN == "" {
		return nil, "", fmt.Errorf("database type and dsn must be configured in config.yaml or via environment variables")
	}
	if config.Gemini.APIKey == "" {
		return nil, "", fmt.Errorf("gemini api key must be configured in config.yaml or via INTELLECT_GEMINI_API_KEY")
	}
	if config.Quota.Policy != PolicyRolling && config.Quota.Policy != PolicyCounter {
		return nil, "", fmt.Errorf("unsupported quota policy: %s", config.Quota.Policy)
	}
	retention, err := time.ParseDuration(config.Scheduler.UsageRetention)
	if err != nil {
		return nil, "", fmt.Errorf("invalid scheduler.usage_retention: %w", err)
	}
	for name, gate := range map[string]GateConfig{
		"quota.enforcement":      config.Quota.Enforcement,
		"quota.image_generation": config.Quota.ImageGeneration,
	} {
		window, err := time.ParseDuration(gate.Window)
		if err != nil {
			return nil, "", fmt.Errorf("invalid %s.window: %w", name, err)
		}
		if _, err := time.ParseDuration(gate.Cooldown); err != nil {
			return nil, "", fmt.Errorf("invalid %s.cooldown: %w", name, err)
		}
		// Purging a ledger row that is still inside a gate's window would
		// silently free a credit early.
		if retention < window {
			return nil, "", fmt.Errorf("scheduler.usage_retention (%s) must not be shorter than %s.window (%s)",
				config.Scheduler.UsageRetention, name, gate.Window)
		}
	}
	if config.Image.APIKey == "" {
		warnings = append(warnings, "image.api_key not set, image generation requests will fail")
	}

	return &config, strings.Join(warnings, "; "), nil
}

func applyGateDefaults(gate *GateConfig, allowAnonymous bool) {
	if gate.Limit == 0 {
		gate.Limit = 2
	}
	if gate.Window == "" {
		gate.Window = "24h"
	}
	if gate.Cooldown == "" {
		gate.Cooldown = "24h"
	}
	if gate.AllowAnonymous == nil {
		gate.AllowAnonymous = &allowAnonymous
	}
}
