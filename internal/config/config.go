package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	AI      AI      `mapstructure:"ai"`
	Brief   Brief   `mapstructure:"brief"`
	CMS     CMS     `mapstructure:"cms"`
	Tracker Tracker `mapstructure:"tracker"`
	Batch   Batch   `mapstructure:"batch"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// AI holds generation backend configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration (text generation)
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// OpenAIConfig holds OpenAI configuration (image generation)
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// Brief holds brief-source API configuration
type Brief struct {
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
	APIKey    string `mapstructure:"api_key"`
	Timeout   string `mapstructure:"timeout"`
}

// CMS holds publish target (WordPress) configuration
type CMS struct {
	BaseURL         string `mapstructure:"base_url"`
	Username        string `mapstructure:"username"`
	AppPassword     string `mapstructure:"app_password"`
	DefaultCategory string `mapstructure:"default_category"`
	Timeout         string `mapstructure:"timeout"`
}

// Tracker holds task tracker configuration
type Tracker struct {
	Primary   PrimaryTracker   `mapstructure:"primary"`
	Secondary SecondaryTracker `mapstructure:"secondary"`
}

// PrimaryTracker holds the main tracker (URL custom field + completion status)
type PrimaryTracker struct {
	BaseURL       string `mapstructure:"base_url"`
	APIToken      string `mapstructure:"api_token"`
	URLFieldID    string `mapstructure:"url_field_id"`
	DoneStatus    string `mapstructure:"done_status"`
	Timeout       string `mapstructure:"timeout"`
}

// SecondaryTracker holds the optional secondary tracker (assignment updates)
type SecondaryTracker struct {
	BaseURL    string `mapstructure:"base_url"`
	APIToken   string `mapstructure:"api_token"`
	AssigneeID string `mapstructure:"assignee_id"`
	Timeout    string `mapstructure:"timeout"`
}

// Batch holds batch-run pacing configuration
type Batch struct {
	StepDelay    string `mapstructure:"step_delay"`    // Delay between pipeline steps
	ArticleDelay string `mapstructure:"article_delay"` // Delay between articles of one account
	AccountDelay string `mapstructure:"account_delay"` // Delay between accounts
}

var globalConfig *Config

// Load loads the configuration from .env, config file, and environment.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".escriba")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.SetEnvPrefix("ESCRIBA")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.temperature", 0.7)
	viper.SetDefault("ai.openai.model", "gpt-image-1")
	viper.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.openai.timeout", "90s")

	viper.SetDefault("brief.timeout", "30s")

	viper.SetDefault("cms.default_category", "Blog")
	viper.SetDefault("cms.timeout", "60s")

	viper.SetDefault("tracker.primary.done_status", "complete")
	viper.SetDefault("tracker.primary.timeout", "15s")
	viper.SetDefault("tracker.secondary.timeout", "15s")

	viper.SetDefault("batch.step_delay", "800ms")
	viper.SetDefault("batch.article_delay", "2s")
	viper.SetDefault("batch.account_delay", "3s")
}

func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY"})
	bindEnvKeys("ai.openai.api_key", []string{"OPENAI_API_KEY"})
	bindEnvKeys("brief.base_url", []string{"BRIEF_API_URL"})
	bindEnvKeys("brief.auth_token", []string{"BRIEF_AUTH_TOKEN"})
	bindEnvKeys("brief.api_key", []string{"BRIEF_API_KEY"})
	bindEnvKeys("cms.base_url", []string{"WORDPRESS_URL"})
	bindEnvKeys("cms.username", []string{"WORDPRESS_USERNAME"})
	bindEnvKeys("cms.app_password", []string{"WORDPRESS_APP_PASSWORD"})
	bindEnvKeys("tracker.primary.api_token", []string{"TRACKER_API_TOKEN"})
	bindEnvKeys("tracker.secondary.api_token", []string{"SECONDARY_TRACKER_API_TOKEN"})
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if err := viper.BindEnv(viperKey, envKey); err != nil {
			fmt.Printf("Warning: failed to bind %s: %v\n", envKey, err)
		}
	}
}

// ValidateGeneration fails fast when the generation backends are unusable.
// Called before any network activity (single-article and batch commands).
func (c *Config) ValidateGeneration() error {
	var missing []string
	if c.AI.Gemini.APIKey == "" {
		missing = append(missing, "ai.gemini.api_key (GEMINI_API_KEY)")
	}
	if c.AI.OpenAI.APIKey == "" {
		missing = append(missing, "ai.openai.api_key (OPENAI_API_KEY)")
	}
	if c.Brief.BaseURL == "" {
		missing = append(missing, "brief.base_url (BRIEF_API_URL)")
	}
	if c.Brief.AuthToken == "" {
		missing = append(missing, "brief.auth_token (BRIEF_AUTH_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidatePublish fails fast when the CMS target is unusable.
func (c *Config) ValidatePublish() error {
	var missing []string
	if c.CMS.BaseURL == "" {
		missing = append(missing, "cms.base_url (WORDPRESS_URL)")
	}
	if c.CMS.Username == "" {
		missing = append(missing, "cms.username (WORDPRESS_USERNAME)")
	}
	if c.CMS.AppPassword == "" {
		missing = append(missing, "cms.app_password (WORDPRESS_APP_PASSWORD)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Convenience accessors
func GetGeminiAPIKey() string { return Get().AI.Gemini.APIKey }
func GetGeminiModel() string  { return Get().AI.Gemini.Model }
func GetOpenAIAPIKey() string { return Get().AI.OpenAI.APIKey }
func IsDebugMode() bool       { return Get().App.Debug }
