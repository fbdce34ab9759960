package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the attire API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Model     ModelConfig     `yaml:"model"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Recommend RecommendConfig `yaml:"recommend"`
	Weather   WeatherConfig   `yaml:"weather"`
	Cache     CacheConfig     `yaml:"cache"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// ModelConfig holds model weights settings.
type ModelConfig struct {
	WeightsPath string `yaml:"weights_path"`
}

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	Path         string `yaml:"path"`
	ImageBaseURL string `yaml:"image_base_url"`
}

// RecommendConfig holds retrieval and score fusion settings.
type RecommendConfig struct {
	EmbeddingWeight float64 `yaml:"embedding_weight"`
	UsageWeight     float64 `yaml:"usage_weight"`
	SeasonWeight    float64 `yaml:"season_weight"`
	RetrieveFactor  int     `yaml:"retrieve_factor"`
	RetrieveMin     int     `yaml:"retrieve_min"`
	ArticleType     string  `yaml:"article_type_strategy"` // derived (default) | unknown
}

// WeatherConfig holds forecast provider settings.
type WeatherConfig struct {
	BaseURL      string `yaml:"base_url"`
	ForecastDays int    `yaml:"forecast_days"`
	Timezone     string `yaml:"timezone"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	CacheTTLSec  int    `yaml:"cache_ttl_sec"`
}

// CacheConfig holds the optional forecast cache store settings.
// An empty addrs list disables caching.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// FeedbackConfig holds feedback log settings.
type FeedbackConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RateLimitPerMin <= 0 {
		c.HTTP.RateLimitPerMin = 120
	}
	if c.Recommend.EmbeddingWeight == 0 && c.Recommend.UsageWeight == 0 && c.Recommend.SeasonWeight == 0 {
		c.Recommend.EmbeddingWeight = 0.25
		c.Recommend.UsageWeight = 0.55
		c.Recommend.SeasonWeight = 0.20
	}
	if c.Recommend.RetrieveFactor <= 0 {
		c.Recommend.RetrieveFactor = 10
	}
	if c.Recommend.RetrieveMin <= 0 {
		c.Recommend.RetrieveMin = 50
	}
	if c.Recommend.ArticleType == "" {
		c.Recommend.ArticleType = "derived"
	}
	if c.Catalog.ImageBaseURL == "" {
		c.Catalog.ImageBaseURL = "/static/images"
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Weather.ForecastDays <= 0 {
		c.Weather.ForecastDays = 14
	}
	if c.Weather.Timezone == "" {
		c.Weather.Timezone = "Asia/Singapore"
	}
	if c.Weather.TimeoutSec <= 0 {
		c.Weather.TimeoutSec = 10
	}
	if c.Weather.CacheTTLSec <= 0 {
		c.Weather.CacheTTLSec = 1800
	}
	if c.Feedback.Path == "" {
		c.Feedback.Path = "feedback.csv"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Model.WeightsPath == "" {
		return fmt.Errorf("model.weights_path is required")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	sum := c.Recommend.EmbeddingWeight + c.Recommend.UsageWeight + c.Recommend.SeasonWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("recommend fusion weights must sum to 1, got %.4f", sum)
	}
	switch c.Recommend.ArticleType {
	case "derived", "unknown":
		// ok
	default:
		return fmt.Errorf(
			"recommend.article_type_strategy must be \"derived\" or \"unknown\", got %q",
			c.Recommend.ArticleType,
		)
	}
	if c.Weather.ForecastDays > 16 {
		return fmt.Errorf("weather.forecast_days must be at most 16, got %d", c.Weather.ForecastDays)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
