package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port       string
		Mode       string
		RateLimit  int
		SessionTTL time.Duration
	}
	Gemini struct {
		APIKey      string
		BaseURL     string
		AnswerModel string
		ImageModel  string
		Timeout     time.Duration
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Cache struct {
		TTL time.Duration
	}
	Placeholders struct {
		BaseURL string
	}
	Health struct {
		Interval time.Duration
	}
}

// Load reads config.yaml from the given paths (the working directory when none
// are given) and overlays environment variables on top of the defaults.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.answer_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "gemini-2.5-flash-image")
	v.SetDefault("gemini.timeout", 60*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("placeholders.base_url", "https://picsum.photos/400/300")
	v.SetDefault("health.interval", time.Minute)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	config.Server.Port = v.GetString("server.port")
	config.Server.Mode = v.GetString("server.mode")
	config.Server.RateLimit = v.GetInt("server.rate_limit")
	config.Server.SessionTTL = v.GetDuration("server.session_ttl")
	config.Gemini.APIKey = v.GetString("gemini.api_key")
	if config.Gemini.APIKey == "" {
		config.Gemini.APIKey = os.Getenv("API_KEY")
	}
	config.Gemini.BaseURL = v.GetString("gemini.base_url")
	config.Gemini.AnswerModel = v.GetString("gemini.answer_model")
	config.Gemini.ImageModel = v.GetString("gemini.image_model")
	config.Gemini.Timeout = v.GetDuration("gemini.timeout")
	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")
	config.Cache.TTL = v.GetDuration("cache.ttl")
	config.Placeholders.BaseURL = v.GetString("placeholders.base_url")
	config.Health.Interval = v.GetDuration("health.interval")

	return &config, nil
}

// ValidateGemini reports a missing credential. Callers log it and keep going.
func (c *Config) ValidateGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY (or API_KEY) is missing from environment variables")
	}
	if c.Gemini.AnswerModel == "" || c.Gemini.ImageModel == "" {
		return fmt.Errorf("gemini answer and image models must be set")
	}
	return nil
}
