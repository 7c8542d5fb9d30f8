package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration. It is built once at startup
// and passed to the components that need it; nothing mutates it afterwards.
type Config struct {
	ProjectName string `yaml:"project_name"`
	Version     string `yaml:"version"`
	Debug       bool   `yaml:"debug"`
	APIPrefix   string `yaml:"api_prefix"`
	Server      struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Security struct {
		SecretKey                string `yaml:"secret_key"`
		Algorithm                string `yaml:"algorithm"`
		AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes"`
	} `yaml:"security"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{
		ProjectName: "Blog API",
		Version:     "1.0.0",
		APIPrefix:   "/api/v1",
	}
	cfg.Server.Port = "8000"
	cfg.Security.Algorithm = "HS256"
	cfg.Security.AccessTokenExpireMinutes = 30
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8000"}
	return cfg
}

// LoadConfig reads configuration from the specified YAML file (if it exists),
// applies environment overrides and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	return load(configPath, os.LookupEnv)
}

func load(configPath string, lookup func(string) (string, bool)) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			expanded := os.Expand(string(data), func(key string) string {
				v, _ := lookup(key)
				return v
			})
			if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
				return nil, fmt.Errorf("failed to decode config file: %w", err)
			}
		}
	}

	if err := applyEnv(config, lookup); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PROJECT_NAME"); ok && v != "" {
		cfg.ProjectName = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Server.Port = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.Database.URL = v
	}
	if v, ok := lookup("SECRET_KEY"); ok && v != "" {
		cfg.Security.SecretKey = v
	}
	if v, ok := lookup("ALGORITHM"); ok && v != "" {
		cfg.Security.Algorithm = v
	}
	if v, ok := lookup("ACCESS_TOKEN_EXPIRE_MINUTES"); ok && v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES %q: %w", v, err)
		}
		cfg.Security.AccessTokenExpireMinutes = minutes
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		cfg.CORS.AllowedOrigins = ParseOrigins(v)
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	return nil
}

// ParseOrigins splits a comma-separated origin list, trimming blanks.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Validate reports the first setting that would keep the service from starting.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required (DATABASE_URL)")
	}
	if c.Security.SecretKey == "" {
		return errors.New("secret key is required (SECRET_KEY)")
	}
	if !supportedAlgorithms[c.Security.Algorithm] {
		return fmt.Errorf("unsupported token algorithm %q", c.Security.Algorithm)
	}
	if c.Security.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("access token lifetime must be positive, got %d minutes", c.Security.AccessTokenExpireMinutes)
	}
	return nil
}
