package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// R2Config describes the optional Cloudflare R2 bucket used for team crests.
type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
	BucketName      string `yaml:"bucket_name"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

// Enabled reports whether every field needed to reach the bucket is set.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.BucketName != "" && c.PublicBaseURL != ""
}

// Config holds every setting of the service. Secrets only come from the
// environment; the rest may also come from a YAML file named by CONFIG_FILE.
type Config struct {
	DatabaseURL  string `yaml:"-"`
	JWTSecretKey string `yaml:"-"`

	ServerPort         int           `yaml:"server_port"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	// RepairInterval is the period of the accepted-challenge repair sweep. Zero disables it.
	RepairInterval time.Duration `yaml:"repair_interval"`
	LogLevel       string        `yaml:"log_level"`

	R2 R2Config `yaml:"r2"`
}

func defaults() Config {
	return Config{
		ServerPort:         8080,
		CORSAllowedOrigins: []string{"*"},
		TokenTTL:           24 * time.Hour,
		RepairInterval:     10 * time.Minute,
		LogLevel:           "info",
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then environment variables. Environment values win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	c.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	c.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")

	if v, ok := os.LookupEnv("SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		c.ServerPort = port
	}
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	}
	for name, dst := range map[string]*time.Duration{
		"TOKEN_TTL":       &c.TokenTTL,
		"REPAIR_INTERVAL": &c.RepairInterval,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s environment variable: %w", name, err)
			}
			*dst = d
		}
	}
	for name, dst := range map[string]*string{
		"LOG_LEVEL":          &c.LogLevel,
		"R2_ACCOUNT_ID":      &c.R2.AccountID,
		"R2_BUCKET_NAME":     &c.R2.BucketName,
		"R2_PUBLIC_BASE_URL": &c.R2.PublicBaseURL,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	if c.RepairInterval < 0 {
		return fmt.Errorf("repair interval must not be negative, got %s", c.RepairInterval)
	}
	return nil
}
