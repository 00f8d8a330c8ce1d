package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-result-service/internal/scoring"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // "debug" or "release"
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMb"`
		MaxBackups int    `yaml:"maxBackups"`
		MaxAgeDays int    `yaml:"maxAgeDays"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Classification struct {
		Strict bool          `yaml:"strict"`
		Bands  scoring.Bands `yaml:"bands"`
	} `yaml:"classification"`
	Recommend struct {
		Limit int `yaml:"limit"`
	} `yaml:"recommend"`
	Report struct {
		Compress     bool    `yaml:"compress"`
		Author       string  `yaml:"author"`
		RatePerMin   float64 `yaml:"ratePerMinute"`
		StoreReports bool    `yaml:"store"`
	} `yaml:"report"`
	Storage struct {
		Type           string `yaml:"type"` // "local" or "minio"
		LocalPath      string `yaml:"localPath"`
		PublicBaseURL  string `yaml:"publicBaseUrl"`
		MinioEndpoint  string `yaml:"minioEndpoint"`
		MinioAccessKey string `yaml:"minioAccessKey"`
		MinioSecretKey string `yaml:"minioSecretKey"`
		MinioBucket    string `yaml:"minioBucket"`
		MinioSecure    bool   `yaml:"minioSecure"`
	} `yaml:"storage"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Remote struct {
		BaseURL       string  `yaml:"baseUrl"`
		Timeout       string  `yaml:"timeout"`
		RatePerSecond float64 `yaml:"ratePerSecond"`
		Authoritative bool    `yaml:"authoritative"`
	} `yaml:"remote"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if len(c.Classification.Bands) > 0 {
		if err := c.Classification.Bands.Validate(); err != nil {
			return fmt.Errorf("classification bands: %w", err)
		}
	}
	switch c.Storage.Type {
	case "", "local":
	case "minio":
		if c.Storage.MinioEndpoint == "" || c.Storage.MinioBucket == "" {
			return fmt.Errorf("storage: minio requires minioEndpoint and minioBucket")
		}
	default:
		return fmt.Errorf("storage: unknown type %q", c.Storage.Type)
	}
	if c.Remote.Authoritative && c.Remote.BaseURL == "" {
		return fmt.Errorf("remote: authoritative submission requires baseUrl")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
