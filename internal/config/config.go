package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Vision   VisionConfig   `yaml:"vision"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	// EmbeddingDim is the dimensionality D of every stored vector. Search
	// queries with any other length are rejected.
	EmbeddingDim int `yaml:"embedding_dim"`
	// EmbedModelPath points at the style embedding ONNX model file.
	EmbedModelPath string `yaml:"embed_model_path"`
	// DetectorURL / SegmenterURL address the external model server.
	DetectorURL  string        `yaml:"detector_url"`
	SegmenterURL string        `yaml:"segmenter_url"`
	ModelTimeout time.Duration `yaml:"model_timeout"` // per external call
	TopN         int           `yaml:"top_n"`         // results per segment search
	WorkerCount  int           `yaml:"worker_count"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Vision.EmbeddingDim == 0 {
		cfg.Vision.EmbeddingDim = 2048
	}
	if cfg.Vision.ModelTimeout == 0 {
		cfg.Vision.ModelTimeout = 30 * time.Second
	}
	if cfg.Vision.TopN == 0 {
		cfg.Vision.TopN = 10
	}
	if cfg.Vision.WorkerCount == 0 {
		cfg.Vision.WorkerCount = 4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SR_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("SR_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SR_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SR_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SR_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SR_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SR_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("SR_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("SR_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("SR_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("SR_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("SR_DETECTOR_URL"); v != "" {
		cfg.Vision.DetectorURL = v
	}
	if v := os.Getenv("SR_SEGMENTER_URL"); v != "" {
		cfg.Vision.SegmenterURL = v
	}
	if v := os.Getenv("SR_EMBED_MODEL_PATH"); v != "" {
		cfg.Vision.EmbedModelPath = v
	}
	if v := os.Getenv("SR_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vision.WorkerCount = n
		}
	}
}
