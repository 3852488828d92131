package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "STUDY_CONFIG"

	defaultMaxFileSize = 20 * 1024 * 1024 // 20MB
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Upload    UploadConfig    `yaml:"upload"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Store     StoreConfig     `yaml:"store"`
	Blob      BlobConfig      `yaml:"blob"`
	Retention RetentionConfig `yaml:"retention"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"outputPaths"`
	// Rotation limits for file outputs.
	MaxSizeMB  int `yaml:"maxSizeMB"`
	MaxBackups int `yaml:"maxBackups"`
	MaxAgeDays int `yaml:"maxAgeDays"`
}

type UploadConfig struct {
	MaxFileSize  int64    `yaml:"maxFileSize"`
	AllowedTypes []string `yaml:"allowedTypes"`
}

type StoreConfig struct {
	// Backend is one of memory, redis, sqlite.
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type BlobConfig struct {
	// Backend is one of none, memory, s3, minio.
	Backend string      `yaml:"backend"`
	S3      S3Config    `yaml:"s3"`
	Minio   MinioConfig `yaml:"minio"`
}

type RetentionConfig struct {
	// Period of zero disables the sweep.
	Period time.Duration `yaml:"period"`
}

type WorkerConfig struct {
	Concurrency int    `yaml:"concurrency"`
	CleanupCron string `yaml:"cleanupCron"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			AllowOrigins:    []string{"*"},
		},
		Log: LogConfig{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout", "logs/app.log"},
			MaxSizeMB:   100,
			MaxBackups:  3,
			MaxAgeDays:  7,
		},
		Upload: UploadConfig{
			MaxFileSize:  defaultMaxFileSize,
			AllowedTypes: []string{"application/pdf", "image/jpeg", "image/jpg", "image/png"},
		},
		Analyzer: defaultAnalyzerConfig(),
		Store: StoreConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "study:",
			},
			SQLite: SQLiteConfig{Path: "data/documents.db"},
		},
		Blob: BlobConfig{Backend: "none"},
		Worker: WorkerConfig{
			Concurrency: 2,
			CleanupCron: "@hourly",
		},
	}
}

// Load reads .env, an optional YAML file and then environment overrides.
// An empty path falls back to $STUDY_CONFIG; when both are empty only the
// defaults and the environment apply. Analyzer settings are checked
// separately by AnalyzerConfig.Validate since only the server needs them.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory, then from the project root.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	_, filename, _, _ := runtime.Caller(0)
	rootDir := filepath.Dir(filepath.Dir(filename))
	envPath := filepath.Join(rootDir, ".env")

	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "HTTP_ADDR")
	setList(&c.Server.AllowOrigins, "CORS_ALLOW_ORIGINS")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Encoding, "LOG_ENCODING")
	setList(&c.Log.OutputPaths, "LOG_OUTPUT_PATHS")

	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.Redis.Addr, "REDIS_ADDR")
	setString(&c.Store.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Store.Redis.KeyPrefix, "REDIS_KEY_PREFIX")
	setString(&c.Store.SQLite.Path, "SQLITE_PATH")
	setString(&c.Blob.Backend, "BLOB_BACKEND")
	setString(&c.Worker.CleanupCron, "CLEANUP_CRON")

	c.Analyzer.applyEnv()
	c.Blob.S3.applyEnv()
	c.Blob.Minio.applyEnv()

	var errs []error
	errs = append(errs,
		setInt(&c.Store.Redis.DB, "REDIS_DB"),
		setInt(&c.Worker.Concurrency, "WORKER_CONCURRENCY"),
		setInt64(&c.Upload.MaxFileSize, "MAX_FILE_SIZE"),
		setDuration(&c.Retention.Period, "RETENTION_PERIOD"),
		setDuration(&c.Analyzer.Timeout, "ANALYZER_TIMEOUT"),
		setInt(&c.Analyzer.MaxImagePixels, "ANALYZER_MAX_IMAGE_PIXELS"),
	)
	return errors.Join(errs...)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("upload.maxFileSize must be positive"))
	}
	if len(c.Upload.AllowedTypes) == 0 {
		errs = append(errs, fmt.Errorf("upload.allowedTypes must not be empty"))
	}

	switch c.Store.Backend {
	case "memory", "sqlite":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store backend: %q", c.Store.Backend))
	}

	switch c.Blob.Backend {
	case "none", "", "memory":
	case "s3":
		if c.Blob.S3.BucketName == "" {
			errs = append(errs, fmt.Errorf("blob.s3.bucketName is required"))
		}
	case "minio":
		if c.Blob.Minio.Endpoint == "" || c.Blob.Minio.BucketName == "" {
			errs = append(errs, fmt.Errorf("blob.minio.endpoint and bucketName are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported blob backend: %q", c.Blob.Backend))
	}

	if c.Retention.Period < 0 {
		errs = append(errs, fmt.Errorf("retention.period must not be negative"))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
