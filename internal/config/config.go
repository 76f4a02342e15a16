package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr    = ":8080"
	defaultMetaDSN       = "memory://"
	defaultLogLevel      = "info"
	defaultHashAlgorithm = "sha1"
	defaultChunkSize     = 64 << 10
	defaultMaxFileSize   = 2 << 40 // 2 TB, как у исходного парсера
	defaultMaxFieldSize  = 1 << 20
	defaultStagingTTL    = 24 * time.Hour
	defaultSweepInterval = 30 * time.Minute
	defaultBodyIdle      = 2 * time.Minute
	defaultIdleTimeout   = 2 * time.Minute
)

type Config struct {
	ListenAddr      string            `yaml:"listen_addr" json:"listen_addr"`
	MetaDSN         string            `yaml:"meta_dsn" json:"-"`
	StagingDir      string            `yaml:"staging_dir" json:"staging_dir"`
	SessionToken    string            `yaml:"session_token" json:"-"`
	LogLevel        string            `yaml:"log_level" json:"log_level"`
	HashAlgorithm   string            `yaml:"hash_algorithm" json:"hash_algorithm"`
	TapChunkSize    int               `yaml:"tap_chunk_size" json:"tap_chunk_size"`
	MaxFileSize     int64             `yaml:"max_file_size" json:"max_file_size"`
	MaxFieldSize    int64             `yaml:"max_field_size" json:"max_field_size"`
	StagingTTL      time.Duration     `yaml:"staging_ttl" json:"staging_ttl"`
	SweepInterval   time.Duration     `yaml:"sweep_interval" json:"sweep_interval"`
	BodyIdleTimeout time.Duration     `yaml:"body_idle_timeout" json:"body_idle_timeout"`
	IdleTimeout     time.Duration     `yaml:"idle_timeout" json:"idle_timeout"`
	Extensions      map[string]string `yaml:"extensions" json:"extensions,omitempty"`
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствующий файл не ошибка: сервис поднимется на значениях по умолчанию.
func Load() (*Config, error) {
	return LoadFile(getenv("CONFIG_PATH", "./config.yaml"))
}

// LoadFile делает то же, что Load, но с явным путём до файла.
func LoadFile(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("STAGING_DIR"); v != "" {
		c.StagingDir = v
	}
	if v := os.Getenv("SESSION_TOKEN"); v != "" {
		c.SessionToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HASH_ALGORITHM"); v != "" {
		c.HashAlgorithm = v
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_FILE_SIZE: %w", err)
		}
		c.MaxFileSize = n
	}

	c.fill()
	return c, nil
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	c := &Config{}
	c.fill()
	return c
}

// fill подставляет дефолты в незаданные поля.
func (c *Config) fill() {
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = defaultListenAddr
	}
	if strings.TrimSpace(c.MetaDSN) == "" {
		c.MetaDSN = defaultMetaDSN
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		c.StagingDir = filepath.Join(os.TempDir(), "ingest-staging")
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = defaultHashAlgorithm
	}
	if c.TapChunkSize <= 0 {
		c.TapChunkSize = defaultChunkSize
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = defaultMaxFileSize
	}
	if c.MaxFieldSize <= 0 {
		c.MaxFieldSize = defaultMaxFieldSize
	}
	if c.StagingTTL <= 0 {
		c.StagingTTL = defaultStagingTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.BodyIdleTimeout <= 0 {
		c.BodyIdleTimeout = defaultBodyIdle
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
