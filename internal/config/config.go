// Package config loads per-environment YAML settings with ${VAR} expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Index drivers.
const (
	DriverLocal  = "local"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
)

// Defaults.
const (
	DefaultTopK           = 5
	DefaultFetchK         = 50
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-large"
	DefaultIndexPath      = "data/bncc_index.parquet"
	DefaultIndexName      = "bncc"
	DefaultCacheTTLSec    = 12 * 60 * 60
	DefaultUpstreamSec    = 60
)

// topKEnv overrides index.top_k.
const topKEnv = "RAG_TOP_K"

// Config holds the bnccrag service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	CORS      CORSConfig      `yaml:"cors"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// UpstreamTimeoutSec bounds each embedding or chat call.
	UpstreamTimeoutSec int `yaml:"upstream_timeout_sec"`
}

// IndexConfig selects and tunes the vector index backend.
type IndexConfig struct {
	Driver    string `yaml:"driver"` // local, valkey, redis (default: local)
	Path      string `yaml:"path"`
	Name      string `yaml:"name"`
	TopK      int    `yaml:"top_k"`
	FetchK    int    `yaml:"fetch_k"`
}

// Remote reports whether the index lives in the database.
func (c IndexConfig) Remote() bool {
	return c.Driver == DriverValkey || c.Driver == DriverRedis
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool { return len(c.Addrs) > 0 }

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
}

// ChatConfig holds completion settings.
type ChatConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig holds the generation cache. A negative TTL disables it.
type CacheConfig struct {
	GenerationTTLSec int `yaml:"generation_ttl_sec"`
}

// Load reads .env (if present) and then configuration from a YAML file by environment name.
func Load(env string) (Config, error) {
	LoadDotEnv()
	return LoadFile(findConfigPath(env))
}

// LoadFile reads and validates one YAML file.
func LoadFile(configPath string) (Config, error) {
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
	cfg.applyEnvOverrides()
	cfg.Index.raiseFetchK()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads ./.env without overriding variables already set.
func LoadDotEnv() {
	if fileExists(".env") {
		_ = godotenv.Load(".env")
	}
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	return cfg
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
		// must outlive a slow completion
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.UpstreamTimeoutSec <= 0 {
		c.HTTP.UpstreamTimeoutSec = DefaultUpstreamSec
	}
	if c.Index.Driver == "" {
		c.Index.Driver = DriverLocal
	}
	if c.Index.Path == "" {
		c.Index.Path = DefaultIndexPath
	}
	if c.Index.Name == "" {
		c.Index.Name = DefaultIndexName
	}
	if c.Index.TopK <= 0 {
		c.Index.TopK = DefaultTopK
	}
	if c.Index.FetchK <= 0 {
		c.Index.FetchK = DefaultFetchK
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbeddingModel
	}
	if c.Chat.Model == "" {
		c.Chat.Model = DefaultChatModel
	}
	if c.Chat.APIKey == "" {
		c.Chat.APIKey = c.Embedding.APIKey
	}
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = c.Embedding.BaseURL
	}
	if c.Chat.TimeoutSec <= 0 {
		c.Chat.TimeoutSec = c.HTTP.UpstreamTimeoutSec
	}
	if c.Cache.GenerationTTLSec == 0 {
		c.Cache.GenerationTTLSec = DefaultCacheTTLSec
	}
}

// applyEnvOverrides honours RAG_TOP_K; an unparsable or non-positive value selects DefaultTopK.
func (c *Config) applyEnvOverrides() {
	raw, ok := os.LookupEnv(topKEnv)
	if !ok {
		return
	}
	k, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || k <= 0 {
		k = DefaultTopK
	}
	c.Index.TopK = k
}

// raiseFetchK keeps the candidate pool at least as large as the requested top_k.
func (c *IndexConfig) raiseFetchK() {
	if c.FetchK < c.TopK {
		c.FetchK = c.TopK
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Index.Driver {
	case DriverLocal:
	case DriverValkey, DriverRedis:
		if !c.Database.Enabled() {
			return fmt.Errorf("database.addrs is required for index driver %q", c.Index.Driver)
		}
	default:
		return fmt.Errorf("index.driver must be local, valkey or redis, got %q", c.Index.Driver)
	}
	if c.Embedding.Cache && !c.Database.Enabled() {
		return fmt.Errorf("embedding.cache requires database.addrs")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
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
