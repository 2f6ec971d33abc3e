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

// Config holds the openpecha-search API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Milvus    MilvusConfig    `yaml:"milvus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MilvusConfig holds the search backend connection and schema settings.
type MilvusConfig struct {
	URI              string  `yaml:"uri"`
	Token            string  `yaml:"token"`
	Collection       string  `yaml:"collection"`
	SparseField      string  `yaml:"sparse_field"`
	DenseField       string  `yaml:"dense_field"`
	TextField        string  `yaml:"text_field"`
	RRFK             int     `yaml:"rrf_k"`
	DenseDropRatio   float64 `yaml:"dense_drop_ratio"`
	RequestTimeout   int     `yaml:"request_timeout_sec"`
	ReadinessTimeout int     `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	Provider   string      `yaml:"provider"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig holds the optional Redis embedding cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	TTLHours int      `yaml:"ttl_hours"`
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "test_kangyur_tengyur"
	}
	if c.Milvus.SparseField == "" {
		// The collection schema carries this historical misspelling.
		c.Milvus.SparseField = "sparce_vector"
	}
	if c.Milvus.DenseField == "" {
		c.Milvus.DenseField = "dense_vector"
	}
	if c.Milvus.TextField == "" {
		c.Milvus.TextField = "text"
	}
	if c.Milvus.RRFK <= 0 {
		c.Milvus.RRFK = 60
	}
	if c.Milvus.DenseDropRatio <= 0 {
		c.Milvus.DenseDropRatio = 0.2
	}
	if c.Milvus.RequestTimeout <= 0 {
		c.Milvus.RequestTimeout = 30
	}
	if c.Milvus.ReadinessTimeout <= 0 {
		c.Milvus.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "gemini-embedding-001"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "gemini"
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Milvus.URI == "" {
		return fmt.Errorf("milvus.uri is required")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Embedding.Cache.Enabled && len(c.Embedding.Cache.Addrs) == 0 {
		return fmt.Errorf("embedding.cache.addrs is required when the cache is enabled")
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
