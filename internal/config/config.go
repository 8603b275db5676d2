package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LeaveStore LeaveStoreConfig `mapstructure:"leave_store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// LeaveStoreConfig selects the backend holding leave records and balances.
// DSN is used by the mysql, sqlite and mongodb drivers; postgres uses Database.
type LeaveStoreConfig struct {
	Driver             string  `mapstructure:"driver"`
	DSN                string  `mapstructure:"dsn"`
	MongoDatabase      string  `mapstructure:"mongo_database"`
	DefaultAnnualDays  float64 `mapstructure:"default_annual_days"`
	Timezone           string  `mapstructure:"timezone"`
	MigrationsPath     string  `mapstructure:"migrations_path"`
	AutoMigrateOnStart bool    `mapstructure:"auto_migrate"`
}

// Location resolves the configured timezone, falling back to the local zone
func (c LeaveStoreConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig controls stored conversation state. A non-empty
// EncryptionKey seals stored payloads with AES-GCM.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	LockWait      time.Duration `mapstructure:"lock_wait"`
	EncryptionKey string        `mapstructure:"encryption_key"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LLMConfig struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	Ollama          OllamaConfig    `mapstructure:"ollama"`
	DeepSeek        DeepSeekConfig  `mapstructure:"deepseek"`
	Gemini          GeminiConfig    `mapstructure:"gemini"`
	Qianwen         QianwenConfig   `mapstructure:"qianwen"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type QianwenConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// VectorConfig points at the Chroma server and the embedding endpoint
type VectorConfig struct {
	ChromaURL         string `mapstructure:"chroma_url"`
	Collection        string `mapstructure:"collection"`
	TopK              int    `mapstructure:"top_k"`
	ContextDocs       int    `mapstructure:"context_docs"`
	EmbeddingBaseURL  string `mapstructure:"embedding_base_url"`
	EmbeddingAPIKey   string `mapstructure:"embedding_api_key"`
	EmbeddingModel    string `mapstructure:"embedding_model"`
	EmbeddingBatch    int    `mapstructure:"embedding_batch"`
}

type IngestConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables a rotating log file in addition to stderr
	File         string        `mapstructure:"file"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8002)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.middleware_timeout", "170s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kbassistant")
	v.SetDefault("database.database", "enterprise_kb")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	// Leave store
	v.SetDefault("leave_store.driver", "postgres")
	v.SetDefault("leave_store.mongo_database", "enterprise_kb")
	v.SetDefault("leave_store.default_annual_days", 5.0)
	v.SetDefault("leave_store.timezone", "Asia/Shanghai")
	v.SetDefault("leave_store.migrations_path", "")
	v.SetDefault("leave_store.auto_migrate", false)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Session
	v.SetDefault("session.ttl", "168h") // 7 days
	v.SetDefault("session.lock_ttl", "120s")
	v.SetDefault("session.lock_wait", "5s")

	// Auth
	v.SetDefault("auth.access_token_ttl", "12h")

	// LLM
	v.SetDefault("llm.default_provider", "qianwen")
	v.SetDefault("llm.qianwen.model", "qwen-max")
	v.SetDefault("llm.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.ollama.default_model", "qwen2.5:7b")

	// Vector search
	v.SetDefault("vector.chroma_url", "http://localhost:8000")
	v.SetDefault("vector.collection", "knowledge_base")
	v.SetDefault("vector.top_k", 8)
	v.SetDefault("vector.context_docs", 6)
	v.SetDefault("vector.embedding_base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("vector.embedding_model", "text-embedding-v2")
	v.SetDefault("vector.embedding_batch", 16)

	// Ingestion
	v.SetDefault("ingest.data_dir", "./data/docs")
	v.SetDefault("ingest.chunk_size", 200)
	v.SetDefault("ingest.chunk_overlap", 60)
	v.SetDefault("ingest.max_upload_bytes", 20<<20)

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 60)
	v.SetDefault("security.rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.rotation_time", "24h")
	v.SetDefault("logging.max_age", "168h")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Leave store
	v.BindEnv("leave_store.driver", "LEAVE_STORE_DRIVER")
	v.BindEnv("leave_store.dsn", "LEAVE_STORE_DSN")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("session.encryption_key", "SESSION_ENCRYPTION_KEY")

	// LLM API Keys
	v.BindEnv("llm.default_provider", "LLM_PROVIDER")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.qianwen.api_key", "QIANWEN_API_KEY")
	v.BindEnv("llm.qianwen.base_url", "QIANWEN_BASE_URL")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Vector search
	v.BindEnv("vector.chroma_url", "CHROMA_URL")
	v.BindEnv("vector.collection", "COLLECTION_NAME")
	v.BindEnv("vector.embedding_api_key", "QIANWEN_API_KEY")
	v.BindEnv("vector.embedding_model", "QIANWEN_EMBEDDING_MODEL_NAME")

	// Ingestion
	v.BindEnv("ingest.chunk_size", "CHUNK_SIZE")
	v.BindEnv("ingest.chunk_overlap", "CHUNK_OVERLAP")
}
