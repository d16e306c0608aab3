// Package config loads and validates the matching core's configuration:
// a single YAML file plus environment variable overrides (plain
// `gopkg.in/yaml.v3` unmarshal with `os.ExpandEnv` pre-processing).
package config

import "time"

// Config is the umbrella configuration object returned by Load and
// threaded through every package's constructor.
type Config struct {
	configPath string

	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Queue      QueueConfig      `yaml:"queue"`
	Search     SearchConfig     `yaml:"search"`
	Matching   MatchingConfig   `yaml:"matching"`
	PII        PIIConfig        `yaml:"pii"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Blob       BlobConfig       `yaml:"blob"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
}

// ConfigPath returns the file the configuration was loaded from.
func (c *Config) ConfigPath() string { return c.configPath }

// ServerConfig is the thin HTTP edge's listen settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the pgx connection pool backing the
// tenant-scoped store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// CacheConfig configures the shared Redis instance backing resilience
// state and rate-limit counters.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password_env"` // env var name; the caller reads it via os.Getenv
	DB       int    `yaml:"db"`
}

// BreakerTier is one named circuit-breaker policy.
type BreakerTier struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	MonitoringPeriod time.Duration `yaml:"monitoring_period"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	HalfOpenMaxCalls int           `yaml:"half_open_max_calls"`
}

// LimiterTier is one named rate-limit policy.
type LimiterTier struct {
	Algorithm string        `yaml:"algorithm"` // "fixed_window" | "sliding_window"
	Limit     int           `yaml:"limit"`
	Window    time.Duration `yaml:"window"`
	FailOpen  bool          `yaml:"fail_open"`
}

// ResilienceConfig holds every named circuit-breaker and rate-limit tier.
type ResilienceConfig struct {
	Breakers map[string]BreakerTier `yaml:"breakers"`
	Limiters map[string]LimiterTier `yaml:"limiters"`
}

// QueueDef is the tunable policy for a single named job queue.
type QueueDef struct {
	Concurrency     int           `yaml:"concurrency"`
	MaxAttempts     int           `yaml:"max_attempts"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	VisibilityTimeo time.Duration `yaml:"visibility_timeout"`
	BackoffBase     time.Duration `yaml:"backoff_base"`
	BackoffMax      time.Duration `yaml:"backoff_max"`
	// HighWaterMark bounds pending depth (WAITING + FAILED_RETRYING +
	// ACTIVE); enqueues past it fail transiently. 0 disables the bound.
	HighWaterMark int `yaml:"high_water_mark"`
}

// QueueConfig configures every queue the worker pool serves.
type QueueConfig struct {
	Queues                  map[string]QueueDef `yaml:"queues"`
	GracefulShutdownTimeout time.Duration       `yaml:"graceful_shutdown_timeout"`
	HeartbeatInterval       time.Duration       `yaml:"heartbeat_interval"`
	OrphanThreshold         time.Duration       `yaml:"orphan_threshold"`
}

// SearchConfig tunes the hybrid lexical/vector index: vector/lexical
// blend weights, result caps, and the embedding dimension.
type SearchConfig struct {
	VectorWeight  float64 `yaml:"vector_weight"`
	LexicalWeight float64 `yaml:"lexical_weight"`
	MaxResults    int     `yaml:"max_results"`
	MinScore      float64 `yaml:"min_score"`
	EmbeddingDims int     `yaml:"embedding_dimensions"`
}

// MatchingConfig tunes the scoring pipeline: the linear base weight
// and whether/how much LLM rerank contributes to the final blend.
type MatchingConfig struct {
	BaseWeight    float64 `yaml:"base_weight"`
	RerankEnabled bool    `yaml:"rerank_enabled"`
	RerankWeight  float64 `yaml:"rerank_weight"`
	ModelVersion  string  `yaml:"model_version"`
}

// PIIConfig configures detection, redaction, and the token vault.
type PIIConfig struct {
	VaultKeyEnv   string        `yaml:"vault_key_env"` // env var holding the vault secret; NewVault derives the AES-256 key from its raw bytes via HKDF
	TokenPrefix   string        `yaml:"token_prefix"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	DetectorsOn   []string      `yaml:"detectors_on"`
}

// EmbeddingConfig points at the Bedrock embedding collaborator.
type EmbeddingConfig struct {
	Region    string `yaml:"region"`
	ModelID   string `yaml:"model_id"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// SummarizerConfig points at the Anthropic summarization/rerank collaborator.
type SummarizerConfig struct {
	APIKeyEnv string        `yaml:"api_key_env"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// BlobConfig points at the S3-compatible object store.
type BlobConfig struct {
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	PresignTTL      time.Duration `yaml:"presign_ttl"`
	ForcePathStyle  bool          `yaml:"force_path_style"`
}

// IngestionConfig tunes resume/requirement ingestion.
type IngestionConfig struct {
	MaxDocumentBytes        int64         `yaml:"max_document_bytes"`
	AllowedMIMETypes        []string      `yaml:"allowed_mime_types"`
	IMAPHost                string        `yaml:"imap_host"`
	IMAPPort                int           `yaml:"imap_port"`
	IMAPTLS                 bool          `yaml:"imap_tls"`
	IMAPUserEnv             string        `yaml:"imap_user_env"`
	IMAPPasswordEnv         string        `yaml:"imap_password_env"`
	IMAPMailbox             string        `yaml:"imap_mailbox"`
	IMAPPollInterval        time.Duration `yaml:"imap_poll_interval"`
	IMAPTenantID            string        `yaml:"imap_tenant_id"` // tenant the polled mailbox's ingested items belong to
	AttachmentMimeWhitelist []string      `yaml:"attachment_mime_whitelist"`
}
