package config

import "time"

// DefaultConfig returns the built-in defaults layered under whatever the
// YAML file and environment overrides supply.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 15 * time.Minute,
			MigrationsPath:  "migrations",
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Resilience: ResilienceConfig{
			Breakers: map[string]BreakerTier{
				"database": {
					FailureThreshold: 3,
					MonitoringPeriod: 2 * time.Minute,
					RecoveryTimeout:  30 * time.Second,
					HalfOpenMaxCalls: 2,
				},
				"external_api": {
					FailureThreshold: 5,
					MonitoringPeriod: 5 * time.Minute,
					RecoveryTimeout:  60 * time.Second,
					HalfOpenMaxCalls: 3,
				},
				"ai_service": {
					FailureThreshold: 3,
					MonitoringPeriod: 3 * time.Minute,
					RecoveryTimeout:  30 * time.Second,
					HalfOpenMaxCalls: 2,
				},
				"file_storage": {
					FailureThreshold: 5,
					MonitoringPeriod: 4 * time.Minute,
					RecoveryTimeout:  45 * time.Second,
					HalfOpenMaxCalls: 3,
				},
			},
			Limiters: map[string]LimiterTier{
				"tenant": {
					Algorithm: "sliding_window",
					Limit:     1000,
					Window:    15 * time.Minute,
					FailOpen:  false,
				},
				"user": {
					Algorithm: "sliding_window",
					Limit:     100,
					Window:    15 * time.Minute,
					FailOpen:  false,
				},
				"global": {
					Algorithm: "fixed_window",
					Limit:     10000,
					Window:    time.Minute,
					FailOpen:  true,
				},
				"api_key": {
					Algorithm: "fixed_window",
					Limit:     1000,
					Window:    time.Minute,
					FailOpen:  false,
				},
			},
		},
		Queue: QueueConfig{
			Queues: map[string]QueueDef{
				"resume.ingestion": {
					Concurrency:     3,
					MaxAttempts:     5,
					PollInterval:    time.Second,
					VisibilityTimeo: 2 * time.Minute,
					BackoffBase:     2 * time.Second,
					BackoffMax:      5 * time.Minute,
					HighWaterMark:   10000,
				},
				"requirement.ingestion": {
					Concurrency:     3,
					MaxAttempts:     5,
					PollInterval:    time.Second,
					VisibilityTimeo: 2 * time.Minute,
					BackoffBase:     2 * time.Second,
					BackoffMax:      5 * time.Minute,
					HighWaterMark:   10000,
				},
				"webhook.processing": {
					Concurrency:     5,
					MaxAttempts:     8,
					PollInterval:    500 * time.Millisecond,
					VisibilityTimeo: time.Minute,
					BackoffBase:     time.Second,
					BackoffMax:      2 * time.Minute,
					HighWaterMark:   20000,
				},
				"sync.processing": {
					Concurrency:     2,
					MaxAttempts:     5,
					PollInterval:    2 * time.Second,
					VisibilityTimeo: 5 * time.Minute,
					BackoffBase:     5 * time.Second,
					BackoffMax:      10 * time.Minute,
					HighWaterMark:   5000,
				},
			},
			GracefulShutdownTimeout: 30 * time.Second,
			HeartbeatInterval:       10 * time.Second,
			OrphanThreshold:         5 * time.Minute,
		},
		Search: SearchConfig{
			VectorWeight:  0.6,
			LexicalWeight: 0.4,
			MaxResults:    50,
			MinScore:      0.05,
			EmbeddingDims: 1536,
		},
		Matching: MatchingConfig{
			BaseWeight:    0.2,
			RerankEnabled: false,
			RerankWeight:  0.3,
			ModelVersion:  "v1",
		},
		PII: PIIConfig{
			TokenPrefix: "pii_",
			TokenTTL:    24 * time.Hour,
			DetectorsOn: []string{"EMAIL", "PHONE", "SSN", "PERSON"},
			VaultKeyEnv: "PII_VAULT_KEY",
		},
		Embedding: EmbeddingConfig{
			Region:    "us-east-1",
			ModelID:   "amazon.titan-embed-text-v2:0",
			Dimension: 1536,
			BatchSize: 16,
		},
		Summarizer: SummarizerConfig{
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Model:     "claude-3-5-haiku-latest",
			Timeout:   15 * time.Second,
			MaxTokens: 512,
		},
		Blob: BlobConfig{
			Region:     "us-east-1",
			PresignTTL: 15 * time.Minute,
		},
		Ingestion: IngestionConfig{
			MaxDocumentBytes: 10 << 20,
			AllowedMIMETypes: []string{
				"application/pdf",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				"text/plain",
			},
			IMAPMailbox:      "INBOX",
			IMAPPort:         993,
			IMAPTLS:          true,
			IMAPPollInterval: time.Minute,
			AttachmentMimeWhitelist: []string{
				"application/pdf",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			},
		},
	}
}
