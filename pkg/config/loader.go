package config

import (
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file, expands environment variables,
// merges it over DefaultConfig, validates the result, and returns it
// ready for use. A .env file in the working directory (if present) is
// loaded first so ${VAR} expansion can see it; a missing .env is not an error.
func Load(configPath string) (*Config, error) {
	log := slog.With("config_path", configPath)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env file", "error", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(configPath, ErrConfigNotFound)
		}
		return nil, NewLoadError(configPath, err)
	}

	expanded := ExpandEnv(raw)

	var user Config
	if err := yaml.Unmarshal(expanded, &user); err != nil {
		return nil, NewLoadError(configPath, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	cfg := DefaultConfig()
	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, NewLoadError(configPath, fmt.Errorf("merging user config over defaults: %w", err))
	}
	cfg.configPath = configPath

	if err := resolveSecretEnvRefs(cfg); err != nil {
		return nil, NewLoadError(configPath, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	log.Info("configuration loaded",
		"queues", len(cfg.Queue.Queues),
		"breaker_tiers", len(cfg.Resilience.Breakers),
		"limiter_tiers", len(cfg.Resilience.Limiters))

	return cfg, nil
}

// resolveSecretEnvRefs substitutes the literal env-var-name fields
// (CacheConfig.Password, PIIConfig.VaultKeyEnv, SummarizerConfig.APIKeyEnv,
// IngestionConfig.IMAPUserEnv/IMAPPasswordEnv) with nothing — those fields
// intentionally stay as env var *names*; collaborators read the
// referenced variable themselves at construction time via os.Getenv. This
// keeps secret material out of the loaded Config struct entirely, so a
// log dump of Config never leaks credentials.
func resolveSecretEnvRefs(cfg *Config) error {
	if cfg.PII.VaultKeyEnv == "" {
		return NewValidationError("pii", "vault_key_env", fmt.Errorf("required"))
	}
	if cfg.Summarizer.APIKeyEnv == "" {
		return NewValidationError("summarizer", "api_key_env", fmt.Errorf("required"))
	}
	return nil
}
