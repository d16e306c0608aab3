package config

import (
	"fmt"
	"math"
)

// Validate checks structural and cross-field invariants that YAML
// unmarshalling alone cannot enforce.
func Validate(cfg *Config) error {
	if cfg.Database.DSN == "" {
		return NewValidationError("database", "dsn", fmt.Errorf("required"))
	}
	if cfg.Database.MaxConns < cfg.Database.MinConns {
		return NewValidationError("database", "max_conns", fmt.Errorf("must be >= min_conns"))
	}

	if err := validateSearch(cfg.Search); err != nil {
		return err
	}
	if err := validateMatching(cfg.Matching); err != nil {
		return err
	}
	if err := validateQueues(cfg.Queue); err != nil {
		return err
	}
	if err := validateResilience(cfg.Resilience); err != nil {
		return err
	}
	return nil
}

func validateSearch(s SearchConfig) error {
	sum := s.VectorWeight + s.LexicalWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return NewValidationError("search", "vector_weight+lexical_weight",
			fmt.Errorf("must sum to 1.0, got %f", sum))
	}
	if s.MaxResults <= 0 {
		return NewValidationError("search", "max_results", fmt.Errorf("must be positive"))
	}
	if s.EmbeddingDims <= 0 {
		return NewValidationError("search", "embedding_dimensions", fmt.Errorf("must be positive"))
	}
	return nil
}

func validateMatching(m MatchingConfig) error {
	if m.BaseWeight < 0 || m.BaseWeight > 1 {
		return NewValidationError("matching", "base_weight", fmt.Errorf("must be in [0,1]"))
	}
	if m.RerankEnabled && (m.RerankWeight <= 0 || m.RerankWeight > 0.3) {
		return NewValidationError("matching", "rerank_weight", fmt.Errorf("must be in (0,0.3] when rerank is enabled"))
	}
	return nil
}

func validateQueues(q QueueConfig) error {
	if len(q.Queues) == 0 {
		return NewValidationError("queue", "queues", fmt.Errorf("at least one queue must be configured"))
	}
	for name, def := range q.Queues {
		if def.Concurrency <= 0 {
			return NewValidationError("queue."+name, "concurrency", fmt.Errorf("must be positive"))
		}
		if def.MaxAttempts <= 0 {
			return NewValidationError("queue."+name, "max_attempts", fmt.Errorf("must be positive"))
		}
		if def.BackoffMax < def.BackoffBase {
			return NewValidationError("queue."+name, "backoff_max", fmt.Errorf("must be >= backoff_base"))
		}
	}
	return nil
}

func validateResilience(r ResilienceConfig) error {
	for name, b := range r.Breakers {
		if b.FailureThreshold <= 0 {
			return NewValidationError("resilience.breakers."+name, "failure_threshold", fmt.Errorf("must be positive"))
		}
		if b.HalfOpenMaxCalls <= 0 {
			return NewValidationError("resilience.breakers."+name, "half_open_max_calls", fmt.Errorf("must be positive"))
		}
	}
	for name, l := range r.Limiters {
		if l.Algorithm != "fixed_window" && l.Algorithm != "sliding_window" {
			return NewValidationError("resilience.limiters."+name, "algorithm",
				fmt.Errorf("must be fixed_window or sliding_window, got %q", l.Algorithm))
		}
		if l.Limit <= 0 {
			return NewValidationError("resilience.limiters."+name, "limit", fmt.Errorf("must be positive"))
		}
	}
	return nil
}
