// Command server starts the bench-sales matching core: it wires the
// tenant-scoped store, resilience primitives, ingestion worker pool,
// and the thin HTTP edge over them, then serves until terminated.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/konetibalaji/benchsales-match/pkg/api"
	"github.com/konetibalaji/benchsales-match/pkg/audit"
	"github.com/konetibalaji/benchsales-match/pkg/blob"
	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/embedding"
	"github.com/konetibalaji/benchsales-match/pkg/extract"
	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/ner"
	"github.com/konetibalaji/benchsales-match/pkg/ontology"
	"github.com/konetibalaji/benchsales-match/pkg/pii"
	"github.com/konetibalaji/benchsales-match/pkg/queue"
	"github.com/konetibalaji/benchsales-match/pkg/resilience"
	"github.com/konetibalaji/benchsales-match/pkg/search"
	"github.com/konetibalaji/benchsales-match/pkg/summarize"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "deploy/config/config.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.NewStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer store.Pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr, Password: os.Getenv(cfg.Cache.Password), DB: cfg.Cache.DB})
	defer rdb.Close()

	limiters := resilience.NewLimiterRegistry(rdb, cfg.Resilience.Limiters)
	breakers := resilience.NewRegistry(rdb, cfg.Resilience.Breakers)

	vault, err := pii.NewVault(store.PIIVault, vaultKey(cfg.PII.VaultKeyEnv), cfg.PII.TokenPrefix)
	if err != nil {
		log.Fatalf("initializing pii vault: %v", err)
	}
	redactor := pii.NewRedactor(pii.NewDetector(cfg.PII.DetectorsOn), vault)

	matcher, err := ontology.Load(ctx, store.Skills)
	if err != nil {
		log.Fatalf("loading skill ontology: %v", err)
	}

	var embedder search.Embedder = embedding.NewDeterministic(cfg.Embedding.Dimension)
	if cfg.Embedding.Region != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Embedding.Region))
		if err != nil {
			log.Fatalf("loading aws config: %v", err)
		}
		embedder = embedding.NewClient(bedrockruntime.NewFromConfig(awsCfg), cfg.Embedding)
	}

	blobCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Blob.Region))
	if err != nil {
		log.Fatalf("loading aws config: %v", err)
	}
	s3Client := s3.NewFromConfig(blobCfg, func(o *s3.Options) {
		if cfg.Blob.Endpoint != "" {
			o.BaseEndpoint = &cfg.Blob.Endpoint
		}
		o.UsePathStyle = cfg.Blob.ForcePathStyle
	})
	blobStore := blob.NewStore(s3Client, s3.NewPresignClient(s3Client), cfg.Blob)

	index := search.NewIndex(cfg.Search)
	indexer := search.NewIndexer(index, store.SearchDocs, store.Consultants, store.Requirements, store.Skills, embedder, cfg.Search.EmbeddingDims)

	queueStore := queue.NewStore(store.Pool)
	marks := make(map[string]int, len(cfg.Queue.Queues))
	for name, def := range cfg.Queue.Queues {
		marks[name] = def.HighWaterMark
	}
	queueStore.SetHighWaterMarks(marks)
	pool := queue.NewPool(queueStore, cfg.Queue)

	extractor := extract.NewExtractor(nil)
	resumes := ingestion.NewResumePipeline(store, blobStore, queueStore, extractor, ner.NewFallback(), redactor, matcher, indexer)
	requirements := ingestion.NewRequirementPipeline(store, queueStore, ingestion.NewHeuristicExtractor(), matcher, indexer)
	pool.Register(ingestion.ResumeQueue, resumes.Handler())
	pool.Register(ingestion.RequirementQueue, requirements.Handler())

	if err := pool.Start(ctx); err != nil {
		log.Fatalf("starting worker pool: %v", err)
	}
	defer pool.Stop()

	auditStore := audit.NewStore(store.Pool)

	var summarizer summarize.Summarizer = summarize.NewRuleBased()
	if cfg.Matching.RerankEnabled {
		if apiKey := os.Getenv(cfg.Summarizer.APIKeyEnv); apiKey != "" {
			summarizer = summarize.NewAnthropicSummarizer(summarize.NewAnthropicMessagesClient(apiKey), cfg.Summarizer)
		}
	}
	aiBreaker := breakers.Breaker("ai_service")
	engine := matching.NewEngine(store, index, embedder, summarizer, aiBreaker, auditStore, cfg.Matching)

	if cfg.Ingestion.IMAPHost != "" && cfg.Ingestion.IMAPTenantID != "" {
		tc, err := database.NewTenantContext(cfg.Ingestion.IMAPTenantID)
		if err != nil {
			log.Fatalf("invalid ingestion.imap_tenant_id: %v", err)
		}
		mailbox := ingestion.NewIMAPMailbox(cfg.Ingestion, os.Getenv(cfg.Ingestion.IMAPUserEnv), os.Getenv(cfg.Ingestion.IMAPPasswordEnv))
		poller := ingestion.NewEmailPoller(tc, mailbox, resumes, requirements, cfg.Ingestion.IMAPPollInterval, cfg.Ingestion.AttachmentMimeWhitelist)
		poller.Start(ctx)
		defer poller.Stop()
	}

	server := api.NewServer(cfg, store, pool, resumes, requirements, engine, limiters, indexer)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		if err := server.Start(cfg.Server.Addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func vaultKey(envVar string) []byte {
	return []byte(os.Getenv(envVar))
}
