// Package api is the thin HTTP edge over the matching core: request
// parsing, tenant resolution, and rate limiting wrap the ingestion
// pipelines and matching engine, which carry all the substantive logic.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/queue"
	"github.com/konetibalaji/benchsales-match/pkg/resilience"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

// Server is the HTTP API server over the matching core.
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	cfg          *config.Config
	store        *database.Store
	queuePool    *queue.Pool
	resumes      *ingestion.ResumePipeline
	requirements *ingestion.RequirementPipeline
	matcher      *matching.Engine
	limiters     *resilience.LimiterRegistry
	indexer      *search.Indexer
}

// NewServer wires a gin engine over the matching core's collaborators.
// queuePool, limiters, and indexer may be nil (health reports queues as
// omitted, rate limiting is skipped, reindex is unavailable) so the
// server is usable in tests without a full Redis/search-backed stack.
func NewServer(cfg *config.Config, store *database.Store, queuePool *queue.Pool, resumes *ingestion.ResumePipeline, requirements *ingestion.RequirementPipeline, matcher *matching.Engine, limiters *resilience.LimiterRegistry, indexer *search.Indexer) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(recoverMiddleware())

	s := &Server{
		engine:       e,
		cfg:          cfg,
		store:        store,
		queuePool:    queuePool,
		resumes:      resumes,
		requirements: requirements,
		matcher:      matcher,
		limiters:     limiters,
		indexer:      indexer,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	v1.Use(tenantMiddleware())

	v1.POST("/requirements", rateLimitMiddleware(s.limiters, "tenant"), s.intakeRequirementHandler)
	v1.GET("/requirements/:id", s.getRequirementHandler)
	v1.POST("/requirements/:id/rank", rateLimitMiddleware(s.limiters, "tenant"), s.rankHandler)

	v1.POST("/resumes", rateLimitMiddleware(s.limiters, "tenant"), s.intakeResumeHandler)
	v1.GET("/consultants/:id", s.getConsultantHandler)

	v1.POST("/matches/:id/feedback", s.submitFeedbackHandler)
	v1.GET("/matches/:id", s.getMatchHandler)

	v1.POST("/evaluate", s.evaluateHandler)

	v1.POST("/search/reindex", rateLimitMiddleware(s.limiters, "tenant"), s.reindexHandler)
}

// Start runs the server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener serves on a pre-created listener, used by tests
// that need a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.store.Pool)
	resp := healthResponse{Status: "healthy", Version: buildVersion(), Database: dbHealth}
	if err != nil {
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	if s.queuePool != nil {
		queues, qErr := s.queuePool.Health(reqCtx)
		if qErr == nil {
			for _, q := range queues {
				resp.WorkerPools = append(resp.WorkerPools, queueHealthResponse{
					Queue:       q.Queue,
					Depth:       q.Depth,
					DLQCount:    q.DLQCount,
					ActiveCount: q.ActiveCount,
				})
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
