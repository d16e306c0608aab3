package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// reindexHandler handles POST /api/v1/search/reindex. It rebuilds the
// hybrid index row for every entity of the requested type in the
// caller's tenant — the bulk counterpart to the implicit per-mutation
// indexing the ingestion pipelines already do.
func (s *Server) reindexHandler(c *gin.Context) {
	if s.indexer == nil {
		writeError(c, apperr.Fatal("search index unavailable", nil))
		return
	}

	var req reindexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entityType := models.EntityType(req.EntityType)
	if entityType != models.EntityConsultant && entityType != models.EntityRequirement {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "entityType must be CONSULTANT or REQUIREMENT"})
		return
	}

	count, err := s.indexer.ReindexAll(c.Request.Context(), tenantFrom(c), entityType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entityType": entityType, "indexed": count})
}
