package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
)

// intakeRequirementHandler handles POST /api/v1/requirements.
func (s *Server) intakeRequirementHandler(c *gin.Context) {
	var req requirementIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.requirements.Intake(c.Request.Context(), tenantFrom(c), ingestion.RequirementRequest{
		RawContent: req.RawContent,
		Source:     req.Source,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"ingestionId": result.IngestionID,
		"duplicate":   result.Duplicate,
	})
}

// getRequirementHandler handles GET /api/v1/requirements/:id.
func (s *Server) getRequirementHandler(c *gin.Context) {
	req, err := s.store.Requirements.Get(c.Request.Context(), tenantFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequirementResponse(req))
}
