package api

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
)

// intakeResumeHandler handles POST /api/v1/resumes.
func (s *Server) intakeResumeHandler(c *gin.Context) {
	var req resumeIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		writeError(c, apperr.Validation("contentBase64 is not valid base64"))
		return
	}

	result, err := s.resumes.Intake(c.Request.Context(), tenantFrom(c), ingestion.ResumeRequest{
		FileName:      req.FileName,
		ContentType:   req.ContentType,
		Content:       content,
		Source:        req.Source,
		ConsultantID:  req.ConsultantID,
		RequirementID: req.RequirementID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"documentId": result.DocumentID,
		"duplicate":  result.Duplicate,
	})
}

// getConsultantHandler handles GET /api/v1/consultants/:id.
func (s *Server) getConsultantHandler(c *gin.Context) {
	con, err := s.store.Consultants.Get(c.Request.Context(), tenantFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConsultantResponse(con))
}
