package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

func TestReindexHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("rejects when no indexer is wired", func(t *testing.T) {
		s := &Server{}
		e := gin.New()
		e.POST("/reindex", s.reindexHandler)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/reindex", strings.NewReader(`{"entityType":"CONSULTANT"}`))
		req.Header.Set("Content-Type", "application/json")
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		s := &Server{indexer: search.NewIndexer(search.NewIndex(config.SearchConfig{}), nil, nil, nil, nil, nil, 0)}
		e := gin.New()
		e.POST("/reindex", s.reindexHandler)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/reindex", strings.NewReader(`not json`))
		req.Header.Set("Content-Type", "application/json")
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an unknown entity type", func(t *testing.T) {
		s := &Server{indexer: search.NewIndexer(search.NewIndex(config.SearchConfig{}), nil, nil, nil, nil, nil, 0)}
		e := gin.New()
		e.POST("/reindex", s.reindexHandler)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/reindex", strings.NewReader(`{"entityType":"BOGUS"}`))
		req.Header.Set("Content-Type", "application/json")
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
