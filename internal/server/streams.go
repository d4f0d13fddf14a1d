package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/musichub/musichub/internal/analytics/domain"
	streamdomain "github.com/musichub/musichub/internal/stream/domain"
)

type ingestStreamRequest struct {
	SongID   string `json:"song_id"`
	ArtistID string `json:"artist_id"`
	UserID   string `json:"user_id"`
	Source   string `json:"source"`
}

func (s *Server) IngestStream(c *gin.Context) {
	var req ingestStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.streamSvc.Record(c.Request.Context(), streamdomain.RecordRequest{
		SongID:   strings.TrimSpace(req.SongID),
		ArtistID: strings.TrimSpace(req.ArtistID),
		UserID:   strings.TrimSpace(req.UserID),
		Source:   strings.TrimSpace(req.Source),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetStreamAnalytics(c *gin.Context) {
	var query analyticsdomain.StreamQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	report, err := s.analyticsSvc.StreamAnalytics(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
