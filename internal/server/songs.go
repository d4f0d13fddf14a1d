package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
)

type createSongRequest struct {
	Title string `json:"title"`
	Genre string `json:"genre"`
	Price int64  `json:"price"`
}

func (s *Server) CreateSong(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req createSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateSong(c.Request.Context(), catalogdomain.CreateSongRequest{
		ArtistID: principal.SubjectID.String(),
		Title:    strings.TrimSpace(req.Title),
		Genre:    strings.TrimSpace(req.Genre),
		Price:    req.Price,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSongs(c *gin.Context) {
	var query struct {
		ArtistID string `form:"artist_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.ListSongs(c.Request.Context(), strings.TrimSpace(query.ArtistID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSongByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.catalogSvc.GetSong(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
