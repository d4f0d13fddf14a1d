package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetLibrary(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	items, err := s.catalogSvc.Library(c.Request.Context(), principal.SubjectID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
