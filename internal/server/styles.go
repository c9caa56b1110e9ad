package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/interiohub/interio/internal/storage"
)

func (s *Server) ListStyles(c *gin.Context) {
	c.JSON(http.StatusOK, s.styles.Public())
}

// Download streams a stored object as an attachment named after the key.
func (s *Server) Download(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		AbortWithError(c, newValidationError("key", "key_required", "key is required"))
		return
	}
	if strings.Contains(key, "..") {
		AbortWithError(c, storage.ErrInvalidKey)
		return
	}

	data, contentType, err := s.storage.Get(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if contentType == "" {
		contentType = "image/png"
	}
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	c.Data(http.StatusOK, contentType, data)
}
