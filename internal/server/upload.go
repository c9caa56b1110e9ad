package server

import (
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// normalizeFilename keeps the base name and replaces anything unsafe with
// underscores.
func normalizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

func uploadKey(filename string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "uploads/" + now.UTC().Format("20060102_150405") + "_" + suffix + "_" + normalizeFilename(filename)
}

// Upload stores a source image and records it as an upload owned by the caller.
func (s *Server) Upload(c *gin.Context) {
	maxBytes := s.cfg.Server.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "file_required", "file is required"))
		return
	}
	if header.Size > maxBytes {
		AbortWithError(c, newValidationError("file", "file_too_large", "file is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if int64(len(data)) > maxBytes {
		AbortWithError(c, newValidationError("file", "file_too_large", "file is too large"))
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		AbortWithError(c, newValidationError("file", "unsupported_media_type", "file must be an image"))
		return
	}

	ctx := c.Request.Context()
	key := uploadKey(header.Filename, s.clock.Now())
	if err := s.storage.Put(ctx, key, data, contentType); err != nil {
		AbortWithError(c, err)
		return
	}
	upload, err := s.artifactSvc.Create(ctx, accountID(c), s.storage.URL(key))
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"upload_id":    upload.ID.String(),
		"key":          key,
		"file_url":     s.storage.URL(key),
		"content_type": contentType,
		"expires_at":   upload.ExpiresAt,
	})
}
