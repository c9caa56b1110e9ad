package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/interiohub/interio/internal/generation"
)

type generateRequest struct {
	ImageURL string `json:"image_url"`
	Style    string `json:"style"`
	UploadID string `json:"upload_id"`
	HD       bool   `json:"hd"`
}

// Generate debits one credit and queues a generation job.
func (s *Server) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	account := accountID(c)
	if !s.limiter.Allow(account) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	var uploadID *snowflake.ID
	if raw := strings.TrimSpace(req.UploadID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("upload_id", "invalid_upload_id", "invalid upload_id"))
			return
		}
		uploadID = &id
	}

	sub, err := s.gate.Submit(c.Request.Context(), generation.Request{
		AccountID: account,
		SourceRef: req.ImageURL,
		StyleID:   req.Style,
		UploadID:  uploadID,
		HD:        req.HD,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"task_id":   sub.JobID.String(),
		"tier":      sub.Tier,
		"remaining": sub.Remaining,
	})
}

// JobStatus reports a job's projected status to its owner.
func (s *Server) JobStatus(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		AbortWithError(c, ErrNotFound)
		return
	}

	projection, err := s.jobSvc.Status(c.Request.Context(), accountID(c), snowflake.ID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}
