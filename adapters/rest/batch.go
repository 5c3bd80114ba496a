package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/core"
)

func batchStatusCode(res core.BatchResult) int {
	if res.Ok() {
		return http.StatusOK
	}
	// partial failure still returns the per-task breakdown
	return http.StatusMultiStatus
}

func (s *Server) handleBatchStatus(c *gin.Context) {
	var in batchStatusIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	res, err := s.svc.BatchUpdateStatus(c.Request.Context(), ownerID(c), in.TaskIDs, in.Status)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(batchStatusCode(res), res)
}

func (s *Server) handleBatchPriority(c *gin.Context) {
	var in batchPriorityIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	res, err := s.svc.BatchUpdatePriority(c.Request.Context(), ownerID(c), in.TaskIDs, in.Priority)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(batchStatusCode(res), res)
}

func (s *Server) handleBatchTags(c *gin.Context) {
	var in batchTagsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	res, err := s.svc.BatchAddTags(c.Request.Context(), ownerID(c), in.TaskIDs, in.Tags)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(batchStatusCode(res), res)
}

func (s *Server) handleBatchDelete(c *gin.Context) {
	var in batchDeleteIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	res, err := s.svc.BatchDelete(c.Request.Context(), ownerID(c), in.TaskIDs)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(batchStatusCode(res), res)
}
