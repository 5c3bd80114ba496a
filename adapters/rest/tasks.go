package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskflow/core"
)

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.svc.ListTasks(c.Request.Context(), ownerID(c))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var in core.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	task, err := s.svc.CreateTask(c.Request.Context(), ownerID(c), in)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleCreateSubtask(c *gin.Context) {
	var in core.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	task, err := s.svc.CreateSubtask(c.Request.Context(), ownerID(c), c.Param("id"), in)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.svc.GetTask(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handlePatchTask(c *gin.Context) {
	var p core.TaskPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	task, err := s.svc.PatchTask(c.Request.Context(), ownerID(c), c.Param("id"), p)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.svc.DeleteTask(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		s.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var in statusIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	task, err := s.svc.UpdateStatus(c.Request.Context(), ownerID(c), c.Param("id"), in.Status)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleUpdateProgress(c *gin.Context) {
	var in progressIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	task, err := s.svc.UpdateProgress(c.Request.Context(), ownerID(c), c.Param("id"), in.Percentage)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleCheckDependencies(c *gin.Context) {
	ok, err := s.svc.CheckDependencies(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"satisfied": ok})
}

func (s *Server) handleStartTimer(c *gin.Context) {
	task, err := s.svc.StartTimer(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleStopTimer(c *gin.Context) {
	var in stopTimerIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	task, err := s.svc.StopTimer(c.Request.Context(), ownerID(c), c.Param("id"), in.ElapsedMs)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleCheckSplit(c *gin.Context) {
	needed, err := s.svc.CheckSplitNeeded(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"splitNeeded": needed})
}

func (s *Server) handleAutoSplit(c *gin.Context) {
	task, err := s.svc.AutoSplit(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleScore(c *gin.Context) {
	score, err := s.svc.PersonalizationScore(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

func (s *Server) handleRecommendedTasks(c *gin.Context) {
	limit := parseLimit(c, 10)
	tasks, err := s.svc.RecommendedTasks(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := parseLimit(c, 20)
	activities, err := s.svc.History(c.Request.Context(), ownerID(c), c.Param("id"), limit)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (s *Server) handleRecentActivity(c *gin.Context) {
	limit := parseLimit(c, 50)
	activities, err := s.svc.RecentActivity(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (s *Server) handleAddComment(c *gin.Context) {
	var in commentIn
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeErr(c, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}

	activity, err := s.svc.AddComment(c.Request.Context(), ownerID(c), c.Param("id"), in.Author, in.Text)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": activity})
}

func parseLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
