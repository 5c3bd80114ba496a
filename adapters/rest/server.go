package rest

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/core"
)

const userHeader = "X-User-ID"

// Server exposes the lifecycle engine over HTTP.
type Server struct {
	engine *gin.Engine
	svc    *core.Service
	log    *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *core.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{engine: router, svc: svc, log: log}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)

	tasks := api.Group("/tasks", s.requireUser)
	{
		tasks.GET("", s.handleListTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.GET("/recommended", s.handleRecommendedTasks)
		tasks.GET("/subscribe", s.handleSubscribe)

		tasks.POST("/batch/status", s.handleBatchStatus)
		tasks.POST("/batch/priority", s.handleBatchPriority)
		tasks.POST("/batch/tags", s.handleBatchTags)
		tasks.POST("/batch/delete", s.handleBatchDelete)

		tasks.GET("/:id", s.handleGetTask)
		tasks.PATCH("/:id", s.handlePatchTask)
		tasks.DELETE("/:id", s.handleDeleteTask)
		tasks.POST("/:id/subtasks", s.handleCreateSubtask)

		tasks.POST("/:id/status", s.handleUpdateStatus)
		tasks.POST("/:id/progress", s.handleUpdateProgress)
		tasks.GET("/:id/dependencies/check", s.handleCheckDependencies)

		tasks.POST("/:id/timer/start", s.handleStartTimer)
		tasks.POST("/:id/timer/stop", s.handleStopTimer)

		tasks.GET("/:id/split/check", s.handleCheckSplit)
		tasks.POST("/:id/split", s.handleAutoSplit)

		tasks.GET("/:id/score", s.handleScore)
		tasks.GET("/:id/activity", s.handleHistory)
		tasks.POST("/:id/comments", s.handleAddComment)
	}

	api.GET("/activity", s.requireUser, s.handleRecentActivity)
}

// requireUser resolves the acting owner from the identity header. The
// identity provider in front of this service is trusted to have
// authenticated the value.
func (s *Server) requireUser(c *gin.Context) {
	user := c.GetHeader(userHeader)
	if user == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + userHeader + " header"})
		return
	}
	c.Set("owner", user)
	c.Next()
}

func ownerID(c *gin.Context) string {
	return c.GetString("owner")
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.svc.Ping(c.Request.Context()); err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
