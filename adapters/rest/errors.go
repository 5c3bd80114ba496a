package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/core"
)

// writeErr maps engine sentinels to HTTP statuses. Anything unrecognized is
// a 500 with a generic body; details stay in the log.
func (s *Server) writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
