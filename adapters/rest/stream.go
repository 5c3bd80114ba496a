package rest

import (
	"io"

	"github.com/gin-gonic/gin"
)

// handleSubscribe streams the owner's task list as server-sent events. Each
// successful mutation on the collection pushes a fresh snapshot; the stream
// ends when the client disconnects.
func (s *Server) handleSubscribe(c *gin.Context) {
	ch, cancel := s.svc.Subscribe(ownerID(c))
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case tasks, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("tasks", tasks)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
