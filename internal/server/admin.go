package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ActivateSubscriptions runs the due-SCHEDULED sweep on demand. The scheduler
// runs the same sweep on its interval; this endpoint exists for operators.
func (s *Server) ActivateSubscriptions(c *gin.Context) {
	report, err := s.subscriptionsvc.ActivateScheduled(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
