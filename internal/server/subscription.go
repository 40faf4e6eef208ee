package server

import (
	"net/http"

	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetSubscription(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	sub, err := s.subscriptionsvc.Current(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	plan, err := s.catalogsvc.ResolvePlan(c.Request.Context(), sub.PlanID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub, "plan": plan})
}

// ReplaceSubscription appends a new subscription row for the tenant; prior
// rows stay behind as history. Future-dated starts land as SCHEDULED and wait
// for the activation sweep.
func (s *Server) ReplaceSubscription(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	var req subscriptiondomain.ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.TenantID = tenantID.String()

	sub, err := s.subscriptionsvc.Replace(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
