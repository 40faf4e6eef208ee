package server

import (
	"net/http"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	"github.com/gin-gonic/gin"
)

type recordUsageRequest struct {
	Component  catalogdomain.ComponentKind `json:"component"`
	Quantity   int64                       `json:"quantity"`
	OccurredAt *time.Time                  `json:"occurred_at,omitempty"`
	Metadata   map[string]any              `json:"metadata,omitempty"`
}

// RecordUsage admits a metered request against the tenant's allotment and
// prepaid balance. Rejections carry the shortage so the client can size a
// top-up order immediately.
func (s *Server) RecordUsage(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	var req recordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	consume := creditdomain.ConsumeRequest{
		TenantID:  tenantID,
		Component: req.Component,
		Quantity:  req.Quantity,
		Metadata:  req.Metadata,
	}
	if req.OccurredAt != nil {
		consume.OccurredAt = *req.OccurredAt
	}

	result, err := s.creditsvc.CheckAndConsume(c.Request.Context(), consume)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"usage": result})
}
