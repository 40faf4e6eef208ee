package server

import (
	"net/http"
	"strings"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreatePlan(c *gin.Context) {
	var req catalogdomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.catalogsvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

func (s *Server) ListPlans(c *gin.Context) {
	req := catalogdomain.ListPlanRequest{
		IncludeInactive: c.Query("include_inactive") == "true",
	}

	plans, err := s.catalogsvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) GetPlan(c *gin.Context) {
	planID, ok := pathID(c, "plan_id")
	if !ok {
		return
	}

	plan, err := s.catalogsvc.ResolvePlan(c.Request.Context(), planID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// DeactivatePlan retires a plan from sale. Existing subscriptions keep
// resolving it; rows are never deleted.
func (s *Server) DeactivatePlan(c *gin.Context) {
	planID, ok := pathID(c, "plan_id")
	if !ok {
		return
	}

	if err := s.catalogsvc.Deactivate(c.Request.Context(), planID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func pathID(c *gin.Context, name string) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		AbortWithError(c, newValidationError(name, "invalid_"+name, "invalid "+name))
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, newValidationError(name, "invalid_"+name, "invalid "+name))
		return 0, false
	}
	return id, true
}
