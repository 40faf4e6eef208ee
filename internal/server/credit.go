package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCreditBalances(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	balances, err := s.creditsvc.Balances(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
