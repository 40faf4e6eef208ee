package server

import (
	"net/http"
	"strings"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	invoicedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListInvoices(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	req := invoicedomain.ListRequest{TenantID: tenantID}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.Status(strings.ToUpper(raw))
		switch status {
		case invoicedomain.StatusOpen, invoicedomain.StatusPaid, invoicedomain.StatusVoid:
			req.Status = &status
		default:
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
	}
	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		kind := invoicedomain.Kind(strings.ToUpper(raw))
		switch kind {
		case invoicedomain.KindSubscription, invoicedomain.KindTopUp:
			req.Kind = &kind
		default:
			AbortWithError(c, newValidationError("kind", "invalid_kind", "invalid kind"))
			return
		}
	}

	invoices, err := s.invoicesvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) GetInvoice(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}
	invoiceID, ok := pathID(c, "invoice_id")
	if !ok {
		return
	}

	inv, err := s.invoicesvc.Get(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if inv.TenantID != tenantID {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

type invoicePeriodRequest struct {
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
}

// PreviewInvoice prices the subscription invoice for the period without
// persisting anything. Period defaults to the subscription's current period.
func (s *Server) PreviewInvoice(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	var req invoicePeriodRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	preview, err := s.invoicesvc.ComputePreview(c.Request.Context(), tenantID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

func (s *Server) GenerateInvoice(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	var req invoicePeriodRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	gen := invoicedomain.GenerateRequest{TenantID: tenantID}
	if req.PeriodStart != nil {
		gen.PeriodStart = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		gen.PeriodEnd = *req.PeriodEnd
	}

	inv, err := s.invoicesvc.Generate(c.Request.Context(), gen)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": inv})
}

type markPaidRequest struct {
	Method    string     `json:"method"`
	Reference string     `json:"reference"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// MarkInvoicePaid records an out-of-band settlement: a bank transfer or cash
// payment reconciled by an operator.
func (s *Server) MarkInvoicePaid(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoice_id")
	if !ok {
		return
	}

	var req markPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	mark := invoicedomain.MarkPaidRequest{
		InvoiceID: invoiceID,
		Method:    req.Method,
		Reference: req.Reference,
	}
	if req.PaidAt != nil {
		mark.PaidAt = *req.PaidAt
	}

	inv, err := s.invoicesvc.MarkPaid(c.Request.Context(), mark)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

type voidInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) VoidInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, "invoice_id")
	if !ok {
		return
	}

	var req voidInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	inv, err := s.invoicesvc.Void(c.Request.Context(), invoiceID, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

type topUpOrderRequest struct {
	Component catalogdomain.ComponentKind `json:"component"`
	Units     int64                       `json:"units"`
}

func (s *Server) CreateTopUpOrder(c *gin.Context) {
	tenantID, ok := pathID(c, "tenant_id")
	if !ok {
		return
	}

	var req topUpOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.invoicesvc.CreateTopUpOrder(c.Request.Context(), invoicedomain.CreateTopUpOrderRequest{
		TenantID:  tenantID,
		Component: req.Component,
		Units:     req.Units,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}
