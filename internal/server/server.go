// Package server wires the billing engine's HTTP surface. Routing here is the
// outer edge; authentication and tenant authorization run in middleware owned
// by the platform gateway.
package server

import (
	"context"
	"net/http"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/config"
	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	invoicedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/domain"
	obsmetrics "github.com/atshybrid/kaburlu-media-backend-sub003/internal/observability/metrics"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParam struct {
	fx.In

	Engine *gin.Engine
	Cfg    config.Config
	Log    *zap.Logger

	CatalogSvc      catalogdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	CreditSvc       creditdomain.Service
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger

	catalogsvc      catalogdomain.Service
	subscriptionsvc subscriptiondomain.Service
	creditsvc       creditdomain.Service
	invoicesvc      invoicedomain.Service
	paymentsvc      paymentdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		engine: p.Engine,
		cfg:    p.Cfg,
		log:    p.Log.Named("http.server"),

		catalogsvc:      p.CatalogSvc,
		subscriptionsvc: p.SubscriptionSvc,
		creditsvc:       p.CreditSvc,
		invoicesvc:      p.InvoiceSvc,
		paymentsvc:      p.PaymentSvc,
	}
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/plans", s.CreatePlan)
	v1.GET("/plans", s.ListPlans)
	v1.GET("/plans/:plan_id", s.GetPlan)
	v1.DELETE("/plans/:plan_id", s.DeactivatePlan)

	tenants := v1.Group("/tenants/:tenant_id")
	tenants.GET("/subscription", s.GetSubscription)
	tenants.PUT("/subscription", s.ReplaceSubscription)
	tenants.POST("/usage", s.RecordUsage)
	tenants.GET("/credits", s.GetCreditBalances)
	tenants.POST("/credits/topup-orders", s.CreateTopUpOrder)
	tenants.GET("/invoices", s.ListInvoices)
	tenants.GET("/invoices/:invoice_id", s.GetInvoice)
	tenants.POST("/invoices/preview", s.PreviewInvoice)
	tenants.POST("/invoices/generate", s.GenerateInvoice)

	v1.POST("/invoices/:invoice_id/pay", s.MarkInvoicePaid)
	v1.POST("/invoices/:invoice_id/void", s.VoidInvoice)

	v1.POST("/admin/activate-subscriptions", s.ActivateSubscriptions)
	v1.POST("/webhooks/payment", s.PaymentWebhook)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
