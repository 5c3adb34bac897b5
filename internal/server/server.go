package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/feeledger/internal/audit/domain"
	"github.com/smallbiznis/feeledger/internal/config"
	paymentdomain "github.com/smallbiznis/feeledger/internal/payment/domain"
	studentdomain "github.com/smallbiznis/feeledger/internal/student/domain"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	voucherSvc voucherdomain.Service
	paymentSvc paymentdomain.Service
	auditSvc   auditdomain.Service
	students   studentdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	VoucherSvc voucherdomain.Service
	PaymentSvc paymentdomain.Service
	AuditSvc   auditdomain.Service
	Students   studentdomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		voucherSvc: p.VoucherSvc,
		paymentSvc: p.PaymentSvc,
		auditSvc:   p.AuditSvc,
		students:   p.Students,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Vouchers --------
	v1.POST("/vouchers", s.IssueVoucher)
	v1.POST("/vouchers/generate", s.GenerateVouchers)
	v1.GET("/vouchers/:id", s.GetVoucherByID)
	v1.POST("/vouchers/:id/cancel", s.CancelVoucher)
	v1.POST("/vouchers/:id/waive", s.WaiveVoucher)

	// -------- Payments --------
	v1.POST("/vouchers/:id/payments", s.RecordPayment)
	v1.GET("/vouchers/:id/payments", s.ListVoucherPayments)

	// -------- Students --------
	v1.GET("/students/:id", s.GetStudentByID)
	v1.GET("/students/:id/vouchers", s.ListStudentVouchers)

	// -------- Audit --------
	v1.GET("/audit-logs", s.ListAuditLogs)
}
