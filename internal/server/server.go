package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	auditdomain "github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/cache"
	claimdomain "github.com/Sourasish2503/churn-buster-v9/internal/claim/domain"
	companydomain "github.com/Sourasish2503/churn-buster-v9/internal/company/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/config"
	ledgerdomain "github.com/Sourasish2503/churn-buster-v9/internal/ledger/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/observability/logger"
	"github.com/Sourasish2503/churn-buster-v9/internal/observability/metrics"
	"github.com/Sourasish2503/churn-buster-v9/internal/platform"
	"github.com/Sourasish2503/churn-buster-v9/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	Claim      claimdomain.Service
	Ledger     ledgerdomain.Service
	Company    companydomain.Service
	Audit      auditdomain.Service
	Dispatcher *webhook.Dispatcher
	Platform   platform.Client
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	claimSvc   claimdomain.Service
	ledgerSvc  ledgerdomain.Service
	companySvc companydomain.Service
	auditSvc   auditdomain.Service
	dispatcher *webhook.Dispatcher
	platform   platform.Client

	claimLimiter *rateLimiter
	accessCache  cache.Cache[string, platform.AccessResult]
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:          p.Config,
		log:          p.Log.Named("server"),
		db:           p.DB,
		claimSvc:     p.Claim,
		ledgerSvc:    p.Ledger,
		companySvc:   p.Company,
		auditSvc:     p.Audit,
		dispatcher:   p.Dispatcher,
		platform:     p.Platform,
		claimLimiter: newRateLimiter(30, time.Minute),
		accessCache:  cache.NewTTLCache[string, platform.AccessResult](),
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

// RegisterRoutes attaches every route to the engine.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.POST("/webhooks/platform", s.HandlePlatformWebhook)

	authed := api.Group("")
	authed.Use(s.UserRequired())
	authed.POST("/claims", s.ClaimOffer)

	companies := authed.Group("/companies/:company_id")
	companies.Use(s.CompanyAccessRequired())
	companies.GET("/stats", s.CompanyStats)
	companies.GET("/checkout", s.CheckoutLink)
	companies.GET("/config", s.GetCompanyConfig)
	companies.GET("/logs", s.ListCompanyLogs)

	admin := companies.Group("")
	admin.Use(s.AdminRequired())
	admin.PUT("/config", s.UpdateCompanyConfig)
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine, s *Server) {
	s.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)
