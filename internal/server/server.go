package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	artifactdomain "github.com/interiohub/interio/internal/artifact/domain"
	"github.com/interiohub/interio/internal/clock"
	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/generation"
	jobdomain "github.com/interiohub/interio/internal/job/domain"
	ledgerdomain "github.com/interiohub/interio/internal/ledger/domain"
	"github.com/interiohub/interio/internal/observability/logger"
	"github.com/interiohub/interio/internal/observability/metrics"
	"github.com/interiohub/interio/internal/observability/tracing"
	paymentdomain "github.com/interiohub/interio/internal/payment/domain"
	"github.com/interiohub/interio/internal/storage"
	"github.com/interiohub/interio/internal/style"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Clock       clock.Clock
	LedgerSvc   ledgerdomain.Service
	PaymentSvc  paymentdomain.Service
	JobSvc      jobdomain.Service
	ArtifactSvc artifactdomain.Service
	Gate        *generation.Gate
	Styles      *style.Catalog
	Storage     storage.Storage
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	clock       clock.Clock
	ledgerSvc   ledgerdomain.Service
	paymentSvc  paymentdomain.Service
	jobSvc      jobdomain.Service
	artifactSvc artifactdomain.Service
	gate        *generation.Gate
	styles      *style.Catalog
	storage     storage.Storage
	httpMetrics *metrics.HTTPMetrics
	jwtSecret   []byte
	limiter     *rateLimiter
}

func NewServer(p Params) *Server {
	var limiter *rateLimiter
	if p.Cfg.Server.GenerateRateLimit > 0 {
		limiter = newRateLimiter(p.Cfg.Server.GenerateRateLimit, time.Minute)
	}
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		clock:       p.Clock,
		ledgerSvc:   p.LedgerSvc,
		paymentSvc:  p.PaymentSvc,
		jobSvc:      p.JobSvc,
		artifactSvc: p.ArtifactSvc,
		gate:        p.Gate,
		styles:      p.Styles,
		storage:     p.Storage,
		httpMetrics: p.HTTPMetrics,
		jwtSecret:   []byte(strings.TrimSpace(p.Cfg.Auth.JWTSecret)),
		limiter:     limiter,
	}
}

// NewEngine builds the gin engine with middleware and routes.
func NewEngine(s *Server) *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(tracing.GinMiddleware())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz", "/metrics"}}))
	r.Use(metrics.GinMiddleware(s.httpMetrics))
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/styles", s.ListStyles)
	r.GET("/api/download", s.Download)

	// The gateway calls back without a bearer token; the signature authenticates it.
	r.POST("/robokassa/result", s.RobokassaResult)
	r.GET("/robokassa/result", s.RobokassaResult)

	authed := r.Group("/", s.AuthRequired())
	authed.GET("/billing/balance", s.GetBalance)
	authed.POST("/billing/purchase", s.Purchase)
	authed.POST("/robokassa/create-payment", s.CreatePayment)
	authed.POST("/upload", s.Upload)
	authed.POST("/generate", s.Generate)
	authed.GET("/generate/status/:id", s.JobStatus)
	authed.GET("/jobs/:id", s.JobStatus)
}

// RunHTTP serves the engine for the lifetime of the fx app.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
