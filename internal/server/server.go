package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/musichub/musichub/internal/analytics"
	analyticsdomain "github.com/musichub/musichub/internal/analytics/domain"
	"github.com/musichub/musichub/internal/catalog"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"github.com/musichub/musichub/internal/config"
	"github.com/musichub/musichub/internal/identity"
	identitydomain "github.com/musichub/musichub/internal/identity/domain"
	"github.com/musichub/musichub/internal/observability"
	obsmiddleware "github.com/musichub/musichub/internal/observability/logger"
	obsmetrics "github.com/musichub/musichub/internal/observability/metrics"
	obstracing "github.com/musichub/musichub/internal/observability/tracing"
	"github.com/musichub/musichub/internal/purchase"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
	"github.com/musichub/musichub/internal/ratelimit"
	"github.com/musichub/musichub/internal/stream"
	streamdomain "github.com/musichub/musichub/internal/stream/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	catalog.Module,
	identity.Module,
	purchase.Module,
	stream.Module,
	analytics.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
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

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	identitySvc  identitydomain.Service
	catalogSvc   catalogdomain.Service
	purchaseSvc  purchasedomain.Service
	streamSvc    streamdomain.Service
	analyticsSvc analyticsdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	IdentitySvc  identitydomain.Service
	CatalogSvc   catalogdomain.Service
	PurchaseSvc  purchasedomain.Service
	StreamSvc    streamdomain.Service
	AnalyticsSvc analyticsdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		identitySvc:  p.IdentitySvc,
		catalogSvc:   p.CatalogSvc,
		purchaseSvc:  p.PurchaseSvc,
		streamSvc:    p.StreamSvc,
		analyticsSvc: p.AnalyticsSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Auth --------
	api.POST("/auth/register", s.Register)
	api.POST("/auth/login", s.Login)

	// -------- Songs --------
	api.POST("/songs", s.BearerRequired(), s.RequireRole(identitydomain.RoleArtist), s.CreateSong)
	api.GET("/songs", s.ListSongs)
	api.GET("/songs/:id", s.GetSongByID)

	// -------- Payments --------
	api.POST("/payments", s.BearerRequired(), s.RequireRole(identitydomain.RoleUser), s.CreatePayment)
	api.GET("/payments", s.BearerRequired(), s.RequireRole(identitydomain.RoleUser), s.ListPayments)

	// -------- Library --------
	api.GET("/user/library", s.BearerRequired(), s.RequireRole(identitydomain.RoleUser), s.GetLibrary)

	// -------- Streams --------
	// Ingest stays public so anonymous plays count; abuse control is the
	// redis token bucket inside the stream service.
	api.POST("/streams", s.IngestStream)
	api.GET("/streams/analytics", s.BearerRequired(), s.GetStreamAnalytics)

	// -------- Artist analytics --------
	api.GET("/artist/analytics", s.BearerRequired(), s.RequireRole(identitydomain.RoleArtist), s.GetArtistAnalytics)
}
