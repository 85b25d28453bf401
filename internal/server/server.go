package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	admindomain "github.com/veilcrypt/licensed/internal/admin/domain"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/auth/token"
	"github.com/veilcrypt/licensed/internal/config"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
	obslogger "github.com/veilcrypt/licensed/internal/observability/logger"
	obsmetrics "github.com/veilcrypt/licensed/internal/observability/metrics"
	stubdomain "github.com/veilcrypt/licensed/internal/stub/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	tokens     *token.Manager
	authSvc    authdomain.Service
	licenseSvc licensedomain.Service
	adminSvc   admindomain.Service
	stubSvc    stubdomain.Service
}

type Params struct {
	fx.In

	Engine     *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Tokens     *token.Manager
	AuthSvc    authdomain.Service
	LicenseSvc licensedomain.Service
	AdminSvc   admindomain.Service
	StubSvc    stubdomain.Service
}

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func NewServer(p Params) *Server {
	return &Server{
		engine:     p.Engine,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("server"),
		tokens:     p.Tokens,
		authSvc:    p.AuthSvc,
		licenseSvc: p.LicenseSvc,
		adminSvc:   p.AdminSvc,
		stubSvc:    p.StubSvc,
	}
}

// RegisterRoutes wires the API surface.
func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/refresh", s.AuthRequired(), s.Refresh)
	auth.GET("/me", s.AuthRequired(), s.Me)

	license := api.Group("/license")
	license.POST("/validate", s.ValidateLicense)
	license.POST("/process", s.ProcessCrypt)
	license.POST("/create", s.AuthRequired(), s.CreateLicense)
	license.GET("/mine", s.AuthRequired(), s.ListMyLicenses)
	license.GET("/usage/:key", s.AuthRequired(), s.LicenseHistory)
	license.GET("/stub-info", s.AuthRequired(), s.StubInfo)

	admin := api.Group("/admin", s.AuthRequired(), RequireAdmin())
	admin.GET("/users", s.ListUsers)
	admin.GET("/licenses", s.ListLicenses)
	admin.POST("/revoke/:key", s.RevokeLicense)
	admin.GET("/stats", s.AdminStats)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
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

// Module wires the HTTP transport.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)
