package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"launchpad/internal/client/governance"
	"launchpad/internal/config"
	cronrunner "launchpad/internal/cron"
	"launchpad/internal/db"
	"launchpad/internal/handler"
	"launchpad/internal/logger"
	gormrepository "launchpad/internal/repository/gorm"
	"launchpad/internal/service"
	"launchpad/internal/treasury"

	_ "launchpad/docs"
)

func main() {
	cfgPath := os.Getenv("LP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("LP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	bank := treasury.New(dbConn.Gorm)
	clock := service.RealClock()

	govHTTP := &http.Client{Timeout: cfg.Governance.Timeout}
	govClient := governance.NewClient(govHTTP, cfg.Governance.BaseURL)

	registrySvc := &service.RegistryService{
		Repo:        store,
		Treasury:    bank,
		Governance:  govClient,
		Clock:       clock,
		Logger:      logger,
		TopUpPolicy: cfg.Launchpad.TopUpPolicy,
	}
	engineSvc := &service.EngineService{
		Repo:     store,
		Treasury: bank,
		Clock:    clock,
		Logger:   logger,
	}
	settlementSvc := &service.SettlementService{
		Repo:       store,
		Treasury:   bank,
		Governance: govClient,
		Clock:      clock,
		Logger:     logger,
	}
	querySvc := &service.QueryService{Repo: store, Clock: clock}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	saleHandler := &handler.SaleHandler{
		Registry:   registrySvc,
		Engine:     engineSvc,
		Settlement: settlementSvc,
		Logger:     logger,
	}
	saleHandler.Register(engine)
	queryHandler := &handler.QueryHandler{Query: querySvc}
	queryHandler.Register(engine)
	accountHandler := &handler.AccountHandler{Treasury: bank, Logger: logger}
	accountHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.SettlementSweep, func(ctx context.Context) {
			views, total, err := querySvc.ListEndedUnsettled(ctx, 50, 0)
			if err != nil {
				logger.Warn("settlement sweep failed", zap.Error(err))
				return
			}
			if total == 0 {
				return
			}
			ids := make([]uint64, 0, len(views))
			for _, v := range views {
				ids = append(ids, v.ID)
			}
			logger.Info("sales awaiting settlement",
				zap.Int64("total", total),
				zap.Uint64s("sale_ids", ids),
			)
		})
		if err != nil {
			logger.Warn("cron register settlement sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
