package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusassist/internal/api"
	"campusassist/internal/config"
	"campusassist/internal/extract"
	"campusassist/internal/registry"
	"campusassist/internal/remote"
	"campusassist/internal/session"
)

func main() {
	cfgPath := os.Getenv("CAMPUS_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	client := remote.New(remote.Options{
		BaseURL:    cfg.Remote.BaseURL,
		Fallback:   cfg.Remote.OfflineFallback,
		HTTPClient: &http.Client{Timeout: cfg.Remote.HTTPTimeout.Std()},
		Logger:     logger.Named("remote"),
	})
	extractor := extract.NewPDFExtractor(extract.LedongthucLoader, logger.Named("extract"))

	sessions := registry.New(func(id string) *session.Session {
		return session.New(session.Options{
			ID:            id,
			Extractor:     extractor,
			Remote:        client,
			Logger:        logger.Named("session"),
			SummaryLength: cfg.Session.SummaryMaxLength,
		})
	}, cfg.Session.TTL.Std(), logger.Named("registry"))

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	sessions.StartJanitor(janitorCtx, cfg.Session.JanitorInterval.Std())

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.BasicConfig.AllowedOrigins
	router.Use(cors.New(corsCfg))

	handlers := api.NewHandler(sessions, cfg.BasicConfig.MaxUploadBytes, logger.Named("api"))
	handlers.RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.BasicConfig.ServerAddress,
		Handler: router,
	}
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.BasicConfig.ServerAddress),
			zap.String("remote", cfg.Remote.BaseURL),
			zap.Bool("offline_fallback", cfg.Remote.OfflineFallback))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
