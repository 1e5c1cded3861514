package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/mohit83k/radius-bridge/internal/bridge"
	"github.com/mohit83k/radius-bridge/internal/config"
	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/monitor"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
	"github.com/mohit83k/radius-bridge/internal/server"
	"github.com/mohit83k/radius-bridge/internal/session"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		panic(err.Error())
	}

	log, err := logger.NewLogrusLogger(cfg.LogFilePath, cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	redisStore := redisclient.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer redisStore.Close()
	store := redisclient.WithPackageCache(redisStore, cfg.PackageCacheTTL)

	registry := session.NewRegistry()
	b := bridge.New(store, registry, log)

	sessionMonitor := monitor.New(store, b.Enforcer, log, cfg.MonitorInterval, cfg.MonitorErrorBackoff)
	go sessionMonitor.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	httpServer := server.NewServer(cfg.HTTPAddr, b, store, log, cfg.ShutdownTimeout)

	exitCode := 0
	if err := httpServer.ListenAndServe(ctx); err != nil {
		log.Error(err)
		exitCode = 1
	}
	cancel()

	select {
	case <-sessionMonitor.Done():
	case <-time.After(cfg.ShutdownTimeout):
		log.Warn("Session monitor did not stop within the shutdown timeout")
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
