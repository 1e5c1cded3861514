package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mohit83k/radius-bridge/internal/config"
	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
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
		panic("failed to init logger: " + err.Error())
	}

	store := redisclient.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer store.Close()

	pubsub := store.Client().PSubscribe(ctx, "__keyevent@*__:set")
	log.Info("Started Redis subscriber for SET events")

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down Redis subscriber")
			_ = pubsub.Close()
			return

		case msg := <-pubsub.Channel():
			if !redisclient.IsAccountingKey(msg.Payload, cfg.AccountingKeyPrefix) {
				continue
			}

			log.WithFields(map[string]any{
				"timestamp": time.Now().Format("2006-01-02 15:04:05.000000"),
				"key":       msg.Payload,
				"username":  msg.Payload[len(cfg.AccountingKeyPrefix):],
			}).Info("Received update for RADIUS accounting key")
		}
	}
}
