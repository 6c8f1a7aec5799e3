// gatewayd serves the command gateway over HTTP for shells configured
// with a remote backend.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wolfquant/internal/backend"
	"wolfquant/internal/config"
	"wolfquant/internal/gateway/httpgw"
	"wolfquant/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.Env)
	defer logger.Sync()
	log := logger.Get()

	db, err := backend.OpenDatabase(cfg)
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}

	b := backend.New(db, cfg)

	scheduler, err := backend.NewScheduler(b)
	if err != nil {
		log.Fatalw("failed to build scheduler", "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpgw.NewRouter(b),
	}

	go func() {
		log.Infow("gatewayd listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
}
