// shell runs the application shell headless: embedded backend by default,
// remote gateway when GATEWAY_URL is set. The frontend process attaches to
// the App components; run standalone this keeps the scheduler and pollers
// alive until interrupted.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"wolfquant/internal/app"
	"wolfquant/internal/config"
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

	var shell *app.App
	if baseURL := os.Getenv("GATEWAY_URL"); baseURL != "" {
		shell = app.NewRemote(cfg, baseURL)
		log.Infow("shell started", "gateway", baseURL)
	} else {
		shell, err = app.NewEmbedded(cfg)
		if err != nil {
			log.Fatalw("failed to start embedded backend", "error", err)
		}
		log.Infow("shell started", "gateway", "embedded", "db", cfg.DBPath)
	}

	shell.Start()
	defer shell.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
}
