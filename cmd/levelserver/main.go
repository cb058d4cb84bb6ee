package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/dungen/internal/app"
	"github.com/lawnchairsociety/dungen/internal/config"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/server"
)

func main() {
	configFile := flag.String("config", config.DefaultPath, "Path to config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	addr := flag.String("addr", "", "Listen address (overrides the config)")
	offline := flag.Bool("offline", false, "Infer from keywords instead of asking the language model")
	noDB := flag.Bool("no-db", false, "Do not record generations in the database")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	a, err := app.New(cfg, app.Options{Offline: *offline, NoDatabase: *noDB})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewLevelServer(a.Pipeline, a.History(), cfg.Server)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("Level server failed", "error", err)
		a.Close()
		os.Exit(1)
	}
	logger.Always("Level server stopped")
}
