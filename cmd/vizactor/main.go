package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"vizactor/actor"
	"vizactor/artifacts"
	"vizactor/config"
	"vizactor/engine"
	"vizactor/eventbus"
	"vizactor/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := &engine.SimpleLogger{}

	store, err := artifacts.NewStore(cfg.RedisURL, 0)
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}
	defer store.Close()
	if store.Enabled() {
		logger.Printf("🗄️  Artifact persistence enabled (%s)", cfg.RedisURL)
	}

	var bus *eventbus.NATSBus
	if cfg.NATSURL != "" {
		bus, err = eventbus.NewNATSBus(eventbus.NATSConfig{URL: cfg.NATSURL})
		if err != nil {
			log.Fatalf("event bus: %v", err)
		}
		defer bus.Close()
		logger.Printf("📡 Run events enabled (%s)", cfg.NATSURL)
	}

	deps := actor.Deps{Store: store, Bus: bus, Log: logger}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Serve {
		svc := service.New(cfg, deps)
		svc.Start(ctx)
		logger.Printf("🌐 Run service listening on %s", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, svc.Router()); err != nil {
			log.Fatalf("http server error: %v", err)
		}
		return
	}

	runID := uuid.New().String()
	result, err := actor.Run(ctx, runID, cfg, deps)
	if err != nil {
		log.Fatalf("run %s aborted: %v", runID, err)
	}
	if result.Status != engine.StatusSuccess {
		logger.Errorf("run %s finished without an artifact", runID)
		os.Exit(1)
	}
	logger.Printf("🎉 Run %s succeeded: %s", runID, result.ExportedArtifactPath)
}
