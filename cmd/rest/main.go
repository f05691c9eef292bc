package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"pharmarag-chat/internal/bootstrap"
	"pharmarag-chat/internal/config"
	"pharmarag-chat/internal/server"
	"pharmarag-chat/internal/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	// 3. Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, container.Logger)
	defer shutdownTracer(context.Background())

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	if err := container.RelayService.Consume(ctx); err != nil {
		container.Logger.Error("MAIN", "Failed to start event relay", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			container.Logger.Error("MAIN", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
