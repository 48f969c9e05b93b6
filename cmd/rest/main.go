package main

import (
	"context"
	"log"

	"ai-filesearch-be/internal/bootstrap"
	"ai-filesearch-be/internal/config"
	"ai-filesearch-be/internal/server"
	"ai-filesearch-be/internal/tracer"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Poller.Teardown()
	defer container.WebSocketHub.Teardown()

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Analytics Forwarder...")
		if err := container.Forwarder.Consume(context.Background()); err != nil {
			log.Printf("Background Forwarder Error: %v", err)
		}
	}()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
