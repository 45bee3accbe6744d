package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/carelink/mission-service/internal/app/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the service config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "upper bound for the whole run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	runtime, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap sweep runtime: %v", err)
	}
	if err := runtime.RunSweepOnce(ctx); err != nil {
		log.Fatalf("run sweep: %v", err)
	}
}
