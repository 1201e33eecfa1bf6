package main

import (
	"context"
	"log"

	"github.com/verdantlab/floraid/internal/server"
	"github.com/verdantlab/floraid/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
