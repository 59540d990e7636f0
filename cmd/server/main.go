package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server"
	"github.com/dmitrijs2005/barbot/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
