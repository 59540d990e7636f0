package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/barbot/internal/client/api"
	"github.com/dmitrijs2005/barbot/internal/client/cli"
	"github.com/dmitrijs2005/barbot/internal/client/config"
	"github.com/dmitrijs2005/barbot/internal/termx"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	client := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	app := cli.NewApp(client, termx.NewPrompter(os.Stdin, os.Stdout))

	app.Run(ctx)

}
