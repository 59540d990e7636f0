package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/barbot/internal/admincli"
	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/auth"
	"github.com/dmitrijs2005/barbot/internal/server/config"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/barbot/internal/server/services"
	"github.com/dmitrijs2005/barbot/internal/termx"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "barbotctl:", err)
		if errors.Is(err, admincli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	global, command, err := admincli.SplitGlobalArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(global)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(os.Stderr, "warn")

	rm, err := repomanager.New(cfg.DatabaseDSN, repomanager.WithLogger(logger))
	if err != nil {
		return err
	}
	defer rm.Close()

	if err := rm.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// barbotctl never issues tokens; the service still needs an issuer.
	tokens, err := auth.NewTokenService(common.GenerateRandByteArray(32), cfg.AccessTokenValidityDuration)
	if err != nil {
		return err
	}

	us, err := services.NewUserService(rm, auth.NewPasswordHasher(cfg.BcryptCost), tokens, logger)
	if err != nil {
		return err
	}

	return admincli.NewApp(us, termx.NewPrompter(os.Stdin, os.Stdout)).Run(ctx, command)
}
