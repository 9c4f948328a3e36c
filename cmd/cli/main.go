package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/docsum/internal/buildinfo"
	"github.com/dmitrijs2005/docsum/internal/client/cli"
	"github.com/dmitrijs2005/docsum/internal/client/config"
	"github.com/dmitrijs2005/docsum/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "docsum exited with error", "error", err)
		os.Exit(1)
	}
}
