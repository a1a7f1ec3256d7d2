package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"restaurantfinder/internal/build"
	"restaurantfinder/internal/config"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/logging"
	"restaurantfinder/internal/metrics"
	"restaurantfinder/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer logger.Sync()

	tables, err := geodata.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := build.NewService(db, cfg, tables, logger, metrics.NewRegistry())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := svc.Run(ctx, build.Options{})
	must(err)
	logger.Info("dataset ready", zap.String("trace_id", res.TraceID), zap.String("output", res.Output))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
