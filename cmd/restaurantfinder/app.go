package main

import (
	"go.uber.org/zap"

	"restaurantfinder/internal/config"
	"restaurantfinder/internal/geodata"
	"restaurantfinder/internal/logging"
	"restaurantfinder/internal/metrics"
	"restaurantfinder/internal/storage"
)

// app carries the shared dependencies of every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *storage.DB
	tables  *geodata.Tables
	metrics *metrics.Registry
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	tables, err := geodata.Load()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, db: db, tables: tables, metrics: metrics.NewRegistry()}, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	_ = a.metrics.WriteTextfile(a.cfg.MetricsPath)
	_ = a.logger.Sync()
	_ = a.db.Close()
}
