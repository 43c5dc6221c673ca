package main

import (
	"nullid/internal/app/worker"
	"nullid/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	fn, err := worker.NewWorker(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to create function runtime")
	}

	if err := fn.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Str("function", cfg.Function.Name).Msg("Function runtime stopped")
	}
	zlog.Logger.Info().Str("function", cfg.Function.Name).Msg("Function runtime exited")
}
