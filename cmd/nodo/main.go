package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pcd-recommender/internal/config"
	"pcd-recommender/internal/dataset"
	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/node"
	"pcd-recommender/internal/recommender"
)

func main() {
	// PORT (o NODE_PORT) permite levantar varios nodos en la misma máquina
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("error cargando configuración")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := recommender.Load(ctx, dataset.Files{
		CreditsPath: cfg.Data.CreditsPath,
		MoviesPath:  cfg.Data.MoviesPath,
	},
		recommender.WithTopN(cfg.Engine.TopN),
		recommender.WithWorkers(cfg.Engine.Workers),
		recommender.WithQualityPercentile(cfg.Engine.QualityPercentile),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("no se pudo construir el motor")
	}

	srv := node.NewServer(fmt.Sprintf(":%d", cfg.Node.Port), engine, cfg.Node.Timeout)
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("nodo terminó con error")
	}
	logging.Info().Msg("nodo detenido")
}
