package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"pcd-recommender/internal/api"
	"pcd-recommender/internal/config"
	"pcd-recommender/internal/dataset"
	"pcd-recommender/internal/logging"
	"pcd-recommender/internal/recommender"
	"pcd-recommender/pkg/database"
)

func main() {
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

	// --------------------------------------------------
	// Motor (se construye una sola vez)
	// --------------------------------------------------

	logging.Info().Str("credits", cfg.Data.CreditsPath).Str("movies", cfg.Data.MoviesPath).
		Msg("cargando datos de TMDB")

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

	// --------------------------------------------------
	// Supervisor
	// --------------------------------------------------

	sup := suture.New("pcd-recommender", suture.Spec{
		EventHook:        logEvent,
		FailureThreshold: 5,
		FailureBackoff:   5 * time.Second,
		Timeout:          cfg.Server.ShutdownTimeout,
	})

	var opts []api.HandlerOption

	// --------------------------------------------------
	// Conexión a MongoDB (opcional)
	// --------------------------------------------------

	if cfg.Mongo.Enabled {
		logging.Info().Str("uri", cfg.Mongo.URI).Msg("conectando a MongoDB")
		store, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("error conectando a MongoDB")
		}
		defer store.Close(context.Background())

		saveBuildLog(ctx, store, engine, cfg.Engine.Workers)

		writer := database.NewHistoryWriter(store, cfg.Mongo.QueueSize, cfg.Mongo.BreakerTrip)
		sup.Add(writer)
		opts = append(opts, api.WithHistory(writer))
	}

	if len(cfg.Node.Addresses) > 0 {
		logging.Info().Strs("nodos", cfg.Node.Addresses).Msg("modo remoto: las consultas se reenvían a los nodos")
		opts = append(opts, api.WithForwarder(api.NewNodePool(cfg.Node.Addresses, cfg.Node.Timeout)))
	}

	// --------------------------------------------------
	// Servidor HTTP
	// --------------------------------------------------

	router := api.NewRouter(api.NewHandler(engine, opts...), api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	sup.Add(api.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Addr()).Msg("API escuchando")

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor terminó con error")
	}
	logging.Info().Msg("API detenida")
}

func saveBuildLog(ctx context.Context, store *database.Store, engine *recommender.Recommender, workers int) {
	stats, err := engine.Stats()
	if err != nil {
		return
	}
	host, _ := os.Hostname()
	doc := database.LogDocument{
		Host:       host,
		Movies:     stats.Movies,
		Vocabulary: stats.Vocabulary,
		Qualified:  stats.Qualified,
		Workers:    workers,
		LatencyMS:  stats.BuildDuration.Milliseconds(),
		Timestamp:  stats.BuiltAt.UTC(),
	}
	if err := store.SaveBuildLog(ctx, doc); err != nil {
		logging.Warn().Err(err).Msg("no se pudo guardar el log de construcción")
	}
}

func logEvent(e suture.Event) {
	logging.Warn().Fields(e.Map()).Msg(e.String())
}
