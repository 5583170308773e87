// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/stockscope/ai"
	"github.com/poiesic/stockscope/ai/openai"
	"github.com/poiesic/stockscope/api"
	"github.com/poiesic/stockscope/checkpoint"
	"github.com/poiesic/stockscope/config"
	"github.com/poiesic/stockscope/index"
	badgerindex "github.com/poiesic/stockscope/index/badger"
	"github.com/poiesic/stockscope/index/pinecone"
	"github.com/poiesic/stockscope/ingestion"
	"github.com/poiesic/stockscope/marketdata/yahoo"
	"github.com/poiesic/stockscope/metrics"
	"github.com/poiesic/stockscope/retrieval"
	"github.com/poiesic/stockscope/universe"
)

func main() {
	// Missing .env is fine; secrets may come from the real environment.
	godotenv.Load()

	app := &cli.App{
		Name:  "stockscope",
		Usage: "Stock exploration over a vector index of company summaries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "stockscope.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest the ticker universe into the vector index",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tickers",
						Usage: "Comma-separated symbols to ingest instead of the full universe",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the query API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address, overriding the config file",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	store, err := checkpoint.Open(cfg.Ingest.SuccessLog, cfg.Ingest.FailureLog, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	idx, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	provider, err := openai.NewProvider(buildAIConfig(cfg))
	if err != nil {
		return err
	}
	defer provider.Close()

	var source universe.Source
	if tickers := c.String("tickers"); tickers != "" {
		source = universe.NewStaticSource(strings.Split(tickers, ",")...)
	} else {
		source = universe.NewSECSource(cfg.Ingest.UniverseCache)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	pipeline, err := ingestion.NewPipeline(
		source,
		yahoo.NewFetcher(),
		provider.Embedder(),
		idx,
		store,
		ingestion.WithPoolSize(cfg.Ingest.PoolSize),
		ingestion.WithNamespace(cfg.Index.Namespace),
		ingestion.WithCallTimeout(time.Duration(cfg.Ingest.CallTimeoutSecs)*time.Second),
		ingestion.WithObserver(m.ObserveOutcome),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	counts := make(map[ingestion.Status]int)
	for _, outcome := range outcomes {
		counts[outcome.Status]++
	}
	fmt.Printf("ingested %d symbols: %d succeeded, %d failed, %d skipped\n",
		len(outcomes),
		counts[ingestion.StatusSuccess],
		counts[ingestion.StatusFailure],
		counts[ingestion.StatusSkipped])
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if flagAddr := c.String("addr"); flagAddr != "" {
		addr = flagAddr
	}

	idx, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	provider, err := openai.NewProvider(buildAIConfig(cfg))
	if err != nil {
		return err
	}
	defer provider.Close()

	assembler, err := retrieval.NewAssembler(provider.Embedder(), idx,
		retrieval.WithNamespace(cfg.Index.Namespace))
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	server, err := api.NewServer(provider.QueryExtractor(), assembler, api.WithMetrics(m))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildAIConfig(cfg *config.AppConfig) *ai.Config {
	token := os.Getenv(cfg.AI.TokenEnv)
	if token == "" {
		token = "none"
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithExtractorHost(cfg.AI.ExtractorHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithExtractorModel(cfg.AI.ExtractorModel),
		ai.WithToken(token),
	)
}

func buildIndex(cfg *config.AppConfig) (index.Index, error) {
	switch cfg.Index.Backend {
	case "pinecone":
		return pinecone.NewClient(pinecone.Config{
			Host:    cfg.Index.Pinecone.Host,
			APIKey:  os.Getenv(cfg.Index.Pinecone.APIKeyEnv),
			Timeout: time.Duration(cfg.Index.Pinecone.TimeoutSecs) * time.Second,
		})
	case "badger":
		return badgerindex.Open(cfg.Index.Badger.Path, false, nil)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
