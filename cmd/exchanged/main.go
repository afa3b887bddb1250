package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ladderbook/internal/config"
	"ladderbook/internal/engine"
	"ladderbook/internal/server"
	"ladderbook/internal/store"
	"ladderbook/internal/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level")
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger().Level(level)

	ex := engine.NewExchange(logger)
	for _, symbol := range cfg.Symbols {
		ex.RegisterSymbol(symbol)
		logger.Info().Str("symbol", symbol).Msg("registered symbol")
	}

	var tradeStore *store.TradeStore
	var orderStore *store.OrderStore
	if cfg.StorePath != "" {
		tradeStore, err = store.NewFileBackedTradeStore(cfg.StorePath, true, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.StorePath).Msg("failed to open trade store")
		}
		logger.Info().Int("count", tradeStore.Count()).Msg("trade store ready")

		orderPath := filepath.Join(filepath.Dir(cfg.StorePath), "orders"+filepath.Ext(cfg.StorePath))
		orderStore, err = store.NewFileBackedOrderStore(orderPath, true, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("path", orderPath).Msg("failed to open order store")
		}
		logger.Info().Int("count", orderStore.Count()).Msg("order store ready")
	}

	feed := ws.NewFeed(logger)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/feed", feed)
		if err := http.ListenAndServe(":9002", mux); err != nil {
			logger.Error().Err(err).Msg("market data feed exited")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv := server.New(cfg.Address, cfg.Port, cfg.Workers, ex, logger).WithFeed(feed)
	if tradeStore != nil {
		srv = srv.WithRecorder(tradeStore)
	}
	if orderStore != nil {
		srv = srv.WithOrderRecorder(orderStore)
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}
}
