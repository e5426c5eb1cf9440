package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/checkout"
	"github.com/ahinestrog/bookmarket/internal/config"
	"github.com/ahinestrog/bookmarket/internal/httpapi"
	"github.com/ahinestrog/bookmarket/internal/order"
	"github.com/ahinestrog/bookmarket/internal/rabbit"
	"github.com/ahinestrog/bookmarket/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.Load()
	if cfg.ServiceEnv == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := storage.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("migrate")
	}
	cancel()

	// El broker es opcional: sin él los eventos se descartan.
	events, err := rabbit.Connect(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		log.Warn().Err(err).Msg("rabbit unavailable, events disabled")
		events = nil
	}
	defer events.Close()

	books := catalog.NewRepository(db)
	accounts := account.NewRepository(db)
	orders := order.NewRepository(db)
	coordinator := checkout.New(db, books, accounts, orders, events)

	srv := httpapi.New(cfg, books, accounts, orders, coordinator, events)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("bookmarket listening")
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
