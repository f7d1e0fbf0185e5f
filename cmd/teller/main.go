package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99minutos/bank-teller/internal/api"
	"github.com/99minutos/bank-teller/internal/api/handler"
	"github.com/99minutos/bank-teller/internal/bank"
	"github.com/99minutos/bank-teller/internal/pkg/config"
	"github.com/99minutos/bank-teller/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := bank.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build bank")
	}

	b.Dispatcher.Start(ctx)
	go b.Scheduler.Run(ctx)

	checks := make(map[string]handler.Check, len(b.Checks))
	for name, check := range b.Checks {
		checks[name] = handler.Check(check)
	}
	e := api.NewRouter(api.Deps{Teller: b.Accounts, Interest: b.Interest, Checks: checks}, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("teller listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	b.Dispatcher.Wait()
	if err := b.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close backends")
	}
}
