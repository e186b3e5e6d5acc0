package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/tkachv/parley/internal/adapters/http"
	"github.com/tkachv/parley/internal/adapters/bridge"
	"github.com/tkachv/parley/internal/adapters/platform/chatrest"
	platform "github.com/tkachv/parley/internal/adapters/platform/webrtc"
	"github.com/tkachv/parley/internal/app"
	"github.com/tkachv/parley/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	callEngine := platform.NewEngine(cfg.STUNServers, cfg.Cameras)
	chatEngine := chatrest.NewEngine()

	coordinator := app.NewCallCoordinator(callEngine)
	chat := app.NewChatManager(chatEngine)
	ctl := bridge.NewController(coordinator, chat)

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("parley server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// Best effort: a live call should not outlive the process.
	endCtx, endCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := coordinator.EndCall(endCtx); err == nil {
		log.Info().Msg("active call ended")
	}
	endCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
