package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/VoiceCall/internal/adapters/auth"
	"github.com/dkeye/VoiceCall/internal/adapters/directory"
	router "github.com/dkeye/VoiceCall/internal/adapters/http"
	"github.com/dkeye/VoiceCall/internal/adapters/rtc"
	sig "github.com/dkeye/VoiceCall/internal/adapters/signal"
	"github.com/dkeye/VoiceCall/internal/app"
	"github.com/dkeye/VoiceCall/internal/app/orch"
	"github.com/dkeye/VoiceCall/internal/config"
	"github.com/dkeye/VoiceCall/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open user directory")
	}
	defer closeDir.Close()

	tokens, err := auth.NewTokens(cfg.Secret, auth.DefaultTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tokens")
	}
	var resolver auth.Resolver = auth.TrustResolver{}
	if cfg.AuthMode == "token" {
		resolver = tokens
	}

	reg := app.NewRegistry()
	reg.OnPresenceChange(func(online int) {
		log.Debug().Str("module", "main").Int("online", online).Msg("presence changed")
	})
	coord := orch.NewCoordinator(reg, app.NewSessionTable(), cfg.RingTimeout)

	gateway := sig.NewGateway(coord, resolver, app.SimplePolicy{},
		sig.NewCallRateLimiter(cfg.CallRateLimit, cfg.CallRateInterval),
		sig.Options{
			ReadLimit:   cfg.ReadLimit,
			PingPeriod:  cfg.PingPeriod,
			PongWait:    cfg.PongWait,
			WriteWait:   cfg.WriteWait,
			JoinTimeout: cfg.JoinTimeout,
			SendBuffer:  cfg.SendBuffer,
		})

	api := &router.API{
		Coord:     coord,
		Gateway:   gateway,
		Directory: dir,
		Tokens:    tokens,
		ICEConfig: rtc.ConfigFromURLs(cfg.ICEServers),
	}
	r := router.SetupRouter(ctx, cfg, api)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}
	reaper := &orch.Reaper{Coord: coord, Sink: gateway, Interval: cfg.ReapInterval}

	var wg conc.WaitGroup
	wg.Go(func() {
		log.Info().Str("addr", addr).Str("auth", cfg.AuthMode).Msg("VoiceCall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	})
	wg.Go(func() { reaper.Run(ctx) })

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	wg.Wait()
	log.Info().Msg("Server exited gracefully")
}

func openDirectory(ctx context.Context, cfg *config.Config) (directory.Directory, io.Closer, error) {
	seed := make([]domain.UserProfile, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		seed = append(seed, domain.UserProfile{
			ID:         domain.UserID(u.ID),
			Username:   u.Username,
			Email:      u.Email,
			ProfilePic: u.ProfilePic,
		})
	}

	if cfg.Directory.Driver == "memory" {
		return directory.NewMemory(seed...), io.NopCloser(nil), nil
	}
	db, err := directory.OpenSQLite(cfg.Directory.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := directory.Seed(ctx, db, seed); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, db, nil
}
