package fx

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/champselect"
	"lol-autopilot/internal/config"
	"lol-autopilot/internal/constants"
	"lol-autopilot/internal/database"
	"lol-autopilot/internal/loadout"
	"lol-autopilot/internal/logger"
	"lol-autopilot/internal/repository"
	"lol-autopilot/internal/server"
	"lol-autopilot/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func ProvideEngine(client *api.LCUClient, catalog *champion.Catalog, cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *champselect.Engine {
	return champselect.New(champselect.Options{
		Client:      client,
		Catalog:     catalog,
		Champions:   cfg.Champions,
		Request:     cfg.Request,
		Clock:       clock,
		LockInDelay: cfg.LockInDelay,
		Logger:      logger,
	})
}

func ProvideResolver(client *api.LCUClient, cfg *config.Config, logger zerolog.Logger) *loadout.Resolver {
	return loadout.NewResolver(client, loadout.Options{
		Prefix:       cfg.RunePagePrefix,
		FlashOnF:     cfg.FlashOnF,
		PinnedSpells: cfg.Champions.Preferences.PinnedSpells,
	}, logger)
}

type AutopilotParams struct {
	fx.In

	Client  *api.LCUClient
	Catalog *champion.Catalog
	Engine  *champselect.Engine
	Loadout *loadout.Resolver
	History *repository.HistoryRepository
	Prefs   *repository.PreferenceRepository
	Clock   clockwork.Clock
	Config  *config.Config
	Logger  zerolog.Logger
}

func ProvideAutopilot(p AutopilotParams) *service.Autopilot {
	return service.NewAutopilot(service.Deps{
		Client:  p.Client,
		Catalog: p.Catalog,
		Engine:  p.Engine,
		Loadout: p.Loadout,
		History: p.History,
		Prefs:   p.Prefs,
		Clock:   p.Clock,
		Config:  p.Config,
		Logger:  p.Logger,
	})
}

func ProvideRouter(autopilot *service.Autopilot, logger zerolog.Logger) http.Handler {
	return server.NewRouter(autopilot, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewHistoryRepository),
	fx.Provide(repository.NewPreferenceRepository),
	// client
	fx.Provide(api.NewLCUClient),
	fx.Provide(ProvideClock),
	// champ select
	fx.Provide(champion.NewCatalog),
	fx.Provide(ProvideEngine),
	fx.Provide(ProvideResolver),
	// svc
	fx.Provide(ProvideAutopilot),
	// server
	fx.Provide(ProvideRouter),
	fx.Invoke(RunAutopilot),
	fx.Invoke(RunServer),
)

// RunAutopilot starts the worker with the app unless the operator asked to
// start it from the control surface.
func RunAutopilot(lc fx.Lifecycle, autopilot *service.Autopilot, cfg *config.Config, db *sql.DB, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.WaitForStart {
				logger.Info().Msg("waiting for a start request")
				return nil
			}
			return autopilot.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			err := autopilot.Stop(ctx)
			if cerr := db.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("error closing database connection")
			}
			return err
		},
	})
}

func RunServer(lc fx.Lifecycle, handler http.Handler, cfg *config.Config, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:              cfg.ControlAddr,
		Handler:           handler,
		ReadHeaderTimeout: constants.DefaultRequestTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("control server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("control server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down control server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("control server shutdown failed")
				return err
			}
			logger.Info().Msg("control server stopped gracefully")
			return nil
		},
	})
}
