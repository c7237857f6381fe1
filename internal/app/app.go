package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fathomhq/fathom/config"
	"github.com/fathomhq/fathom/internal/action"
	"github.com/fathomhq/fathom/internal/metrics"
	"github.com/fathomhq/fathom/internal/prompt"
	"github.com/fathomhq/fathom/internal/server"
	key_value "github.com/fathomhq/fathom/internal/storage/key-value"
	"github.com/fathomhq/fathom/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Run wires the full service and blocks until ctx is cancelled, then shuts
// the HTTP server down gracefully.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rdb := redis.NewClient(
		&redis.Options{
			Addr: cfg.Redis.Endpoint,
		},
	)
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	userStorage := key_value.NewUserStorage(rdb)
	macroStorage := key_value.NewMacroStorage(rdb)
	actionStorage := key_value.NewActionStorage(rdb)

	registry, err := BuildRegistry(cfg.Actions)
	if err != nil {
		return fmt.Errorf("failed to build action registry: %w", err)
	}

	composer := prompt.NewComposer(prompt.NewDirStore(cfg.Prompts.Dir))

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	userUsecase := usecase.NewUserUsecase(
		usecase.UserUsecaseDeps{
			UserStorage:  userStorage,
			MacroStorage: macroStorage,
		},
	)
	catalogUsecase := usecase.NewActionCatalogUsecase(
		usecase.ActionCatalogUsecaseDeps{
			ActionStorage: actionStorage,
		},
	)
	macroUsecase := usecase.NewMacroUsecase(
		usecase.MacroUsecaseDeps{
			MacroStorage:  macroStorage,
			ActionStorage: actionStorage,
			UserStorage:   userStorage,
		},
	)

	openAIUsecase := usecase.NewOpenAIUsecase(cfg.OpenAI, logger)

	processor := usecase.NewProcessor(
		usecase.ProcessorDeps{
			Model:    openAIUsecase,
			Macros:   macroUsecase,
			Prompts:  composer,
			Registry: registry,
			Metrics:  m,
			Logger:   logger,
		},
	)

	handler := server.NewHandler(
		server.Deps{
			Responder: processor,
			Users:     userUsecase,
			Macros:    macroUsecase,
			Catalog:   catalogUsecase,
			Metrics:   m,
			PromReg:   promReg,
			Logger:    logger,
		},
		cfg.HTTP.AdminAPIKey,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler,
	}

	var wg conc.WaitGroup
	wg.Go(
		func() {
			logger.Info("http server listening", zap.Int("port", cfg.HTTP.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", zap.Error(err))
			}
		},
	)
	wg.Go(
		func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown failed", zap.Error(err))
			}
		},
	)
	wg.Wait()
	logger.Info("server stopped")
	return nil
}

// Seed upserts every built-in action's name and description into the catalog
// so macros can reference them by id.
func Seed(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rdb := redis.NewClient(
		&redis.Options{
			Addr: cfg.Redis.Endpoint,
		},
	)
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	registry, err := BuildRegistry(cfg.Actions)
	if err != nil {
		return fmt.Errorf("failed to build action registry: %w", err)
	}
	catalogUsecase := usecase.NewActionCatalogUsecase(
		usecase.ActionCatalogUsecaseDeps{
			ActionStorage: key_value.NewActionStorage(rdb),
		},
	)

	created, updated, err := catalogUsecase.SeedFromRegistry(ctx, registry)
	if err != nil {
		return fmt.Errorf("failed to seed action catalog: %w", err)
	}
	logger.Info("action catalog seeded", zap.Int("created", created), zap.Int("updated", updated))
	return nil
}

// BuildRegistry assembles the built-in action set. External actions share one
// HTTP client bounded by the configured request timeout.
func BuildRegistry(cfg config.Actions) (*action.Registry, error) {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	return action.NewRegistry(
		action.NewTimeAction(),
		action.NewDateAction(),
		action.NewWeatherAction(client, cfg.OpenWeatherAPIKey),
		action.NewStockAction(client, cfg.MarketStackAPIKey),
		action.NewCryptoAction(client),
	)
}
