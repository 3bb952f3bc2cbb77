package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/linkbot/internal/config"
	"github.com/serroba/linkbot/internal/container"
	"github.com/serroba/linkbot/internal/geo"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *config.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.MetricsPackage(injector)
	container.RedisPackage(injector)
	container.StorePackage(injector)
	container.ShortenerPackage(injector)
	container.AnalyticsPackage(injector)
	container.GeoPackage(injector)
	container.TrackingPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := humacli.New(func(hooks humacli.Hooks, options *config.Options) {
		if err := options.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			if options.Tracking == config.TrackingInline {
				_ = do.MustInvoke[*geo.Janitor](injector).Start(ctx)
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("store", options.Store),
				zap.String("tracking", options.Tracking),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if server != nil {
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			cancel()

			// the tracker drains its in-flight clicks here, after the server stopped accepting redirects
			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
