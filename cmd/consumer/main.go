package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/linkbot/internal/config"
	"github.com/serroba/linkbot/internal/container"
	"github.com/serroba/linkbot/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		if err := opts.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if opts.RedisAddr == "" {
			fmt.Fprintln(os.Stderr, "invalid options: the consumer needs redis-addr")
			os.Exit(1)
		}

		injector := do.New()
		do.ProvideValue(injector, opts)
		container.LoggerPackage(injector)
		container.MetricsPackage(injector)
		container.RedisPackage(injector)
		container.StorePackage(injector)
		container.ShortenerPackage(injector)
		container.GeoPackage(injector)
		container.TrackingPackage(injector)
		container.ConsumerGroupPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)

			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			// Wait for shutdown signal
			<-ctx.Done()
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
