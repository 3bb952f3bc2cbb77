package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/linkbot/internal/config"
	"github.com/serroba/linkbot/internal/container"
	"github.com/serroba/linkbot/internal/telegram"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		if err := opts.ValidateBot(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		injector := do.New()
		do.ProvideValue(injector, opts)
		container.LoggerPackage(injector)
		container.RedisPackage(injector)
		container.StorePackage(injector)
		container.ShortenerPackage(injector)
		container.AnalyticsPackage(injector)
		container.TelegramPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			client := do.MustInvoke[*telegram.Client](injector)

			logger.Info("bot starting", zap.String("store", opts.Store), zap.String("base_url", opts.PublicBaseURL()))

			client.Start(ctx)
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
