package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/config"
	"github.com/serroba/linkbot/internal/geo"
	"github.com/serroba/linkbot/internal/handlers"
	"github.com/serroba/linkbot/internal/health"
	"github.com/serroba/linkbot/internal/messaging"
	"github.com/serroba/linkbot/internal/metrics"
	"github.com/serroba/linkbot/internal/middleware"
	"github.com/serroba/linkbot/internal/shortener"
	"github.com/serroba/linkbot/internal/store"
	"github.com/serroba/linkbot/internal/telegram"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	connectTimeout = 10 * time.Second

	// ConsumerGroupAnalytics is the Redis stream consumer group of the click consumer.
	ConsumerGroupAnalytics = "linkbot-analytics"
)

var ErrRedisDisabled = errors.New("redis is not configured")

// Store is everything a persistence backend provides.
type Store interface {
	shortener.Repository
	shortener.OwnerRepository
	analytics.Store
	health.Checker
}

// RedisClient closes the shared connection when the injector shuts down.
type RedisClient struct {
	*redis.Client
}

func (r *RedisClient) Shutdown() error {
	return r.Close()
}

// NewLogger builds a json production logger or a console development logger.
func NewLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*config.Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}

// RedisPackage provides the shared client. Invoking it without a configured
// address fails with ErrRedisDisabled.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*config.Options](i)
		if opts.RedisAddr == "" {
			return nil, ErrRedisDisabled
		}

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// StorePackage provides the configured backend and the link repository used
// on the redirect path, which goes through the Redis cache when Redis is configured.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (Store, error) {
		opts := do.MustInvoke[*config.Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		backend, err := openStore(ctx, opts)
		if err != nil {
			return nil, err
		}

		logger.Info("store ready", zap.String("store", opts.Store))

		return backend, nil
	})

	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*config.Options](i)
		backend := do.MustInvoke[Store](i)

		if opts.RedisAddr == "" {
			return backend, nil
		}

		rdb := do.MustInvoke[*RedisClient](i)

		return store.NewRedisCacheRepository(backend, rdb.Client, opts.CacheTTL), nil
	})
}

func openStore(ctx context.Context, opts *config.Options) (Store, error) {
	switch opts.Store {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		s := store.NewPostgresStore(pool)
		if err = s.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		return s, nil
	case config.StoreMongo:
		client, err := store.ConnectMongo(ctx, opts.MongoURI)
		if err != nil {
			return nil, err
		}

		s := store.NewMongoStore(client.Database(opts.MongoDB))
		if err = s.EnsureIndexes(ctx); err != nil {
			_ = s.Shutdown()

			return nil, err
		}

		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*config.Options](i)

		generate, err := shortener.NewAliasGenerator(opts.AliasLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(do.MustInvoke[shortener.Repository](i), do.MustInvoke[Store](i), generate), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		return shortener.NewResolver(do.MustInvoke[shortener.Repository](i)), nil
	})
}

// AnalyticsPackage provides the statistics reader. It resolves links against
// the backend directly so counters are never served from the cache.
func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*analytics.Aggregator, error) {
		backend := do.MustInvoke[Store](i)

		return analytics.NewAggregator(shortener.NewResolver(backend), backend), nil
	})
}

func GeoPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*geo.Cache, error) {
		return geo.NewCache(), nil
	})

	do.Provide(i, func(i *do.Injector) (*geo.Janitor, error) {
		opts := do.MustInvoke[*config.Options](i)

		return geo.NewJanitor(do.MustInvoke[*geo.Cache](i), opts.GeoCacheInterval, do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*geo.Resolver, error) {
		opts := do.MustInvoke[*config.Options](i)
		lookup := geo.NewIPInfoClient(opts.IpinfoURL, opts.IpinfoToken, &http.Client{Timeout: opts.GeoTimeout})

		return geo.NewResolver(
			lookup,
			do.MustInvoke[*geo.Cache](i),
			opts.GeoTimeout,
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})
}

// TrackingPackage provides the recorder and the tracker used by the redirect
// handler. In stream mode the tracker publishes instead of recording.
func TrackingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*analytics.Recorder, error) {
		return analytics.NewRecorder(do.MustInvoke[Store](i), do.MustInvoke[*geo.Resolver](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*analytics.AsyncTracker, error) {
		opts := do.MustInvoke[*config.Options](i)

		var (
			track   analytics.TrackFunc
			success string
		)

		switch opts.Tracking {
		case config.TrackingStream:
			group := do.MustInvoke[*messaging.PublisherGroup](i)
			publish := messaging.NewPublishFunc[analytics.ClickedEvent](group.Publisher(), analytics.TopicLinkClicked)
			track, success = analytics.NewPublishTrackFunc(publish), metrics.ClickPublished
		default:
			track, success = do.MustInvoke[*analytics.Recorder](i).Track, metrics.ClickRecorded
		}

		return analytics.NewAsyncTracker(
			track,
			success,
			analytics.TrackerConfig{Timeout: opts.TrackTimeout, Grace: opts.TrackGrace},
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})
}

func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		rdb := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: rdb.Client},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the click consumer together with the location cache janitor.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		rdb := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        rdb.Client,
				ConsumerGroup: ConsumerGroupAnalytics,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		recorder := do.MustInvoke[*analytics.Recorder](i)
		resolver := do.MustInvoke[*shortener.Resolver](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(do.MustInvoke[*geo.Janitor](i))
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicLinkClicked,
			analytics.NewClickHandler(resolver, recorder.Track, logger),
			logger,
		))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)
		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*config.Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		backend := do.MustInvoke[Store](i)

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("linkbot", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		deps := []health.Dependency{{Name: "store", Checker: backend}}
		if opts.RedisAddr != "" {
			rdb := do.MustInvoke[*RedisClient](i)
			deps = append(deps, health.Dependency{Name: "redis", Checker: health.NewRedisChecker(rdb.Client)})
		}

		health.RegisterRoutes(api, health.NewHandler(deps...))
		handlers.RegisterRoutes(api,
			handlers.NewRedirectHandler(
				do.MustInvoke[*shortener.Resolver](i),
				do.MustInvoke[*analytics.AsyncTracker](i),
				handlers.NewPages(opts.BotURL()),
				logger,
				m,
			),
			handlers.NewLinkHandler(
				do.MustInvoke[*shortener.Service](i),
				do.MustInvoke[*analytics.Aggregator](i),
				opts.PublicBaseURL(),
				logger,
			),
		)

		return api, nil
	})
}

func TelegramPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*telegram.Client, error) {
		opts := do.MustInvoke[*config.Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		router := telegram.NewRouter(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[*analytics.Aggregator](i),
			telegram.NewSessionStore(),
			opts.PublicBaseURL(),
			logger,
		)

		return telegram.NewClient(opts.TelegramToken, router, logger)
	})
}
