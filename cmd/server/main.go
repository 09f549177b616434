package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"eduledger/internal/jwttoken"
	"eduledger/internal/ledgerlog"
	"eduledger/internal/ledgerlog/kafka"
	"eduledger/internal/platform/config"
	"eduledger/internal/platform/httpserver"
	"eduledger/internal/platform/logger"
	"eduledger/internal/platform/metrics"
	platformredis "eduledger/internal/platform/redis"
	"eduledger/internal/registry"
	"eduledger/internal/registry/cache"
	httptransport "eduledger/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal/registry; absent backends degrade to
// in-memory implementations so the binary runs standalone.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		store      registry.Store
		eventStore ledgerlog.Store
	)
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore := registry.NewPostgresStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("prepare registry schema", "error", err)
			os.Exit(1)
		}
		store = pgStore

		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("connect postgres outbox", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		outbox := ledgerlog.NewPostgresStore(db)
		if err := outbox.EnsureSchema(ctx); err != nil {
			log.Error("prepare outbox schema", "error", err)
			os.Exit(1)
		}
		eventStore = outbox
	} else {
		log.Warn("POSTGRES_DSN unset, using in-memory registry state")
		store = registry.NewInMemoryStore()
		eventStore = ledgerlog.NewInMemoryStore()
	}

	group, ctx := errgroup.WithContext(ctx)

	publisherOpts := []ledgerlog.Option{ledgerlog.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafka.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		inbox := make(chan ledgerlog.Event, 256)
		publisherOpts = append(publisherOpts, ledgerlog.WithForwarding(inbox))
		worker := ledgerlog.NewWorker(sink, inbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	events := ledgerlog.NewPublisher(eventStore, publisherOpts...)

	serviceOpts := []registry.ServiceOption{registry.WithMetrics(m)}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		serviceOpts = append(serviceOpts, registry.WithCache(cache.New(redisClient, cfg.CacheTTL, m)))
	}

	svc := registry.NewService(store, events, log, serviceOpts...)

	jwtSvc := jwttoken.NewService(cfg.JWTSigningKey, "eduledger", "eduledger-api")
	handler := httptransport.NewHandler(svc, log)
	router := httptransport.NewRouter(handler, jwttoken.NewMiddlewareAdapter(jwtSvc), log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting eduledger", "addr", cfg.Addr)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
