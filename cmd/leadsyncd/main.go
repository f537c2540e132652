// leadsyncd serves the backend REST API over the persistent store and,
// when configured, consumes analytics events from NATS Streaming.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/leadsync/internal/adapter/httpapi"
	"github.com/example/leadsync/internal/adapter/natsstan"
	"github.com/example/leadsync/internal/adapter/store"
	"github.com/example/leadsync/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	st, err := openStore(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	srv := httpapi.NewServer(st, logger)

	if clusterID := os.Getenv("STAN_CLUSTER_ID"); clusterID != "" {
		sub := &natsstan.Subscriber{
			Config: natsstan.Config{
				ClusterID: clusterID,
				ClientID:  os.Getenv("STAN_CLIENT_ID"),
				URL:       getEnv("NATS_URL", "nats://localhost:4222"),
				Subject:   getEnv("STAN_SUBJECT", "leadsync.events"),
				Durable:   getEnv("STAN_DURABLE", "leadsync-events"),
			},
			Log: logger,
		}
		go func() {
			if err := sub.Subscribe(ctx, func(ctx context.Context, event domain.Event) error {
				_, err := st.AppendEvent(ctx, &event)
				return err
			}); err != nil {
				logger.Error().Err(err).Msg("stan subscribe")
			}
		}()
	}

	httpSrv := &http.Server{Addr: getEnv("LISTEN_ADDR", ":8080"), Handler: srv.Router}
	go func() {
		logger.Info().Str("addr", httpSrv.Addr).Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpSrv.Shutdown(shutdownCtx)
}

// openStore picks Postgres when DATABASE_URL is set, otherwise the
// embedded bolt database.
func openStore(ctx context.Context, logger zerolog.Logger) (domain.Store, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Msg("using postgres store")
		return store.NewPostgresStore(pool), nil
	}
	path := getEnv("LEADSYNC_DB", "leadsync.db")
	logger.Info().Str("path", path).Msg("using bolt store")
	return store.NewBoltStore(path)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
