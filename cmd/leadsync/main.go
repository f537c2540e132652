// leadsync is the operator CLI for the admin backend: bulk lead import,
// record listing, and pix charge creation with status watching. Every
// command works against the remote API first and degrades to the local
// database when the remote is unreachable.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/leadsync/internal/adapter/gateway"
	"github.com/example/leadsync/internal/adapter/natsstan"
	"github.com/example/leadsync/internal/adapter/store"
	"github.com/example/leadsync/internal/analytics"
	"github.com/example/leadsync/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	apiBase string
	dbPath  string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "leadsync",
	Short: "Lead and order admin tooling with offline fallback",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", envOr("LEADSYNC_API", "http://localhost:8080"), "backend API base URL")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("LEADSYNC_DB", "leadsync.db"), "local fallback database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(chargeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(ordersCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// deps bundles the wired client, store, repositories and session tracker
// for a command run. Close disposes the session and releases the store.
type deps struct {
	client  *gateway.Client
	store   *store.BoltStore
	leads   *repository.Leads
	orders  *repository.Orders
	tracker *analytics.Tracker
	stanPub *natsstan.Publisher
	log     zerolog.Logger
}

func buildDeps() (*deps, error) {
	logger := newLogger()
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	client := gateway.NewClient(apiBase)
	d := &deps{
		client: client,
		store:  st,
		leads:  repository.NewLeads(client, st, logger),
		orders: repository.NewOrders(client, st, logger),
		log:    logger,
	}
	var pub analytics.Publisher
	if clusterID := os.Getenv("STAN_CLUSTER_ID"); clusterID != "" {
		p, err := natsstan.NewPublisher(natsstan.Config{
			ClusterID: clusterID,
			ClientID:  os.Getenv("STAN_CLIENT_ID"),
			URL:       envOr("NATS_URL", "nats://localhost:4222"),
			Subject:   envOr("STAN_SUBJECT", "leadsync.events"),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("event stream unavailable")
		} else {
			d.stanPub = p
			pub = p
		}
	}
	d.tracker = analytics.NewTracker(st, pub, logger)
	return d, nil
}

// track records the command invocation under the current session.
func (d *deps) track(cmd *cobra.Command) {
	if err := d.tracker.Record(cmd.Context(), "cli_command", cmd.CommandPath(), nil); err != nil {
		d.log.Debug().Err(err).Msg("recording command event")
	}
}

func (d *deps) Close() {
	if err := d.tracker.Close(context.Background()); err != nil {
		d.log.Debug().Err(err).Msg("closing session")
	}
	if d.stanPub != nil {
		_ = d.stanPub.Close()
	}
	if err := d.store.Close(); err != nil {
		d.log.Warn().Err(err).Msg("closing local database")
	}
}
