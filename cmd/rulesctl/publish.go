package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"candlepin/internal/platform/config"
	"candlepin/internal/platform/logger"
	platformredis "candlepin/internal/platform/redis"
	"candlepin/internal/rules"
	rulespostgres "candlepin/internal/rules/store/postgres"
	rulesredis "candlepin/internal/rules/store/redis"
)

type publishOptions struct {
	RulesPath   string
	Version     string
	DatabaseURL string
	RedisURL    string
	Timeout     time.Duration
}

// openStore and openCache are swapped in tests.
var (
	openStore = openPostgresStore
	openCache = openRedisCache
)

func newPublishCmd(root *rootFlags) *cobra.Command {
	opts := publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish <rules-file>",
		Short: "Validate a rules file and store it as the latest rules",
		Long: `Publish validates the rules file and writes it to the rules table. Servers
pick it up on their next rules timestamp check. A version older than the
stored rules is rejected. With a Redis URL the cached rules timestamp is
dropped so servers sharing that Redis recompile on their next check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RulesPath = args[0]
			return runPublish(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "Expected version; must match the file's version header")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.Flags().StringVar(&opts.RedisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis holding the servers' rules timestamp cache")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Publish timeout")

	return cmd
}

func runPublish(cmd *cobra.Command, root *rootFlags, opts publishOptions) error {
	if opts.DatabaseURL == "" {
		return fmt.Errorf("--database-url is required")
	}
	body, version, err := readRules(opts.RulesPath)
	if err != nil {
		return err
	}
	if opts.Version != "" && opts.Version != version {
		return fmt.Errorf("rules file declares version %s, expected %s", version, opts.Version)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, opts.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeStore()

	log := logger.NewWithWriter(cmd.ErrOrStderr(), root.logLevel)
	if opts.RedisURL != "" {
		client, closeCache, err := openCache(ctx, opts.RedisURL)
		if err != nil {
			return err
		}
		defer closeCache()
		store = rulesredis.NewCachedStore(store, client, rulesredis.WithLogger(log))
	}

	curator, err := rules.NewCurator(store, rules.WithCuratorLogger(log))
	if err != nil {
		return err
	}
	published, err := curator.Publish(ctx, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published rules %s at %s\n", published.Version, published.UpdatedAt.Format(time.RFC3339))
	return nil
}

func openPostgresStore(ctx context.Context, dsn string) (rules.Store, func(), error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	return rulespostgres.New(db), func() { _ = db.Close() }, nil
}

func openRedisCache(ctx context.Context, url string) (*goredis.Client, func(), error) {
	client, err := platformredis.New(ctx, config.RedisConfig{URL: url})
	if err != nil {
		return nil, nil, err
	}
	return client.Client, func() { _ = client.Close() }, nil
}
