package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowset/pkg/cache"
	"github.com/matzehuels/flowset/pkg/pipeline"
	"github.com/matzehuels/flowset/pkg/server"
)

type serveOpts struct {
	addr      string
	redisURL  string
	mongoURI  string
	mongoDB   string
	keyPrefix string
	noCache   bool
	maxBody   int64
}

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:    ":8080",
		mongoDB: cache.DefaultMongoDatabase,
		maxBody: server.DefaultMaxBody,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Rendered artifacts are cached in Redis (--redis-url), MongoDB (--mongo-uri)
or, by default, the local cache directory. A shared backend lets several
instances reuse each other's results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "Redis URL for the artifact cache (redis://host:6379/0)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB URI for the artifact cache")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "MongoDB database name")
	cmd.Flags().StringVar(&opts.keyPrefix, "key-prefix", "", "namespace for cache keys")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "maximum document size in bytes")
	cmd.MarkFlagsMutuallyExclusive("redis-url", "mongo-uri", "no-cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	backend, err := openServerCache(ctx, opts)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if opts.keyPrefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), opts.keyPrefix)
	}

	runner := pipeline.NewRunner(backend, keyer, logger)
	defer runner.Close()

	srv := server.New(runner, logger, server.WithMaxBody(opts.maxBody))
	return srv.ListenAndServe(ctx, opts.addr)
}

// openServerCache picks the cache backend from the flags.
func openServerCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	logger := loggerFromContext(ctx)
	switch {
	case opts.noCache:
		return cache.NewNullCache(), nil
	case opts.redisURL != "":
		c, err := cache.NewRedisCache(ctx, opts.redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("using redis cache")
		return c, nil
	case opts.mongoURI != "":
		c, err := cache.NewMongoCache(ctx, opts.mongoURI, opts.mongoDB, "")
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		logger.Info("using mongodb cache", "database", opts.mongoDB)
		return c, nil
	}
	c, err := newCache(false)
	if err != nil {
		return nil, err
	}
	if fc, ok := c.(*cache.FileCache); ok {
		logger.Info("using file cache", "dir", fc.Dir())
	}
	return c, nil
}
