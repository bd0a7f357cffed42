package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/stockroom/cmd/stockroomctl/cli"
	"github.com/odyssey-erp/stockroom/internal/app"
	"github.com/odyssey-erp/stockroom/internal/inventory"
	"github.com/odyssey-erp/stockroom/internal/platform/cache"
	"github.com/odyssey-erp/stockroom/internal/platform/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	env := cli.Env{
		Jobs: func() (*cli.JobsCLI, error) {
			client := cli.NewJobsCLI(cache.QueueOpts(cache.Options{Addr: cfg.RedisAddr}))
			client.Threshold = cfg.LowStockThreshold
			client.Retention = cfg.IdempotencyRetention
			return client, nil
		},
		Catalog: func(ctx context.Context) (cli.CatalogReader, func(), error) {
			pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
			if err != nil {
				return nil, nil, err
			}
			return inventory.NewService(inventory.NewRepository(pool), nil, nil, inventory.ServiceConfig{}), pool.Close, nil
		},
	}
	code := cli.Run(ctx, os.Args[1:], env)
	stop()
	os.Exit(code)
}
