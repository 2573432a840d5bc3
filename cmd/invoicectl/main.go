package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/invoicer/invoicer/cmd/invoicectl/cli"
	"github.com/invoicer/invoicer/internal/app"
	"github.com/invoicer/invoicer/internal/platform/db"
	"github.com/invoicer/invoicer/internal/templates"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		cfg      *app.Config
		pool     *pgxpool.Pool
		jobsCLI  *cli.JobsCLI
		shutdown []func()
	)
	config := func() (*app.Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		var err error
		cfg, err = app.LoadConfig()
		return cfg, err
	}
	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		if pool != nil {
			return pool, nil
		}
		c, err := config()
		if err != nil {
			return nil, err
		}
		pool, err = db.New(ctx, c.PGDSN, db.PoolOptions{MaxConns: 2})
		if err != nil {
			return nil, err
		}
		shutdown = append(shutdown, pool.Close)
		return pool, nil
	}

	root := cli.NewRootCommand(cli.Deps{
		Migrate: func(ctx context.Context) ([]string, error) {
			p, err := connect(ctx)
			if err != nil {
				return nil, err
			}
			return db.Migrate(ctx, p)
		},
		Seed: func(ctx context.Context) (templates.SeedResult, error) {
			p, err := connect(ctx)
			if err != nil {
				return templates.SeedResult{}, err
			}
			return templates.NewService(templates.NewRepository(p), slog.Default()).Seed(ctx)
		},
		Jobs: func() (cli.JobRunner, error) {
			c, err := config()
			if err != nil {
				return nil, err
			}
			if jobsCLI == nil {
				jobsCLI = cli.NewJobsCLI(c.RedisAddr)
				shutdown = append(shutdown, func() { _ = jobsCLI.Close() })
			}
			return jobsCLI, nil
		},
	})

	err := root.ExecuteContext(ctx)
	for _, fn := range shutdown {
		fn()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "invoicectl:", err)
		stop()
		os.Exit(1)
	}
}
