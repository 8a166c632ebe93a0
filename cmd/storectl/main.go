package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"cartesian-metadata-app/internal/application"
	"cartesian-metadata-app/internal/config"
	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/repository"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:  "storectl",
		Usage: "inspect and adjust the store registry",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create the registry schema and indexes",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withRegistry(ctx, logger, func(repo ports.StoreRepository, _ *application.StoreService) error {
						if err := repo.Migrate(ctx); err != nil {
							return err
						}
						fmt.Println("store registry migrated")
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "list registered stores",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withRegistry(ctx, logger, func(_ ports.StoreRepository, stores *application.StoreService) error {
						list, err := stores.ListStores(ctx)
						if err != nil {
							return err
						}
						printStores(list)
						return nil
					})
				},
			},
			{
				Name:      "get",
				Usage:     "show one store",
				ArgsUsage: "<shop-domain>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					shop, err := shopArg(cmd)
					if err != nil {
						return err
					}
					return withRegistry(ctx, logger, func(_ ports.StoreRepository, stores *application.StoreService) error {
						store, err := stores.GetStore(ctx, shop)
						if err != nil {
							return err
						}
						enc := json.NewEncoder(os.Stdout)
						enc.SetIndent("", "  ")
						return enc.Encode(store)
					})
				},
			},
			{
				Name:      "set-plan",
				Usage:     "change the plan of a store",
				ArgsUsage: "<shop-domain> <free|paid>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					shop, err := shopArg(cmd)
					if err != nil {
						return err
					}
					plan := domain.Plan(cmd.Args().Get(1))
					return withRegistry(ctx, logger, func(_ ports.StoreRepository, stores *application.StoreService) error {
						if err := stores.UpdatePlan(ctx, shop, plan); err != nil {
							return err
						}
						fmt.Printf("%s is now on the %s plan\n", shop, plan)
						return nil
					})
				},
			},
			{
				Name:      "reset-usage",
				Usage:     "zero the usage counter and restart the window",
				ArgsUsage: "<shop-domain>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					shop, err := shopArg(cmd)
					if err != nil {
						return err
					}
					return withRegistry(ctx, logger, func(_ ports.StoreRepository, stores *application.StoreService) error {
						if err := stores.ResetUsage(ctx, shop); err != nil {
							return err
						}
						fmt.Printf("usage of %s reset\n", shop)
						return nil
					})
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error().Err(err).Msg("storectl failed")
		os.Exit(1)
	}
}

// withRegistry opens the configured store backend for the duration of fn
func withRegistry(ctx context.Context, logger zerolog.Logger, fn func(ports.StoreRepository, *application.StoreService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var repo ports.StoreRepository
	switch cfg.Store.Backend {
	case config.StoreBackendSQL:
		db, err := repository.OpenSQL(ctx, cfg.Store.SQLDriver, cfg.Store.SQLDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = repository.NewSQLStoreRepository(db)
	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.MongoURI))
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer client.Disconnect(context.Background())
		repo = repository.NewMongoStoreRepository(client.Database(cfg.Store.MongoDatabase))
	}

	return fn(repo, application.NewStoreService(repo, cfg.Limits.FreePlanMetafields, logger))
}

func shopArg(cmd *cli.Command) (string, error) {
	shop := domain.NormalizeShopDomain(cmd.Args().First())
	if !domain.ValidShopDomain(shop) {
		return "", fmt.Errorf("a shop domain like example.myshopify.com is required")
	}
	return shop, nil
}

func printStores(stores []*domain.Store) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHOP\tPLAN\tUSED\tWINDOW START\tOWNER")
	for _, s := range stores {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.ShopDomain, s.Plan, s.MetafieldsCreated, s.LastReset.Format(time.DateOnly), s.OwnerEmail)
	}
	w.Flush()
}
