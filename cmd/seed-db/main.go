package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/amazonas-market/checkout/internal/domain/condition"
	"github.com/amazonas-market/checkout/internal/repository"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Rating   int             `json:"rating"`
}

type storeJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	OwnerIDs []string `json:"owner_ids"`
}

type catalogJSON struct {
	Stores   []storeJSON   `json:"stores"`
	Products []productJSON `json:"products"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedDiscountRules(ctx, pool); err != nil {
		return errors.Wrap(err, "seed discount rules")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting stores", slog.Int("count", len(catalog.Stores)))

	for _, s := range catalog.Stores {
		if _, err := pool.Exec(ctx, `
			INSERT INTO stores (id, name, owner_ids)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, owner_ids = EXCLUDED.owner_ids
		`, s.ID, s.Name, s.OwnerIDs); err != nil {
			return errors.Wrapf(err, "upsert store %s", s.ID)
		}

		slog.Info("upserted store", slog.String("id", s.ID), slog.String("name", s.Name))
	}

	slog.Info("upserting products", slog.Int("count", len(catalog.Products)))

	for _, p := range catalog.Products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, price, category, rating)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				category = EXCLUDED.category,
				rating = EXCLUDED.rating
		`, p.ID, p.Name, p.Price, p.Category, p.Rating); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

// seedRule pairs a discount rule row with the condition it should carry.
type seedRule struct {
	id          string
	storeID     string
	description string
	effect      string
	value       decimal.Decimal
	build       func() (*condition.Condition, error)
}

func seedDiscountRules(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding discount rules")

	rules := []seedRule{
		{
			id:          "bulk-espresso",
			storeID:     "store-coffee",
			description: "10% off when buying 3+ espresso kits",
			effect:      "percentage",
			value:       decimal.NewFromInt(10),
			build: func() (*condition.Condition, error) {
				return condition.MinQuantity("espresso-kit", 3)
			},
		},
		{
			id:          "big-basket",
			storeID:     "store-coffee",
			description: "$5 off baskets over $50 with 2+ items",
			effect:      "fixed",
			value:       decimal.NewFromInt(5),
			build: func() (*condition.Condition, error) {
				total, err := condition.MinTotal(decimal.NewFromInt(50))
				if err != nil {
					return nil, err
				}
				items, err := condition.MinItems(2)
				if err != nil {
					return nil, err
				}
				return condition.And(total, items)
			},
		},
	}

	for _, r := range rules {
		cond, err := r.build()
		if err != nil {
			return errors.Wrapf(err, "build condition for rule %s", r.id)
		}

		desc, err := cond.Descriptor()
		if err != nil {
			return errors.Wrapf(err, "describe condition for rule %s", r.id)
		}

		condJSON, err := json.Marshal(desc)
		if err != nil {
			return errors.Wrapf(err, "marshal condition for rule %s", r.id)
		}

		if _, err := pool.Exec(ctx, `
			INSERT INTO discount_rules (id, store_id, description, effect, value, condition, active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				store_id = EXCLUDED.store_id,
				description = EXCLUDED.description,
				effect = EXCLUDED.effect,
				value = EXCLUDED.value,
				condition = EXCLUDED.condition,
				active = TRUE
		`, r.id, r.storeID, r.description, r.effect, r.value, condJSON); err != nil {
			return errors.Wrapf(err, "upsert discount rule %s", r.id)
		}

		slog.Info("upserted discount rule", slog.String("id", r.id), slog.String("description", r.description))
	}

	return nil
}
