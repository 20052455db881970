package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/amazonas-market/checkout/internal/repository"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// feedProduct is one parsed line of a supplier feed:
// id|name|price|category|rating
type feedProduct struct {
	id       string
	name     string
	price    decimal.Decimal
	category string
	rating   int
}

func main() {
	var (
		feedDir     string
		databaseURL string
	)

	flag.StringVar(&feedDir, "feed-dir", "data", "directory containing supplier *.feed.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, feedDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(feedDir, "*.feed.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.feed.gz files in %s", feedDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("ingesting supplier feeds", slog.Int("files", len(files)))

	// Feeds overlap heavily between suppliers. A shared bloom filter drops
	// product IDs already ingested in this run; the upsert handles the
	// false-positive rate's worth of misses on the next run.
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var seenMu sync.Mutex

	products := make(chan feedProduct, 1024)

	g, gctx := errgroup.WithContext(ctx)
	readers, rctx := errgroup.WithContext(gctx)

	for i, f := range files {
		readers.Go(ingestFeedFile(rctx, i, f, seen, &seenMu, products))
	}

	g.Go(func() error {
		defer close(products)
		return readers.Wait()
	})
	g.Go(func() error {
		return writeProducts(gctx, pool, products)
	})

	return g.Wait()
}

func ingestFeedFile(
	ctx context.Context,
	idx int,
	path string,
	seen *bloom.BloomFilter,
	seenMu *sync.Mutex,
	out chan<- feedProduct,
) func() error {
	return func() error {
		var total, kept uint64

		if err := streamGzFile(ctx, path, func(line string) error {
			total++
			if total%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", total),
				)
			}

			p, err := parseFeedLine(line)
			if err != nil {
				slog.Warn("skipping malformed feed line",
					slog.Int("file", idx+1),
					slog.String("error", err.Error()),
				)
				return nil
			}

			seenMu.Lock()
			dup := seen.TestAndAddString(p.id)
			seenMu.Unlock()
			if dup {
				return nil
			}

			kept++
			select {
			case out <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}); err != nil {
			return errors.Wrapf(err, "ingest file %d", idx+1)
		}

		slog.Info("feed complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", total),
			slog.Uint64("new_products", kept),
		)

		return nil
	}
}

func parseFeedLine(line string) (feedProduct, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 5 {
		return feedProduct{}, errors.Errorf("expected 5 fields, got %d", len(parts))
	}
	if parts[0] == "" {
		return feedProduct{}, errors.New("empty product id")
	}

	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return feedProduct{}, errors.Wrapf(err, "parse price for %s", parts[0])
	}

	rating, err := strconv.Atoi(parts[4])
	if err != nil {
		return feedProduct{}, errors.Wrapf(err, "parse rating for %s", parts[0])
	}

	return feedProduct{
		id:       parts[0],
		name:     parts[1],
		price:    price,
		category: parts[3],
		rating:   rating,
	}, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeProducts upserts everything from the channel until it closes.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, products <-chan feedProduct) error {
	var written int

	for p := range products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, price, category, rating)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				category = EXCLUDED.category,
				rating = EXCLUDED.rating
		`, p.id, p.name, p.price, p.category, p.rating); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.id)
		}

		written++
		if written%10_000 == 0 {
			slog.Info("write progress", slog.Int("written", written))
		}
	}

	slog.Info("products written", slog.Int("count", written))
	return nil
}
