// Command seed-db loads sample products into the database. The input file
// is a JSON array of products and may be gzip-compressed (.gz).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/ambarika/storefront/internal/domain/product"
	"github.com/ambarika/storefront/internal/storage/postgres"
)

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.json or .json.gz)")
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

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := readProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products")
	}

	repo := postgres.NewProductRepository(pool)

	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list existing products")
	}
	if len(existing) > 0 {
		slog.Info("catalog already seeded, skipping", slog.Int("count", len(existing)))
		return nil
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	for _, p := range products {
		row := &product.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.Round(2),
			Category:    p.Category,
			ImageURL:    p.ImageURL,
		}
		if err := repo.Create(ctx, row); err != nil {
			return errors.Wrapf(err, "insert product %q", p.Name)
		}

		slog.Info("inserted product", slog.Int64("id", row.ID), slog.String("name", row.Name))
	}

	return nil
}

// readProducts parses the products file, transparently decompressing
// gzipped input.
func readProducts(path string) ([]productJSON, error) {
	slog.Info("reading products file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return products, nil
}
