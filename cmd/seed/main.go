// Command seed loads categories and content into the catalog database.
//
// The API has no endpoints for writing content, so catalogs are loaded
// out-of-band from a JSON file:
//
//	go run ./cmd/seed -file catalog.json
//
// The whole file is imported in one transaction. Categories that already
// exist (by title) are reused, so re-running with new content is safe;
// re-running with the same content fails on the duplicate file_path and
// changes nothing.
//
// With -print the catalog as stored after the import is written to stdout
// as JSON, each content row carrying its categories.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/config"
	"github.com/sakif/podcast-api/internal/logger"
	"github.com/sakif/podcast-api/internal/repository/sqlstore"
	"github.com/sakif/podcast-api/internal/service"
)

func main() {
	file := flag.String("file", "catalog.json", "path to the catalog JSON file")
	timeout := flag.Duration("timeout", time.Minute, "maximum time for the import")
	printCatalog := flag.Bool("print", false, "write the stored catalog to stdout after importing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var out io.Writer
	if *printCatalog {
		out = os.Stdout
	}
	if err := run(*file, *timeout, cfg, log, out); err != nil {
		log.Error("seed failed", zap.String("file", *file), zap.Error(err))
		os.Exit(1)
	}
}

// run imports the catalog at path. When out is non-nil the stored catalog is
// dumped to it afterwards.
func run(path string, timeout time.Duration, cfg *config.Config, log *zap.Logger, out io.Writer) error {
	catalog, err := readCatalog(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Dialect:      sqlstore.Dialect(cfg.Database.Driver),
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, log.Named("sqlstore"))
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewCatalogService(store.Contents(), store.Categories(), store, log.Named("catalog"))
	res, err := svc.Import(ctx, catalog)
	if err != nil {
		return err
	}

	log.Info("seed complete",
		zap.String("file", path),
		zap.String("database", string(store.Dialect())),
		zap.Int("categories_created", res.CategoriesCreated),
		zap.Int("categories_reused", res.CategoriesReused),
		zap.Int("content_created", res.ContentCreated),
	)

	if out == nil {
		return nil
	}
	return dump(ctx, svc, out)
}

// dump writes every category, then every content row with its categories.
func dump(ctx context.Context, svc *service.CatalogService, out io.Writer) error {
	cats, err := svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	items, err := svc.ListContent(ctx)
	if err != nil {
		return err
	}

	doc := struct {
		Categories []map[string]any `json:"categories"`
		Content    []map[string]any `json:"content"`
	}{
		Categories: make([]map[string]any, 0, len(cats)),
		Content:    make([]map[string]any, 0, len(items)),
	}
	for i := range cats {
		doc.Categories = append(doc.Categories, cats[i].Serialize())
	}
	for i := range items {
		linked, err := svc.CategoriesOf(ctx, items[i].ID)
		if err != nil {
			return err
		}
		row := items[i].Serialize()
		rowCats := make([]map[string]any, 0, len(linked))
		for j := range linked {
			rowCats = append(rowCats, linked[j].Serialize())
		}
		row["categories"] = rowCats
		doc.Content = append(doc.Content, row)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

func readCatalog(path string) (service.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return service.Catalog{}, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	var catalog service.Catalog
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&catalog); err != nil {
		return service.Catalog{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return catalog, nil
}
