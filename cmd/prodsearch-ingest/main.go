package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/bootstrap"
	"github.com/kailas-cloud/prodsearch/internal/config"
	dombatch "github.com/kailas-cloud/prodsearch/internal/domain/batch"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	cataloguc "github.com/kailas-cloud/prodsearch/internal/usecase/catalog"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
	"github.com/kailas-cloud/prodsearch/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		_, _ = fmt.Fprintln(c.App.Writer, version.String())
	}

	return &cli.App{
		Name:    "prodsearch-ingest",
		Usage:   "Load product catalogs and run one-off searches",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Embed and store products from a CSV file",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV with product_id,product_name,category,price,rating,specifications columns",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding batches (0 = config value)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Products per embedding request (0 = config value)",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Run a single search against the stored catalog",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search text",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Ranking mode: additive-rating or weighted-blend (default from config)",
					},
					&cli.Float64Flag{
						Name:  "min-price",
						Value: 0,
					},
					&cli.Float64Flag{
						Name:  "max-price",
						Value: 500000,
					},
					&cli.StringFlag{
						Name:  "category",
						Value: filter.CategoryAll,
					},
				},
			},
		},
	}
}

// setup loads config and logger for the selected environment.
func setup(c *cli.Context) (config.Config, *zap.Logger, error) {
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func loadCommand(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()

	items, err := readItems(f)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	res, err := bootstrap.Open(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer res.Close()

	ingestCfg := cataloguc.Config{Workers: cfg.Ingest.Workers, BatchSize: cfg.Ingest.BatchSize}
	if w := c.Int("workers"); w > 0 {
		ingestCfg.Workers = w
	}
	if b := c.Int("batch-size"); b > 0 {
		ingestCfg.BatchSize = b
	}

	embedder := res.Embedder(&cfg, cfg.Embedding.DocumentInstruction, logger)
	svc := cataloguc.New(res.Catalog, embedder, ingestCfg, logger)

	logger.Info("Loading catalog", zap.String("file", c.String("file")), zap.Int("items", len(items)))
	report, err := svc.Ingest(ctx, items)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	printReport(c.App.Writer, report)
	if report.Stored() == 0 && report.Total() > 0 {
		return cli.Exit("no products stored", 1)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m := mode.Mode(cfg.Search.DefaultMode)
	if s := c.String("mode"); s != "" {
		if m, err = mode.Parse(s); err != nil {
			return err
		}
	}
	req, err := request.New(c.String("query"), c.Float64("min-price"), c.Float64("max-price"), c.String("category"), m)
	if err != nil {
		return err
	}

	res, err := bootstrap.Open(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer res.Close()

	embedder := res.Embedder(&cfg, cfg.Embedding.QueryInstruction, logger)
	engine := bootstrap.Engine(&cfg.Search, nil, logger)
	svc := searchuc.New(res.Catalog, embedder, engine, cfg.Search.ChatMaxPrice, logger)

	ranking, err := svc.Search(ctx, &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	printRanking(c.App.Writer, ranking)
	return nil
}

func printReport(w io.Writer, r dombatch.Report) {
	_, _ = fmt.Fprintf(w, "total=%d stored=%d rejected=%d\n", r.Total(), r.Stored(), r.Rejected())
	for _, f := range r.Failures() {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", f.ID(), f.Err())
	}
}

func printRanking(w io.Writer, r result.Ranking) {
	_, _ = fmt.Fprintf(w, "mode=%s results=%d\n", r.Mode(), r.Len())
	for i, c := range r.Candidates() {
		p := c.Product()
		_, _ = fmt.Fprintf(w, "%2d. %-10s score=%.4f sim=%.4f boost=%.2f %-9s %s (%s, %.2f)\n",
			i+1, p.ID(), c.Score(), c.Similarity(), c.KeywordBoost(), c.MatchType(),
			p.Name(), p.Category(), p.Price())
	}
}
