// Command monitor runs one incremental crawl-merge-tag cycle over every
// configured product.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Yrzhe/vibe-coding-product-changelog/internal/oracle"
	"github.com/Yrzhe/vibe-coding-product-changelog/internal/scraper"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/config"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Configuration file")
		product    = flag.String("product", "", "Limit the run to one product (optional)")
	)
	flag.Parse()

	ctx := context.Background()

	loader := config.Loader{ConfigPath: *configPath}
	components, err := loader.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	defer components.Store.Close()

	cfg := components.Config
	engine := changelog.New(changelog.Options{
		Store: components.Store,
		Oracle: oracle.New(oracle.Config{
			BaseURL:     cfg.Oracle.BaseURL,
			APIKey:      cfg.Oracle.APIKey,
			Model:       cfg.Oracle.Model,
			MaxRetries:  cfg.Oracle.MaxRetries,
			RetryDelay:  cfg.Oracle.RetryDelayDuration(),
			CallTimeout: cfg.Oracle.CallTimeoutDuration(),
		}),
		Scraper:     scraper.NewChangelogScraper(components.Store),
		OraclePause: cfg.Oracle.PauseDuration(),
	})

	metas := components.ProductMetas()
	if *product != "" {
		selected := metas[:0:0]
		for _, m := range metas {
			if m.Name == *product {
				selected = append(selected, m)
			}
		}
		if len(selected) == 0 {
			log.Fatalf("Product %q not in configuration", *product)
		}
		metas = selected
	}

	entry, err := engine.MonitorAll(ctx, metas)
	if err != nil {
		log.Fatal("Monitor run failed: ", err)
	}

	for name, result := range entry.Updates {
		log.Printf("%s: %s (%d -> %d features, %d new)",
			name, result.Status, result.OldCount, result.TotalCount, result.NewCount)
	}
	log.Printf("Done: %d new features across %d products", entry.TotalNew(), len(entry.Updates))
}
