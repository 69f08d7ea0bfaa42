// Command tagger classifies pending features without crawling. Useful
// after an interrupted run or a taxonomy change that reset entries.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/Yrzhe/vibe-coding-product-changelog/internal/oracle"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/config"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Configuration file")
		product    = flag.String("product", "", "Limit the run to one product (optional)")
		limit      = flag.Int("limit", 0, "Max features to classify per product (0 = all)")
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
		OraclePause: cfg.Oracle.PauseDuration(),
	})

	var names []string
	if *product != "" {
		names = []string{*product}
	} else {
		metas, err := components.Store.ListProducts(ctx)
		if err != nil {
			log.Fatal("Failed to list products: ", err)
		}
		for _, m := range metas {
			names = append(names, m.Name)
		}
	}

	for _, name := range names {
		report, err := engine.TagPending(ctx, name, *limit)
		if err != nil {
			log.Printf("%s: tagging failed: %v", name, err)
			continue
		}
		log.Printf("%s: processed %d (tagged %d, skipped %d, pending %d)",
			name, report.Processed, report.Tagged, report.Skipped, report.Pending)
		if len(report.NewSubtags) > 0 {
			log.Printf("%s: new subtags: %s", name, strings.Join(report.NewSubtags, ", "))
		}
	}
}
