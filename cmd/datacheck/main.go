// Command datacheck reports per-product data quality and optionally
// prunes known junk entries.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/config"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/quality"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Configuration file")
		prune      = flag.String("prune", "", "Product to prune (optional)")
		junk       = flag.String("junk", "", "Comma-separated junk titles to remove when pruning")
	)
	flag.Parse()

	ctx := context.Background()

	loader := config.Loader{ConfigPath: *configPath}
	components, err := loader.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	defer components.Store.Close()

	if *prune != "" {
		var junkTitles []string
		for _, t := range strings.Split(*junk, ",") {
			if t = strings.TrimSpace(t); t != "" {
				junkTitles = append(junkTitles, t)
			}
		}
		removed, cleared, err := quality.PruneInvalid(ctx, components.Store, *prune, junkTitles)
		if err != nil {
			log.Fatal("Prune failed: ", err)
		}
		log.Printf("%s: removed %d entries, cleared %d dates", *prune, removed, cleared)
	}

	reports, err := quality.Check(ctx, components.Store)
	if err != nil {
		log.Fatal("Check failed: ", err)
	}

	total := 0
	for _, r := range reports {
		mark := "OK"
		if !r.Healthy() {
			mark = "WARN"
		}
		log.Printf("[%s] %s: %d features (%d dated, %d tagged, %d n/a, %d pending)",
			mark, r.Product, r.Total, r.WithDate, r.Tagged, r.NotApplicable, r.Untagged)
		total += r.Total
	}
	log.Printf("Total: %d features across %d products", total, len(reports))
}
