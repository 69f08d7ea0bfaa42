// Command changelog-api serves the admin HTTP surface: login, raw
// changelog upload, taxonomy maintenance and run triggers.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Yrzhe/vibe-coding-product-changelog/internal/httpapi"
	"github.com/Yrzhe/vibe-coding-product-changelog/internal/oracle"
	"github.com/Yrzhe/vibe-coding-product-changelog/internal/scraper"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/admin"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/config"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Configuration file")
		listen     = flag.String("listen", "", "Listen address (overrides configuration)")
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
	if cfg.Admin.Password == "" {
		log.Fatal("admin.password must be set to serve the API")
	}

	oracleClient := oracle.New(oracle.Config{
		BaseURL:     cfg.Oracle.BaseURL,
		APIKey:      cfg.Oracle.APIKey,
		Model:       cfg.Oracle.Model,
		MaxRetries:  cfg.Oracle.MaxRetries,
		RetryDelay:  cfg.Oracle.RetryDelayDuration(),
		CallTimeout: cfg.Oracle.CallTimeoutDuration(),
	})

	engine := changelog.New(changelog.Options{
		Store:       components.Store,
		Oracle:      oracleClient,
		Scraper:     scraper.NewChangelogScraper(components.Store),
		OraclePause: cfg.Oracle.PauseDuration(),
	})

	server := httpapi.New(httpapi.Options{
		Engine:     engine,
		Admin:      &admin.Service{Store: components.Store},
		Chatter:    oracleClient,
		Products:   components.ProductMetas(),
		Password:   cfg.Admin.Password,
		SessionTTL: cfg.Admin.SessionTTL,
	})

	addr := cfg.Admin.Listen
	if *listen != "" {
		addr = *listen
	}
	log.Printf("Admin API listening on %s", addr)
	if err := server.Router().Run(addr); err != nil {
		log.Fatal("Server failed: ", err)
	}
}
