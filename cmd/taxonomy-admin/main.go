// Command taxonomy-admin renames or merges taxonomy nodes from the
// command line, propagating the change into every product document.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/admin"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/config"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Configuration file")
		kind       = flag.String("kind", "subtag", "Node kind: primary or subtag")
		oldName    = flag.String("old", "", "Current node name (required)")
		newName    = flag.String("new", "", "New node name (required)")
	)
	flag.Parse()

	if *oldName == "" {
		log.Fatal("--old required")
	}
	if *newName == "" {
		log.Fatal("--new required")
	}

	ctx := context.Background()

	loader := config.Loader{ConfigPath: *configPath}
	components, err := loader.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	defer components.Store.Close()

	service := &admin.Service{Store: components.Store}
	result, err := service.RenameOrMerge(ctx, *oldName, *newName, admin.Kind(*kind))
	if err != nil {
		log.Fatal("Operation failed: ", err)
	}

	log.Printf("%s %q -> %q: %d assignments across %d products updated",
		result.Mode, *oldName, *newName, result.AffectedAssignments, result.AffectedProducts)
}
