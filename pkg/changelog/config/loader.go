package config

import (
	"context"
	"fmt"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store/filestore"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store/sqlite"
)

// Loader loads the configuration file and constructs the store it names.
type Loader struct {
	ConfigPath string
}

// Components holds the loaded configuration and the opened store.
type Components struct {
	Config *Config
	Store  store.Store
}

// Load reads the configuration and opens the configured backend.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg, err := Load(l.ConfigPath)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Storage.Backend {
	case "files":
		st, err = filestore.Open(cfg.Storage.Path)
	default:
		st, err = sqlite.Open(ctx, cfg.Storage.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}

	return &Components{Config: cfg, Store: st}, nil
}

// ProductMetas converts configured products to store metadata.
func (c *Components) ProductMetas() []store.ProductMeta {
	metas := make([]store.ProductMeta, len(c.Config.Products))
	for i, p := range c.Config.Products {
		metas[i] = store.ProductMeta{Name: p.Name, URL: p.URL, IsSelf: p.IsSelf}
	}
	return metas
}
