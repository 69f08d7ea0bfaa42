// Package filestore persists documents as JSON files, matching the
// original storage layout: storage/<product>.json per product,
// info/tag.json for the taxonomy, info/run_status.json for bookkeeping
// and logs/update_<id>.json per monitor run.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/runlog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// Store is a file-backed implementation of store.Store.
type Store struct {
	root string
}

// Open prepares the directory layout under root.
func Open(root string) (*Store, error) {
	for _, dir := range []string{"storage", "info", "logs"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("filestore: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

func (s *Store) productPath(name string) string {
	return filepath.Join(s.root, "storage", name+".json")
}

// ListProducts scans storage/ for product documents.
func (s *Store) ListProducts(ctx context.Context) ([]store.ProductMeta, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "storage"))
	if err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	var metas []store.ProductMeta
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		doc, ok, err := s.LoadProduct(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil || !ok {
			continue
		}
		metas = append(metas, doc.Meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// LoadProduct reads and decodes one product document.
func (s *Store) LoadProduct(ctx context.Context, name string) (store.ProductDoc, bool, error) {
	data, err := os.ReadFile(s.productPath(name))
	if os.IsNotExist(err) {
		return store.ProductDoc{}, false, nil
	}
	if err != nil {
		return store.ProductDoc{}, false, fmt.Errorf("filestore: %w", err)
	}
	doc, err := store.DecodeProductDoc(data)
	if err != nil {
		return store.ProductDoc{}, false, fmt.Errorf("product %s: %w", name, err)
	}
	return doc, true, nil
}

// SaveProduct rewrites the whole product file.
func (s *Store) SaveProduct(ctx context.Context, doc store.ProductDoc) error {
	if doc.Meta.Name == "" {
		return internalerr.ErrInvalidInput
	}
	data, err := store.EncodeProductDoc(doc)
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	return os.WriteFile(s.productPath(doc.Meta.Name), data, 0o644)
}

// DeleteProduct removes the product file.
func (s *Store) DeleteProduct(ctx context.Context, name string) error {
	err := os.Remove(s.productPath(name))
	if os.IsNotExist(err) {
		return internalerr.ErrNotFound
	}
	return err
}

// LoadTaxonomy reads info/tag.json.
func (s *Store) LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, bool, error) {
	path := filepath.Join(s.root, "info", "tag.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return taxonomy.Taxonomy{}, false, nil
	}
	if err != nil {
		return taxonomy.Taxonomy{}, false, fmt.Errorf("filestore: %w", err)
	}
	var tax taxonomy.Taxonomy
	if err := json.Unmarshal(data, &tax); err != nil {
		return taxonomy.Taxonomy{}, false, fmt.Errorf("filestore: tag.json: %w", err)
	}
	return tax, true, nil
}

// SaveTaxonomy rewrites info/tag.json.
func (s *Store) SaveTaxonomy(ctx context.Context, tax taxonomy.Taxonomy) error {
	data, err := json.MarshalIndent(tax, "", "    ")
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	return os.WriteFile(filepath.Join(s.root, "info", "tag.json"), data, 0o644)
}

// LoadRawChangelog reads storage/<product>_changelog_raw.txt.
func (s *Store) LoadRawChangelog(ctx context.Context, product string) (string, bool, error) {
	path := filepath.Join(s.root, "storage", product+"_changelog_raw.txt")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("filestore: %w", err)
	}
	return string(data), true, nil
}

// SaveRawChangelog rewrites storage/<product>_changelog_raw.txt.
func (s *Store) SaveRawChangelog(ctx context.Context, product, content string) error {
	path := filepath.Join(s.root, "storage", product+"_changelog_raw.txt")
	return os.WriteFile(path, []byte(content), 0o644)
}

// LoadRunStatus reads info/run_status.json, empty when missing.
func (s *Store) LoadRunStatus(ctx context.Context) (store.RunStatus, error) {
	data, err := os.ReadFile(filepath.Join(s.root, "info", "run_status.json"))
	if os.IsNotExist(err) {
		return store.RunStatus{}, nil
	}
	if err != nil {
		return store.RunStatus{}, fmt.Errorf("filestore: %w", err)
	}
	var status store.RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return store.RunStatus{}, fmt.Errorf("filestore: run_status.json: %w", err)
	}
	return status, nil
}

// SaveRunStatus rewrites info/run_status.json.
func (s *Store) SaveRunStatus(ctx context.Context, status store.RunStatus) error {
	data, err := json.MarshalIndent(status, "", "    ")
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	return os.WriteFile(filepath.Join(s.root, "info", "run_status.json"), data, 0o644)
}

// AppendRunLog writes logs/update_<id>.json.
func (s *Store) AppendRunLog(ctx context.Context, entry runlog.Entry) error {
	data, err := json.MarshalIndent(entry, "", "    ")
	if err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	path := filepath.Join(s.root, "logs", "update_"+entry.ID+".json")
	return os.WriteFile(path, data, 0o644)
}
