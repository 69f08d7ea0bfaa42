// Package sqlite persists documents in a single SQLite database, one row
// per document. Each mutation still rewrites the whole document, keeping
// the same resumability and idempotent-retry properties as the file
// layout while gaining WAL-protected writes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/runlog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes the
// schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
	name TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS taxonomy (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS raw_changelogs (
	product TEXT PRIMARY KEY,
	content TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_status (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_logs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	doc TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ListProducts returns metadata for every stored product, name-sorted.
func (s *sqliteStore) ListProducts(ctx context.Context) ([]store.ProductMeta, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []store.ProductMeta
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := store.DecodeProductDoc([]byte(raw))
		if err != nil {
			return nil, err
		}
		metas = append(metas, doc.Meta)
	}
	return metas, rows.Err()
}

// LoadProduct reads and decodes one product document.
func (s *sqliteStore) LoadProduct(ctx context.Context, name string) (store.ProductDoc, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM products WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return store.ProductDoc{}, false, nil
	}
	if err != nil {
		return store.ProductDoc{}, false, err
	}
	doc, err := store.DecodeProductDoc([]byte(raw))
	if err != nil {
		return store.ProductDoc{}, false, fmt.Errorf("product %s: %w", name, err)
	}
	return doc, true, nil
}

// SaveProduct rewrites the whole product document row.
func (s *sqliteStore) SaveProduct(ctx context.Context, doc store.ProductDoc) error {
	if doc.Meta.Name == "" {
		return internalerr.ErrInvalidInput
	}
	data, err := store.EncodeProductDoc(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (name, doc) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET doc = excluded.doc`,
		doc.Meta.Name, string(data))
	return err
}

// DeleteProduct removes a product row.
func (s *sqliteStore) DeleteProduct(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internalerr.ErrNotFound
	}
	return nil
}

// LoadTaxonomy reads the taxonomy document.
func (s *sqliteStore) LoadTaxonomy(ctx context.Context) (taxonomy.Taxonomy, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM taxonomy WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return taxonomy.Taxonomy{}, false, nil
	}
	if err != nil {
		return taxonomy.Taxonomy{}, false, err
	}
	var tax taxonomy.Taxonomy
	if err := json.Unmarshal([]byte(raw), &tax); err != nil {
		return taxonomy.Taxonomy{}, false, fmt.Errorf("taxonomy document: %w", err)
	}
	return tax, true, nil
}

// SaveTaxonomy rewrites the taxonomy document row.
func (s *sqliteStore) SaveTaxonomy(ctx context.Context, tax taxonomy.Taxonomy) error {
	data, err := json.Marshal(tax)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO taxonomy (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		string(data))
	return err
}

// LoadRawChangelog reads the stored raw changelog text.
func (s *sqliteStore) LoadRawChangelog(ctx context.Context, product string) (string, bool, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM raw_changelogs WHERE product = ?`, product).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// SaveRawChangelog rewrites the raw changelog row.
func (s *sqliteStore) SaveRawChangelog(ctx context.Context, product, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_changelogs (product, content) VALUES (?, ?)
		ON CONFLICT(product) DO UPDATE SET content = excluded.content`,
		product, content)
	return err
}

// LoadRunStatus reads the run bookkeeping document, empty when missing.
func (s *sqliteStore) LoadRunStatus(ctx context.Context) (store.RunStatus, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM run_status WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return store.RunStatus{}, nil
	}
	if err != nil {
		return store.RunStatus{}, err
	}
	var status store.RunStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return store.RunStatus{}, fmt.Errorf("run status document: %w", err)
	}
	return status, nil
}

// SaveRunStatus rewrites the run bookkeeping row.
func (s *sqliteStore) SaveRunStatus(ctx context.Context, status store.RunStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_status (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		string(data))
	return err
}

// AppendRunLog records a monitor run.
func (s *sqliteStore) AppendRunLog(ctx context.Context, entry runlog.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_logs (id, created_at, doc) VALUES (?, ?, ?)`,
		entry.ID, entry.Timestamp.Format("2006-01-02T15:04:05Z07:00"), string(data))
	return err
}
