// Package fallback provides the on-device menu snapshot consulted when
// the remote menu API is unavailable. The snapshot is a plain SQLite
// table; filters are never honored here, this is the degraded path.
package fallback

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/plateful/menu-catalog/pkg/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS menu_items (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	cuisine     TEXT NOT NULL DEFAULT '',
	price       REAL NOT NULL DEFAULT 0,
	currency    TEXT NOT NULL DEFAULT '',
	rating      REAL NOT NULL DEFAULT 0,
	available   INTEGER NOT NULL DEFAULT 1,
	image_url   TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL
)`

// SQLiteSource serves the local menu snapshot. It implements the
// repository's FallbackSource interface.
type SQLiteSource struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewSQLiteSource(db)
}

// NewSQLiteSource wraps an existing database handle, creating the
// snapshot table when missing.
func NewSQLiteSource(db *sql.DB) (*SQLiteSource, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create menu_items table: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Items returns up to limit snapshot items in stored order.
// The returned page never carries a continuation cursor.
func (s *SQLiteSource) Items(ctx context.Context, limit int) (*catalog.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, category, cuisine, price, currency, rating, available, image_url
		 FROM menu_items ORDER BY position LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var items []catalog.MenuItem
	for rows.Next() {
		var (
			item      catalog.MenuItem
			id        string
			available int
		)
		if err := rows.Scan(&id, &item.Name, &item.Description, &item.Category, &item.Cuisine,
			&item.Price, &item.Currency, &item.Rating, &available, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		item.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse item id %q: %w", id, err)
		}
		item.Available = available != 0

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot rows: %w", err)
	}

	return &catalog.Page{Items: items}, nil
}

// Replace swaps the snapshot wholesale inside one transaction.
func (s *SQLiteSource) Replace(ctx context.Context, items []catalog.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM menu_items`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO menu_items (id, name, description, category, cuisine, price, currency, rating, available, image_url, position)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		available := 0
		if item.Available {
			available = 1
		}
		if _, err = stmt.ExecContext(ctx,
			item.ID.String(), item.Name, item.Description, item.Category, item.Cuisine,
			item.Price, item.Currency, item.Rating, available, item.ImageURL, i); err != nil {
			return fmt.Errorf("insert snapshot item %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
