// Package sqlite provides SQLite-backed persistence for calc resources.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/storage/sqlitemigrate"
	calcstorage "github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/storage"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for resource documents.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens and migrates a calc SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutDocument upserts one resource document.
func (s *Store) PutDocument(ctx context.Context, doc calcstorage.ResourceDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	doc.Kind = strings.TrimSpace(doc.Kind)
	doc.ID = strings.TrimSpace(doc.ID)
	if doc.Kind == "" || doc.ID == "" {
		return fmt.Errorf("document kind and id are required")
	}
	if strings.TrimSpace(doc.DataJSON) == "" {
		return fmt.Errorf("document payload is required")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO resource_documents (
		    kind, id, owner_user_id, data_json, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET
		    owner_user_id = excluded.owner_user_id,
		    data_json = excluded.data_json,
		    updated_at = excluded.updated_at`,
		doc.Kind,
		doc.ID,
		strings.TrimSpace(doc.OwnerUserID),
		doc.DataJSON,
		toMillis(doc.CreatedAt),
		toMillis(doc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put resource document: %w", err)
	}
	return nil
}

// GetDocument loads one resource document by kind and id.
func (s *Store) GetDocument(ctx context.Context, kind string, id string) (calcstorage.ResourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return calcstorage.ResourceDocument{}, err
	}
	if s == nil || s.sqlDB == nil {
		return calcstorage.ResourceDocument{}, fmt.Errorf("storage is not configured")
	}
	kind = strings.TrimSpace(kind)
	id = strings.TrimSpace(id)
	if kind == "" || id == "" {
		return calcstorage.ResourceDocument{}, fmt.Errorf("document kind and id are required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT kind, id, owner_user_id, data_json, created_at, updated_at
		 FROM resource_documents
		 WHERE kind = ? AND id = ?`,
		kind,
		id,
	)

	var doc calcstorage.ResourceDocument
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(&doc.Kind, &doc.ID, &doc.OwnerUserID, &doc.DataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calcstorage.ResourceDocument{}, calcstorage.ErrNotFound
		}
		return calcstorage.ResourceDocument{}, fmt.Errorf("get resource document: %w", err)
	}
	doc.CreatedAt = fromMillis(createdAt)
	doc.UpdatedAt = fromMillis(updatedAt)
	return doc, nil
}

// DeleteDocument removes one resource document by kind and id.
func (s *Store) DeleteDocument(ctx context.Context, kind string, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	kind = strings.TrimSpace(kind)
	id = strings.TrimSpace(id)
	if kind == "" || id == "" {
		return fmt.Errorf("document kind and id are required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM resource_documents WHERE kind = ? AND id = ?`,
		kind,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete resource document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete resource document: %w", err)
	}
	if affected == 0 {
		return calcstorage.ErrNotFound
	}
	return nil
}
