package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/joinboard/internal/app"
	"github.com/hylla/joinboard/internal/doctree"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores one JSON tree per top-level document key.
type Repository struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS documents (
			root_key TEXT PRIMARY KEY,
			body_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Get decodes the value at path into out. A missing value leaves out untouched.
func (r *Repository) Get(ctx context.Context, path string, out any) error {
	segments, err := app.SplitPath(path)
	if err != nil {
		return err
	}
	var value any
	if len(segments) == 0 {
		value, err = loadAll(ctx, r.db)
	} else {
		var tree any
		tree, err = loadRoot(ctx, r.db, segments[0])
		value = doctree.Get(tree, segments[1:])
	}
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	return json.Unmarshal(raw, out)
}

// Put replaces the value at path.
func (r *Repository) Put(ctx context.Context, path string, value any) error {
	segments, err := app.SplitPath(path)
	if err != nil {
		return err
	}
	normalized, err := doctree.Normalize(value)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	return r.write(ctx, segments, normalized)
}

// Delete removes the value at path.
func (r *Repository) Delete(ctx context.Context, path string) error {
	segments, err := app.SplitPath(path)
	if err != nil {
		return err
	}
	return r.write(ctx, segments, nil)
}

// write applies one tree edit inside a transaction.
func (r *Repository) write(ctx context.Context, segments []string, value any) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := ts(time.Now())
	if len(segments) == 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
			return err
		}
		roots, ok := value.(map[string]any)
		if value != nil && !ok {
			err = fmt.Errorf("%w: root value must be an object", app.ErrInvalidPath)
			return err
		}
		for key, tree := range roots {
			if err = app.ValidateSegment(key); err != nil {
				return err
			}
			if err = storeRoot(ctx, tx, key, tree, now); err != nil {
				return err
			}
		}
		return tx.Commit()
	}

	tree, err := loadRoot(ctx, tx, segments[0])
	if err != nil {
		return err
	}
	tree = doctree.Set(tree, segments[1:], value)
	if err = storeRoot(ctx, tx, segments[0], tree, now); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// queryRower represents query rower data used by this package.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// execerContext represents execer context data used by this package.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func loadRoot(ctx context.Context, q queryRower, key string) (any, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body_json FROM documents WHERE root_key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	return tree, nil
}

func loadAll(ctx context.Context, db *sql.DB) (any, error) {
	rows, err := db.QueryContext(ctx, `SELECT root_key, body_json FROM documents ORDER BY root_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return nil, err
		}
		var tree any
		if err := json.Unmarshal([]byte(body), &tree); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", key, err)
		}
		out[key] = tree
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func storeRoot(ctx context.Context, execer execerContext, key string, tree any, now string) error {
	if tree == nil {
		_, err := execer.ExecContext(ctx, `DELETE FROM documents WHERE root_key = ?`, key)
		return err
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO documents(root_key, body_json, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(root_key) DO UPDATE SET body_json = excluded.body_json, updated_at = excluded.updated_at
	`, key, string(body), now)
	return err
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
