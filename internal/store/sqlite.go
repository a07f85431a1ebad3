package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/taskmirror/pkg/debug"
	"github.com/vanderheijden86/taskmirror/pkg/metrics"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

const busyRetryMaxElapsed = 10 * time.Second

func newBusyBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxElapsedTime = busyRetryMaxElapsed
	return bo
}

// isBusy reports whether err is SQLite lock contention worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_locked")
}

// SQLite is a Store kept in a single SQLite file.
type SQLite struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens or creates the store at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	debug.Log("store: opened %s", path)
	return &SQLite{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file.
func (s *SQLite) Path() string {
	return s.path
}

// Close implements Store.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withRetry runs op again while it fails with lock contention.
func (s *SQLite) withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isBusy(err) {
			debug.Log("store: busy, retrying: %v", err)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(newBusyBackoff(), ctx))
}

// Apply implements Store. All operations run in one transaction.
func (s *SQLite) Apply(ctx context.Context, ops []mirror.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	defer metrics.Timer(metrics.ApplyDuration)()

	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stamp := s.now().UTC().Format(time.RFC3339)
		for i, op := range ops {
			if err := applySQLiteOp(ctx, tx, op, stamp); err != nil {
				return fmt.Errorf("operation %d (%s %s): %w", i, op.Kind, op.ID, err)
			}
		}
		return tx.Commit()
	})
}

func applySQLiteOp(ctx context.Context, tx *sql.Tx, op mirror.Operation, stamp string) error {
	switch op.Kind {
	case mirror.KindCreateHeader, mirror.KindCreateItem:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, parent_id, content, state, indent, position, updated_at)
			VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM items), ?)
			ON CONFLICT(id) DO UPDATE SET
				parent_id = excluded.parent_id,
				content = excluded.content,
				state = excluded.state,
				indent = excluded.indent,
				updated_at = excluded.updated_at
		`, op.ID, nullString(op.ParentID), op.Content, string(op.State), op.Indent, stamp)
		return err

	case mirror.KindUpdateItem:
		var sets []string
		var args []any
		if op.Has(mirror.FieldContent) {
			sets = append(sets, "content = ?")
			args = append(args, op.Content)
		}
		if op.Has(mirror.FieldState) {
			sets = append(sets, "state = ?")
			args = append(args, string(op.State))
		}
		if len(sets) == 0 {
			return nil
		}
		sets = append(sets, "updated_at = ?")
		args = append(args, stamp, op.ID)
		_, err := tx.ExecContext(ctx, "UPDATE items SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		return err

	case mirror.KindSetMetadata:
		meta, err := decodeMetadata(op.Metadata)
		if err != nil {
			return err
		}
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, op.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return nil
		}
		if op.Merge {
			var current string
			err := tx.QueryRowContext(ctx, `SELECT data FROM item_metadata WHERE item_id = ?`, op.ID).Scan(&current)
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return err
			default:
				old, err := decodeMetadata([]byte(current))
				if err != nil {
					return err
				}
				meta = mergeMetadata(old, meta)
			}
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO item_metadata (item_id, data) VALUES (?, ?)
			ON CONFLICT(item_id) DO UPDATE SET data = excluded.data
		`, op.ID, string(data))
		return err

	case mirror.KindDeleteItem:
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, op.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM item_metadata WHERE item_id = ?`, op.ID)
		return err

	default:
		return fmt.Errorf("unsupported operation kind %d", int(op.Kind))
	}
}

// List implements Store.
func (s *SQLite) List(ctx context.Context) ([]Item, error) {
	var items []Item
	err := s.withRetry(ctx, func() error {
		var err error
		items, err = s.query(ctx, "")
		return err
	})
	return items, err
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, id string) (Item, error) {
	var items []Item
	err := s.withRetry(ctx, func() error {
		var err error
		items, err = s.query(ctx, id)
		return err
	})
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return items[0], nil
}

func (s *SQLite) query(ctx context.Context, id string) ([]Item, error) {
	query := `
		SELECT i.id, i.parent_id, i.content, i.state, i.indent, i.position, m.data
		FROM items i
		LEFT JOIN item_metadata m ON m.item_id = i.id
	`
	var args []any
	if id != "" {
		query += ` WHERE i.id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY i.position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it       Item
			parentID sql.NullString
			state    string
			data     sql.NullString
		)
		if err := rows.Scan(&it.ID, &parentID, &it.Content, &state, &it.Indent, &it.Position, &data); err != nil {
			return nil, err
		}
		if parentID.Valid {
			it.ParentID = parentID.String
		}
		it.State = model.VisualState(state)
		if data.Valid {
			meta, err := decodeMetadata([]byte(data.String))
			if err != nil {
				debug.Log("store: bad metadata on %s: %v", it.ID, err)
			} else if len(meta) > 0 {
				it.Metadata = meta
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
