package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/registry"
)

var _ registry.Cache = (*Store)(nil)

// Get returns the stored declaration of sym. Entries whose file is gone or
// changed are dropped and reported as a miss.
func (s *Store) Get(ctx context.Context, sym id.ID) (declaration.Declaration, bool, error) {
	var path, hash string
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT f.path, f.hash, d.payload
		FROM declarations d JOIN files f ON f.id = d.file_id
		WHERE d.key = ? AND d.symbol = ?
		ORDER BY d.id LIMIT 1`,
		SymbolKey(sym), sym.Encode(),
	).Scan(&path, &hash, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", sym.Encode(), err)
	}

	code, err := os.ReadFile(path)
	if err != nil || ContentHash(code) != hash {
		s.logger.Debug("dropping stale cache entries", "path", path)
		if err := s.InvalidatePath(ctx, path); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	d, err := decode(payload)
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", sym.Encode(), err)
	}
	return d, true, nil
}

// Put replaces everything stored for path with decls.
func (s *Store) Put(ctx context.Context, path string, code []byte, decls []declaration.Declaration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files (path, hash, last_indexed) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, last_indexed = excluded.last_indexed`,
		path, ContentHash(code), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert file %s: %w", path, err)
	}
	var fileID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM files WHERE path = ?`, path).Scan(&fileID); err != nil {
		return fmt.Errorf("store: file id %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM declarations WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("store: clear %s: %w", path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO declarations (file_id, key, symbol, kind, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()
	for _, d := range decls {
		if !cacheable(d) {
			continue
		}
		payload, err := encode(d)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		sym := d.SymbolID()
		if _, err := stmt.ExecContext(ctx, fileID, SymbolKey(sym), sym.Encode(), kindOf(d), payload); err != nil {
			return fmt.Errorf("store: insert %s: %w", sym.Encode(), err)
		}
	}
	return tx.Commit()
}

// InvalidatePath forgets path and its declarations.
func (s *Store) InvalidatePath(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: invalidate %s: %w", path, err)
	}
	return nil
}

// File returns the stored record for path.
func (s *Store) File(ctx context.Context, path string) (*File, error) {
	f := &File{}
	var indexed sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT id, path, hash, last_indexed FROM files WHERE path = ?`, path).
		Scan(&f.ID, &f.Path, &f.Hash, &indexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file %s: %w", path, err)
	}
	f.LastIndexed = indexed.Time
	return f, nil
}

// Stats counts stored files and declarations.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Kinds: make(map[string]int)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&st.Files); err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM declarations GROUP BY kind`)
	if err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return st, fmt.Errorf("store: stats: %w", err)
		}
		st.Kinds[kind] = n
		st.Declarations += n
	}
	return st, rows.Err()
}
