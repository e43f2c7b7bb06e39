package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the ledger in a violation_users table. Save
// replaces the whole table in one transaction, mirroring the wholesale
// rewrite semantics of the file store.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS violation_users (
  position         INT PRIMARY KEY,
  uid              BIGINT NOT NULL UNIQUE,
  username         TEXT NOT NULL,
  violation_count  INT NOT NULL,
  comment_rpids    BIGINT[] NOT NULL,
  comment_contents TEXT[] NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
SELECT username, uid, violation_count, comment_rpids, comment_contents
FROM violation_users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("ledger load: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Username, &r.UID, &r.ViolationCount, &r.CommentRPIDs, &r.CommentContents); err != nil {
			return nil, fmt.Errorf("ledger scan: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger load: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) Save(ctx context.Context, recs []Record) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("ledger save begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM violation_users`); err != nil {
		return fmt.Errorf("ledger save clear: %w", err)
	}
	for i, r := range recs {
		if _, err := tx.Exec(ctx, `
INSERT INTO violation_users (position, uid, username, violation_count, comment_rpids, comment_contents)
VALUES ($1, $2, $3, $4, $5, $6)`,
			i, r.UID, r.Username, r.ViolationCount, r.CommentRPIDs, r.CommentContents); err != nil {
			return fmt.Errorf("ledger save uid %d: %w", r.UID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger save commit: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
