package consent

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
	"lethe/pkg/platform/tx"
)

// execer is the subset of *sql.DB and *sql.Tx the store needs, so every
// query transparently joins a transaction carried in the context.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists legal reasons in Postgres. Schema lives in
// migrations/postgres.
type PostgresStore struct {
	pool *sql.DB
}

func NewPostgresStore(pool *sql.DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) db(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.pool
}

const reasonColumns = `id, entity_type, entity_id, purpose_slugs, issued_at, expires_at, active, tag, created_at`

func (s *PostgresStore) Save(ctx context.Context, lr *LegalReason) error {
	_, err := s.db(ctx).ExecContext(ctx, `
		INSERT INTO legal_reasons (id, entity_type, entity_id, purpose_slugs, issued_at, expires_at, active, tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lr.ID, lr.Entity.Type, lr.Entity.ID, pq.Array(lr.Purposes),
		lr.IssuedAt, lr.ExpiresAt, lr.Active, lr.Tag,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return dErrors.Newf(dErrors.CodeConflict, "legal reason %s already exists", lr.ID)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save legal reason")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*LegalReason, error) {
	row := s.db(ctx).QueryRowContext(ctx,
		`SELECT `+reasonColumns+` FROM legal_reasons WHERE id = $1`, id)
	lr, err := scanReason(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "legal reason %s not found", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get legal reason")
	}
	return lr, nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, ref entity.Ref) ([]*LegalReason, error) {
	return s.list(ctx, `
		SELECT `+reasonColumns+` FROM legal_reasons
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`, ref.Type, ref.ID)
}

func (s *PostgresStore) ListActiveByEntity(ctx context.Context, ref entity.Ref) ([]*LegalReason, error) {
	return s.list(ctx, `
		SELECT `+reasonColumns+` FROM legal_reasons
		WHERE entity_type = $1 AND entity_id = $2 AND active
		ORDER BY created_at DESC`, ref.Type, ref.ID)
}

func (s *PostgresStore) Deactivate(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db(ctx).ExecContext(ctx,
		`UPDATE legal_reasons SET active = FALSE WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "deactivate legal reasons")
	}
	return nil
}

func (s *PostgresStore) ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]*LegalReason, error) {
	return s.list(ctx, `
		SELECT `+reasonColumns+` FROM legal_reasons
		WHERE active AND expires_at < $1
		ORDER BY expires_at`, cutoff)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*LegalReason, error) {
	rows, err := s.db(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list legal reasons")
	}
	defer rows.Close()

	var out []*LegalReason
	for rows.Next() {
		lr, err := scanReason(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan legal reason")
		}
		out = append(out, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list legal reasons")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReason(row rowScanner) (*LegalReason, error) {
	var lr LegalReason
	err := row.Scan(
		&lr.ID, &lr.Entity.Type, &lr.Entity.ID, pq.Array(&lr.Purposes),
		&lr.IssuedAt, &lr.ExpiresAt, &lr.Active, &lr.Tag, &lr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

// PostgresFlagStore persists per-field anonymization markers.
type PostgresFlagStore struct {
	pool *sql.DB
}

func NewPostgresFlagStore(pool *sql.DB) *PostgresFlagStore {
	return &PostgresFlagStore{pool: pool}
}

func (s *PostgresFlagStore) db(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.pool
}

func (s *PostgresFlagStore) Mark(ctx context.Context, ref entity.Ref, field string) error {
	_, err := s.db(ctx).ExecContext(ctx, `
		INSERT INTO anonymized_fields (entity_type, entity_id, field)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_type, entity_id, field) DO NOTHING`,
		ref.Type, ref.ID, field)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark anonymized field")
	}
	return nil
}

func (s *PostgresFlagStore) IsAnonymized(ctx context.Context, ref entity.Ref, field string) (bool, error) {
	var exists bool
	err := s.db(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM anonymized_fields
			WHERE entity_type = $1 AND entity_id = $2 AND field = $3
		)`, ref.Type, ref.ID, field).Scan(&exists)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "check anonymized field")
	}
	return exists, nil
}

func (s *PostgresFlagStore) Clear(ctx context.Context, ref entity.Ref, field string) error {
	_, err := s.db(ctx).ExecContext(ctx, `
		DELETE FROM anonymized_fields
		WHERE entity_type = $1 AND entity_id = $2 AND field = $3`,
		ref.Type, ref.ID, field)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "clear anonymized field")
	}
	return nil
}
