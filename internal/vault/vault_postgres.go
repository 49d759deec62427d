package vault

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
	"lethe/pkg/platform/tx"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres stores vaulted originals as JSON. Values round-trip through
// encoding/json, so what comes back for a numeric original is a float64.
type Postgres struct {
	pool *sql.DB
}

func NewPostgres(pool *sql.DB) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) db(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return p.pool
}

func (p *Postgres) Put(ctx context.Context, ref entity.Ref, field string, original any) error {
	payload, err := json.Marshal(original)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode vault entry")
	}
	_, err = p.db(ctx).ExecContext(ctx, `
		INSERT INTO vault_entries (entity_type, entity_id, field, original)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_type, entity_id, field) DO UPDATE SET original = EXCLUDED.original`,
		ref.Type, ref.ID, field, payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "put vault entry")
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, ref entity.Ref, field string) (any, bool, error) {
	var payload []byte
	err := p.db(ctx).QueryRowContext(ctx, `
		SELECT original FROM vault_entries
		WHERE entity_type = $1 AND entity_id = $2 AND field = $3`,
		ref.Type, ref.ID, field).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "get vault entry")
	}
	var original any
	if err := json.Unmarshal(payload, &original); err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "decode vault entry")
	}
	return original, true, nil
}

func (p *Postgres) Delete(ctx context.Context, ref entity.Ref, field string) error {
	_, err := p.db(ctx).ExecContext(ctx, `
		DELETE FROM vault_entries
		WHERE entity_type = $1 AND entity_id = $2 AND field = $3`,
		ref.Type, ref.ID, field)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete vault entry")
	}
	return nil
}
