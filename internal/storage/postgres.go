package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
	"lethe/pkg/platform/tx"
)

// TableSpec maps a registered entity type onto a table. Columns maps
// anonymizer field names to column names; relations are resolved through a
// foreign key column on the related table.
type TableSpec struct {
	Table     string
	KeyColumn string
	Columns   map[string]string
	Relations map[string]RelationSpec
}

// RelationSpec declares how to reach related rows: the related entity type
// and the column on its table pointing back at this entity's key.
type RelationSpec struct {
	Type          string
	ForeignColumn string
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresLoader loads entities straight from application tables. Reads run
// on the pgx pool; field UPDATEs go through the shared *sql.DB so they join
// the same transaction as the consent ledger and flag writes.
type PostgresLoader struct {
	pool   *pgxpool.Pool
	writer *sql.DB
	mu     sync.RWMutex
	specs  map[string]TableSpec
}

func NewPostgresLoader(pool *pgxpool.Pool, writer *sql.DB) *PostgresLoader {
	return &PostgresLoader{pool: pool, writer: writer, specs: make(map[string]TableSpec)}
}

func (l *PostgresLoader) db(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return l.writer
}

// Map registers the table mapping for an entity type.
func (l *PostgresLoader) Map(entityType string, spec TableSpec) error {
	if spec.Table == "" || spec.KeyColumn == "" || len(spec.Columns) == 0 {
		return dErrors.Newf(dErrors.CodeMalformedSpec, "incomplete table spec for type %q", entityType)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.specs[entityType]; ok {
		return dErrors.Newf(dErrors.CodeConflict, "table spec for type %q already mapped", entityType)
	}
	l.specs[entityType] = spec
	return nil
}

func (l *PostgresLoader) spec(entityType string) (TableSpec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.specs[entityType]
	if !ok {
		return TableSpec{}, dErrors.Newf(dErrors.CodeUnregisteredType, "no table mapped for type %q", entityType)
	}
	return spec, nil
}

func (l *PostgresLoader) Load(ctx context.Context, ref entity.Ref) (entity.Entity, error) {
	spec, err := l.spec(ref.Type)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(spec.Columns))
	columns := make([]string, 0, len(spec.Columns))
	for field, column := range spec.Columns {
		fields = append(fields, field)
		columns = append(columns, column)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		strings.Join(columns, ", "), spec.Table, spec.KeyColumn)
	row := l.pool.QueryRow(ctx, query, ref.ID)

	values := make([]any, len(fields))
	dest := make([]any, len(fields))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		if err == pgx.ErrNoRows {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "entity %s not found", ref)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load entity "+ref.String())
	}

	data := make(map[string]any, len(fields))
	for i, field := range fields {
		data[field] = values[i]
	}
	return &pgRow{loader: l, ref: ref, spec: spec, fields: data}, nil
}

// pgRow is one loaded row acting as an Entity. Sets write through on the
// caller's context, so inside a ledger transaction the field value rolls
// back together with the deactivation and the anonymized flag.
type pgRow struct {
	loader *PostgresLoader
	ref    entity.Ref
	spec   TableSpec
	fields map[string]any
}

func (r *pgRow) Ref() entity.Ref { return r.ref }

func (r *pgRow) Get(field string) (any, error) {
	v, ok := r.fields[field]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeMalformedSpec, "entity %s has no mapped field %q", r.ref, field)
	}
	return v, nil
}

func (r *pgRow) Set(ctx context.Context, field string, value any) error {
	column, ok := r.spec.Columns[field]
	if !ok {
		return dErrors.Newf(dErrors.CodeMalformedSpec, "entity %s has no mapped field %q", r.ref, field)
	}
	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2",
		r.spec.Table, column, r.spec.KeyColumn)
	if _, err := r.loader.db(ctx).ExecContext(ctx, query, value, r.ref.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update entity "+r.ref.String())
	}
	r.fields[field] = value
	return nil
}

func (r *pgRow) Related(ctx context.Context, relation string) ([]entity.Entity, error) {
	relSpec, ok := r.spec.Relations[relation]
	if !ok {
		return nil, nil
	}
	related, err := r.loader.spec(relSpec.Type)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		related.KeyColumn, related.Table, relSpec.ForeignColumn)
	rows, err := r.loader.pool.Query(ctx, query, r.ref.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load relation "+relation)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan relation "+relation)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load relation "+relation)
	}

	out := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		ent, err := r.loader.Load(ctx, entity.Ref{Type: relSpec.Type, ID: id})
		if err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, nil
}
