// Package entity defines the minimal view of an application record the
// anonymization core needs. Entities are owned by external storage; the core
// only reads and writes field values and walks relations.
package entity

import (
	"context"
	"fmt"
)

// Ref addresses one entity instance. Type is the registered anonymizer type
// name, ID the storage identifier rendered as a string.
type Ref struct {
	Type string
	ID   string
}

func (r Ref) String() string {
	return r.Type + ":" + r.ID
}

// Entity is the storage collaborator contract per record. Implementations
// must tolerate Get/Set on any field the registered anonymizer declares and
// return an empty slice, not an error, for absent relations. Set takes the
// caller's context so writes can join an ambient storage transaction.
type Entity interface {
	Ref() Ref
	Get(field string) (any, error)
	Set(ctx context.Context, field string, value any) error
	Related(ctx context.Context, relation string) ([]Entity, error)
}

// Loader resolves a Ref back to a live Entity. The sweeper uses it to turn
// ledger rows into anonymizable records.
type Loader interface {
	Load(ctx context.Context, ref Ref) (Entity, error)
}

// Record is a map-backed Entity used by tests and the in-memory storage
// collaborator.
type Record struct {
	ref       Ref
	fields    map[string]any
	relations map[string][]*Record
}

// NewRecord builds a Record with the given scalar fields.
func NewRecord(typ, id string, fields map[string]any) *Record {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Record{
		ref:       Ref{Type: typ, ID: id},
		fields:    copied,
		relations: make(map[string][]*Record),
	}
}

func (r *Record) Ref() Ref { return r.ref }

func (r *Record) Get(field string) (any, error) {
	v, ok := r.fields[field]
	if !ok {
		return nil, fmt.Errorf("entity %s has no field %q", r.ref, field)
	}
	return v, nil
}

func (r *Record) Set(_ context.Context, field string, value any) error {
	if _, ok := r.fields[field]; !ok {
		return fmt.Errorf("entity %s has no field %q", r.ref, field)
	}
	r.fields[field] = value
	return nil
}

// Attach links related records under the given relation name.
func (r *Record) Attach(relation string, related ...*Record) {
	r.relations[relation] = append(r.relations[relation], related...)
}

func (r *Record) Related(_ context.Context, relation string) ([]Entity, error) {
	records := r.relations[relation]
	out := make([]Entity, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	return out, nil
}
