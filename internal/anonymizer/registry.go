package anonymizer

import (
	"sort"

	"lethe/internal/fieldpath"
	dErrors "lethe/pkg/domain-errors"
)

// Relation declares a named link from one registered type to another.
type Relation struct {
	Type string
}

// Model describes how one entity type is anonymized: a strategy per scalar
// field and the relations to descend into.
type Model struct {
	Fields    map[string]Strategy
	Relations map[string]Relation
}

// Registry maps entity types to their models. It is populated at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	models map[string]Model
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Register adds a model for an entity type. Registering a type twice is a
// configuration error.
func (r *Registry) Register(entityType string, m Model) error {
	if entityType == "" {
		return dErrors.New(dErrors.CodeMalformedSpec, "empty entity type")
	}
	if _, ok := r.models[entityType]; ok {
		return dErrors.Newf(dErrors.CodeConflict, "anonymizer for type %q already registered", entityType)
	}
	for name, s := range m.Fields {
		if name == "" || s == nil {
			return dErrors.Newf(dErrors.CodeMalformedSpec,
				"type %q declares field %q without a strategy", entityType, name)
		}
	}
	for name, rel := range m.Relations {
		if name == "" || rel.Type == "" {
			return dErrors.Newf(dErrors.CodeMalformedSpec,
				"type %q declares relation %q without a target type", entityType, name)
		}
	}
	r.models[entityType] = m
	return nil
}

// Validate checks that every declared relation targets a registered type.
// Call once after all registrations.
func (r *Registry) Validate() error {
	for entityType, m := range r.models {
		for name, rel := range m.Relations {
			if _, ok := r.models[rel.Type]; !ok {
				return dErrors.Newf(dErrors.CodeUnregisteredType,
					"type %q relation %q targets unregistered type %q", entityType, name, rel.Type)
			}
		}
	}
	return nil
}

// Lookup returns the model for an entity type.
func (r *Registry) Lookup(entityType string) (Model, error) {
	m, ok := r.models[entityType]
	if !ok {
		return Model{}, dErrors.Newf(dErrors.CodeUnregisteredType, "no anonymizer registered for type %q", entityType)
	}
	return m, nil
}

// Fields implements fieldpath.Schema.
func (r *Registry) Fields(entityType string) ([]string, error) {
	m, err := r.Lookup(entityType)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Relations implements fieldpath.Schema.
func (r *Registry) Relations(entityType string) ([]string, error) {
	m, err := r.Lookup(entityType)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m.Relations))
	for name := range m.Relations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// RelatedType implements fieldpath.Schema.
func (r *Registry) RelatedType(entityType, relation string) (string, error) {
	m, err := r.Lookup(entityType)
	if err != nil {
		return "", err
	}
	rel, ok := m.Relations[relation]
	if !ok {
		return "", dErrors.Newf(dErrors.CodeMalformedSpec,
			"type %q has no relation %q", entityType, relation)
	}
	return rel.Type, nil
}

// Paths lists every concrete field path known for a type, transitively
// through relations. This is the universe the engine subtracts the protected
// set from.
func (r *Registry) Paths(entityType string) ([]string, error) {
	tree, err := fieldpath.Parse([]fieldpath.Entry{fieldpath.All()}, r, entityType)
	if err != nil {
		return nil, err
	}
	return tree.Resolve(r, entityType)
}
