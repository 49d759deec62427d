// Package fieldpath implements the declarative nested field lists purposes
// are declared with: a tree of leaf fields, relation subtrees, and a
// wildcard marker, normalized once at registration time and expanded against
// the anonymizer registry on demand.
package fieldpath

import (
	"sort"

	dErrors "lethe/pkg/domain-errors"
)

// Wildcard is the marker meaning "every field and relation declared by the
// entity's anonymizer", recursively.
const Wildcard = "*"

// Entry is one element of a field declaration. Exactly one of Field or
// Relation is set; Relation entries carry the child declaration.
type Entry struct {
	Field    string
	Relation string
	Children []Entry
}

// F declares a leaf field.
func F(name string) Entry { return Entry{Field: name} }

// Rel declares a nested relation with its own field list.
func Rel(name string, children ...Entry) Entry {
	return Entry{Relation: name, Children: children}
}

// All declares the wildcard.
func All() Entry { return Entry{Field: Wildcard} }

// Schema is the registry view needed to validate and expand declarations.
type Schema interface {
	// Fields lists the scalar field names the anonymizer declares for a type.
	Fields(entityType string) ([]string, error)
	// Relations lists the relation names the anonymizer declares for a type.
	Relations(entityType string) ([]string, error)
	// RelatedType resolves a relation name to the related entity type.
	RelatedType(entityType, relation string) (string, error)
}

// Tree is a normalized field declaration. The zero value covers nothing; a
// nil *Tree is treated the same everywhere.
type Tree struct {
	wildcard bool
	local    map[string]struct{}
	related  map[string]*Tree
}

// Parse validates a declaration against the registered anonymizer for
// entityType and returns the normalized tree. Unknown fields and relations
// fail with CodeMalformedSpec; validation is eager so runtime resolution can
// never hit an undeclared name.
func Parse(entries []Entry, schema Schema, entityType string) (*Tree, error) {
	fields, err := schema.Fields(entityType)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}

	t := &Tree{local: map[string]struct{}{}, related: map[string]*Tree{}}
	for _, e := range entries {
		switch {
		case e.Field == Wildcard:
			t.wildcard = true
		case e.Field != "" && e.Relation != "":
			return nil, dErrors.Newf(dErrors.CodeMalformedSpec,
				"entry for type %q sets both field %q and relation %q", entityType, e.Field, e.Relation)
		case e.Field != "":
			if _, ok := known[e.Field]; !ok {
				return nil, dErrors.Newf(dErrors.CodeMalformedSpec,
					"field %q is not declared by the %q anonymizer", e.Field, entityType)
			}
			t.local[e.Field] = struct{}{}
		case e.Relation != "":
			relatedType, err := schema.RelatedType(entityType, e.Relation)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeMalformedSpec,
					"relation "+e.Relation+" is not declared by the "+entityType+" anonymizer")
			}
			child, err := Parse(e.Children, schema, relatedType)
			if err != nil {
				return nil, err
			}
			t.related[e.Relation] = child
		default:
			return nil, dErrors.Newf(dErrors.CodeMalformedSpec,
				"empty entry in declaration for type %q", entityType)
		}
	}
	return t, nil
}

// IsWildcard reports whether this node is the wildcard. Explicit siblings
// under a wildcard are permitted but add nothing.
func (t *Tree) IsWildcard() bool { return t != nil && t.wildcard }

// Empty reports whether the tree covers nothing at all.
func (t *Tree) Empty() bool {
	return t == nil || (!t.wildcard && len(t.local) == 0 && len(t.related) == 0)
}

// CoversField reports whether the tree protects a local field at this level.
func (t *Tree) CoversField(name string) bool {
	if t == nil {
		return false
	}
	if t.wildcard {
		return true
	}
	_, ok := t.local[name]
	return ok
}

var wildcardTree = &Tree{wildcard: true}

// Child returns the subtree covering a relation, or nil when the relation is
// not covered. A wildcard node covers every relation with a wildcard subtree.
func (t *Tree) Child(relation string) *Tree {
	if t == nil {
		return nil
	}
	if t.wildcard {
		return wildcardTree
	}
	return t.related[relation]
}

// Union merges two trees field-path-wise. A wildcard absorbs everything at
// its node, including explicit relation subtrees.
func Union(a, b *Tree) *Tree {
	if a.IsWildcard() || b.IsWildcard() {
		return wildcardTree
	}
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	out := &Tree{local: map[string]struct{}{}, related: map[string]*Tree{}}
	for _, t := range []*Tree{a, b} {
		for f := range t.local {
			out.local[f] = struct{}{}
		}
		for name, child := range t.related {
			if existing, ok := out.related[name]; ok {
				out.related[name] = Union(existing, child)
			} else {
				out.related[name] = child
			}
		}
	}
	return out
}

// Resolve expands the tree against the live registry into the set of
// concrete dotted field paths, depth-first. Wildcards expand to the fields
// and relations the anonymizer declares at resolution time; a relation cycle
// reachable through a wildcard fails with CodeCyclicFieldPath instead of
// recursing forever.
func (t *Tree) Resolve(schema Schema, entityType string) ([]string, error) {
	var out []string
	if err := t.resolve(schema, entityType, "", nil, &out); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (t *Tree) resolve(schema Schema, entityType, prefix string, stack []string, out *[]string) error {
	if t == nil {
		return nil
	}
	// Explicit declarations are finite and may legitimately revisit a type;
	// only wildcard expansion can recurse, so only it is cycle-guarded.
	if t.wildcard {
		for _, seen := range stack {
			if seen == entityType {
				return dErrors.Newf(dErrors.CodeCyclicFieldPath,
					"relation cycle through type %q while expanding wildcard", entityType)
			}
		}
		stack = append(stack, entityType)
	}

	local := make(map[string]struct{}, len(t.local))
	for f := range t.local {
		local[f] = struct{}{}
	}
	related := make(map[string]*Tree, len(t.related))
	for name, child := range t.related {
		related[name] = child
	}
	if t.wildcard {
		fields, err := schema.Fields(entityType)
		if err != nil {
			return err
		}
		for _, f := range fields {
			local[f] = struct{}{}
		}
		relations, err := schema.Relations(entityType)
		if err != nil {
			return err
		}
		for _, name := range relations {
			related[name] = wildcardTree
		}
	}

	for f := range local {
		*out = append(*out, prefix+f)
	}
	names := make([]string, 0, len(related))
	for name := range related {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		relatedType, err := schema.RelatedType(entityType, name)
		if err != nil {
			return err
		}
		if err := related[name].resolve(schema, relatedType, prefix+name+".", stack, out); err != nil {
			return err
		}
	}
	return nil
}
