// Package purpose holds the catalog of declared retention purposes. The
// catalog is loaded once at startup and immutable afterwards; the slug is
// the only valid external reference to a purpose.
package purpose

import (
	"sort"

	"lethe/internal/fieldpath"
	dErrors "lethe/pkg/domain-errors"
)

// Purpose declares which fields of an entity type may be retained and for
// how long while a consent for it is active.
type Purpose struct {
	Slug       string
	Name       string
	EntityType string
	Retention  Retention
	Fields     *fieldpath.Tree
}

// Catalog is the process-wide purpose register. Lookups never block; all
// writes happen during startup registration.
type Catalog struct {
	purposes map[string]*Purpose
}

func NewCatalog() *Catalog {
	return &Catalog{purposes: make(map[string]*Purpose)}
}

// Register adds a purpose. Slugs are globally unique.
func (c *Catalog) Register(p *Purpose) error {
	if p == nil || p.Slug == "" {
		return dErrors.New(dErrors.CodeMalformedSpec, "purpose without a slug")
	}
	if _, ok := c.purposes[p.Slug]; ok {
		return dErrors.Newf(dErrors.CodeDuplicateSlug, "purpose slug %q already registered", p.Slug)
	}
	c.purposes[p.Slug] = p
	return nil
}

// Get returns the purpose for a slug.
func (c *Catalog) Get(slug string) (*Purpose, error) {
	p, ok := c.purposes[slug]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeUnknownPurpose, "purpose with slug %q does not exist", slug)
	}
	return p, nil
}

// Slugs lists all registered slugs, sorted.
func (c *Catalog) Slugs() []string {
	out := make([]string, 0, len(c.purposes))
	for slug := range c.purposes {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}
