// Package engine applies the retention rules: given an entity, the live
// consent ledger decides which fields stay, and everything else declared in
// the anonymizer registry is transformed in place.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lethe/internal/anonymizer"
	"lethe/internal/consent"
	"lethe/internal/entity"
	"lethe/internal/fieldpath"
	"lethe/internal/platform/metrics"
	"lethe/internal/purpose"
	dErrors "lethe/pkg/domain-errors"
)

// Engine walks an entity and its registered relations, anonymizing every
// field not protected by an active legal reason.
type Engine struct {
	registry *anonymizer.Registry
	catalog  *purpose.Catalog
	consents consent.Store
	flags    consent.FlagStore
	secret   string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Engine)

// WithClock overrides the engine clock. Protection is evaluated against a
// single timestamp taken at the start of each run.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(registry *anonymizer.Registry, catalog *purpose.Catalog, consents consent.Store, flags consent.FlagStore, secret string, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		catalog:  catalog,
		consents: consents,
		flags:    flags,
		secret:   secret,
		logger:   logger,
		tracer:   otel.Tracer("lethe/engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnonymizeEntity anonymizes every unprotected field of the entity and,
// recursively, of its registered relations. Already anonymized fields are
// skipped, so repeated runs are idempotent.
func (e *Engine) AnonymizeEntity(ctx context.Context, ent entity.Entity) error {
	ref := ent.Ref()
	ctx, span := e.tracer.Start(ctx, "engine.AnonymizeEntity",
		trace.WithAttributes(attribute.String("entity", ref.String())))
	defer span.End()

	now := e.now()
	seen := make(map[entity.Ref]bool)
	if err := e.anonymize(ctx, ent, nil, now, seen); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "entity anonymized",
		slog.String("entity", ref.String()),
		slog.Int("entities_visited", len(seen)))
	return nil
}

// anonymize handles one entity. The inherited tree is the protection that
// flowed down a relation edge from the parent; reasons attached to this
// entity itself are unioned in here.
func (e *Engine) anonymize(ctx context.Context, ent entity.Entity, inherited *fieldpath.Tree, now time.Time, seen map[entity.Ref]bool) error {
	ref := ent.Ref()
	if seen[ref] {
		return nil
	}
	seen[ref] = true

	model, err := e.registry.Lookup(ref.Type)
	if err != nil {
		return err
	}
	protected, err := e.protectedTree(ctx, ref, inherited, now)
	if err != nil {
		return err
	}

	fc := anonymizer.FieldContext{Key: anonymizer.DeriveKey(e.secret, ref), Ref: ref}
	for _, field := range sortedKeys(model.Fields) {
		if protected.CoversField(field) {
			continue
		}
		done, err := e.flags.IsAnonymized(ctx, ref, field)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		value, err := ent.Get(field)
		if err != nil {
			return err
		}
		if isEmpty(value) {
			continue
		}
		fc.Field = field
		transformed, err := model.Fields[field].Anonymize(ctx, fc, value)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "anonymize "+ref.String()+" field "+field)
		}
		if err := ent.Set(ctx, field, transformed); err != nil {
			return err
		}
		if err := e.flags.Mark(ctx, ref, field); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.FieldsAnonymized.Inc()
		}
	}

	for _, relation := range sortedKeys(model.Relations) {
		children, err := ent.Related(ctx, relation)
		if err != nil {
			return err
		}
		childTree := protected.Child(relation)
		for _, child := range children {
			if err := e.anonymize(ctx, child, childTree, now, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// protectedTree unions the purpose trees of every reason still protecting
// the entity with the protection inherited from the parent edge.
func (e *Engine) protectedTree(ctx context.Context, ref entity.Ref, inherited *fieldpath.Tree, now time.Time) (*fieldpath.Tree, error) {
	protected := inherited
	active, err := e.consents.ListActiveByEntity(ctx, ref)
	if err != nil {
		return nil, err
	}
	for _, lr := range active {
		if !lr.Protects(now) {
			continue
		}
		for _, slug := range lr.Purposes {
			pur, err := e.catalog.Get(slug)
			if err != nil {
				return nil, err
			}
			// An unbound purpose protects whatever type it was granted for.
			if pur.EntityType != "" && pur.EntityType != ref.Type {
				continue
			}
			protected = fieldpath.Union(protected, pur.Fields)
		}
	}
	return protected, nil
}

// DeanonymizeEntity restores the given dotted field paths to their original
// values. Every named field must carry an anonymization marker and a
// reversible strategy; partial restores fail fast.
func (e *Engine) DeanonymizeEntity(ctx context.Context, ent entity.Entity, fields []string) error {
	ctx, span := e.tracer.Start(ctx, "engine.DeanonymizeEntity",
		trace.WithAttributes(attribute.String("entity", ent.Ref().String())))
	defer span.End()

	return e.restore(ctx, ent, fields, false)
}

// RestoreForPurposes reverses anonymization on every field the purposes
// cover. Fields that were never anonymized are skipped; covered fields with
// an irreversible strategy still fail, since the caller expected them back.
func (e *Engine) RestoreForPurposes(ctx context.Context, ent entity.Entity, slugs []string) error {
	ref := ent.Ref()
	pathSet := make(map[string]struct{})
	for _, slug := range slugs {
		pur, err := e.catalog.Get(slug)
		if err != nil {
			return err
		}
		if pur.EntityType != "" && pur.EntityType != ref.Type {
			continue
		}
		paths, err := pur.Fields.Resolve(e.registry, ref.Type)
		if err != nil {
			return err
		}
		for _, p := range paths {
			pathSet[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(pathSet))
	for p := range pathSet {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return e.restore(ctx, ent, paths, true)
}

func (e *Engine) restore(ctx context.Context, ent entity.Entity, paths []string, skipUnmarked bool) error {
	ref := ent.Ref()
	model, err := e.registry.Lookup(ref.Type)
	if err != nil {
		return err
	}

	byRelation := make(map[string][]string)
	fc := anonymizer.FieldContext{Key: anonymizer.DeriveKey(e.secret, ref), Ref: ref}
	for _, path := range paths {
		if relation, rest, ok := strings.Cut(path, "."); ok {
			byRelation[relation] = append(byRelation[relation], rest)
			continue
		}
		field := path
		strategy, ok := model.Fields[field]
		if !ok {
			return dErrors.Newf(dErrors.CodeMalformedSpec,
				"field %q is not declared by the %q anonymizer", field, ref.Type)
		}
		marked, err := e.flags.IsAnonymized(ctx, ref, field)
		if err != nil {
			return err
		}
		if !marked {
			if skipUnmarked {
				continue
			}
			return dErrors.Newf(dErrors.CodeNoAnonymizationRecord,
				"field %s of %s was never anonymized", field, ref)
		}
		reverser, ok := strategy.(anonymizer.Reverser)
		if !ok || !strategy.Reversible() {
			return dErrors.Newf(dErrors.CodeIrreversibleField,
				"field %s of %s cannot be restored", field, ref)
		}
		value, err := ent.Get(field)
		if err != nil {
			return err
		}
		fc.Field = field
		original, err := reverser.Deanonymize(ctx, fc, value)
		if err != nil {
			return err
		}
		if err := ent.Set(ctx, field, original); err != nil {
			return err
		}
		if err := e.flags.Clear(ctx, ref, field); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.FieldsRestored.Inc()
		}
	}

	for _, relation := range sortedKeys(byRelation) {
		if _, ok := model.Relations[relation]; !ok {
			return dErrors.Newf(dErrors.CodeMalformedSpec,
				"relation %q is not declared by the %q anonymizer", relation, ref.Type)
		}
		children, err := ent.Related(ctx, relation)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := e.restore(ctx, child, byRelation[relation], skipUnmarked); err != nil {
				return err
			}
		}
	}
	return nil
}

// AnonymizablePaths lists the dotted field paths that would be transformed
// for the entity right now: the registry universe minus the protected set.
func (e *Engine) AnonymizablePaths(ctx context.Context, ref entity.Ref) ([]string, error) {
	all, err := e.registry.Paths(ref.Type)
	if err != nil {
		return nil, err
	}
	protected, err := e.protectedTree(ctx, ref, nil, e.now())
	if err != nil {
		return nil, err
	}
	protectedPaths, err := protected.Resolve(e.registry, ref.Type)
	if err != nil {
		return nil, err
	}
	covered := make(map[string]struct{}, len(protectedPaths))
	for _, p := range protectedPaths {
		covered[p] = struct{}{}
	}
	out := all[:0]
	for _, p := range all {
		if _, ok := covered[p]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
