package consent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lethe/internal/entity"
	"lethe/internal/purpose"
	dErrors "lethe/pkg/domain-errors"
	"lethe/pkg/platform/audit"
)

// Anonymizer is the slice of the engine the service drives. Kept as an
// interface here so the service can be tested against a fake.
type Anonymizer interface {
	// AnonymizeEntity transforms every anonymizable field of the entity and
	// its registered relations, given the reasons still protecting it.
	AnonymizeEntity(ctx context.Context, e entity.Entity) error
	// RestoreForPurposes reverses anonymization on the fields the given
	// purposes cover, where a reversible record exists.
	RestoreForPurposes(ctx context.Context, e entity.Entity, slugs []string) error
}

// TxRunner executes fn atomically. Store calls made with the ctx passed to
// fn join the same transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTxRunner runs fn directly. Pairs with the memory stores.
type NopTxRunner struct{}

func (NopTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service is the consent lifecycle API: grant, revoke, renew, query.
type Service struct {
	catalog    *purpose.Catalog
	store      Store
	anonymizer Anonymizer
	tx         TxRunner
	audit      *audit.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

type ServiceOption func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithAudit attaches an audit publisher. Without one, no events are emitted.
func WithAudit(p *audit.Publisher) ServiceOption {
	return func(s *Service) { s.audit = p }
}

func NewService(catalog *purpose.Catalog, store Store, anonymizer Anonymizer, tx TxRunner, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:    catalog,
		store:      store,
		anonymizer: anonymizer,
		tx:         tx,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GrantOption tweaks a single grant.
type GrantOption func(*grantParams)

type grantParams struct {
	tag       string
	issuedAt  time.Time
	expiresAt time.Time
}

// WithTag labels the grant with a free-form source tag, e.g. the form or
// campaign the consent came from.
func WithTag(tag string) GrantOption {
	return func(p *grantParams) { p.tag = tag }
}

// WithIssuedAt backdates the grant. Defaults to the service clock.
func WithIssuedAt(t time.Time) GrantOption {
	return func(p *grantParams) { p.issuedAt = t }
}

// WithExpiresAt pins an explicit expiry instead of deriving one from the
// purposes' retentions.
func WithExpiresAt(t time.Time) GrantOption {
	return func(p *grantParams) { p.expiresAt = t }
}

// CreateConsent records a new active LegalReason covering the given purpose
// slugs. The expiry is issued_at plus the longest retention among the
// purposes, unless pinned with WithExpiresAt.
func (s *Service) CreateConsent(ctx context.Context, ref entity.Ref, slugs []string, opts ...GrantOption) (*LegalReason, error) {
	if len(slugs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "consent without purposes")
	}
	var p grantParams
	for _, opt := range opts {
		opt(&p)
	}
	issuedAt := p.issuedAt
	if issuedAt.IsZero() {
		issuedAt = s.now()
	}

	expiresAt := p.expiresAt
	for _, slug := range slugs {
		pur, err := s.catalog.Get(slug)
		if err != nil {
			return nil, err
		}
		if pur.EntityType != "" && pur.EntityType != ref.Type {
			return nil, dErrors.Newf(dErrors.CodeBadRequest,
				"purpose %q applies to %q entities, not %q", slug, pur.EntityType, ref.Type)
		}
		if p.expiresAt.IsZero() {
			if candidate := pur.Retention.From(issuedAt); candidate.After(expiresAt) {
				expiresAt = candidate
			}
		}
	}
	if !expiresAt.After(issuedAt) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "consent would expire before it is issued")
	}

	lr := &LegalReason{
		ID:        uuid.New(),
		Entity:    ref,
		Purposes:  append([]string(nil), slugs...),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Active:    true,
		Tag:       p.tag,
		CreatedAt: s.now(),
	}
	if err := s.store.Save(ctx, lr); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "consent granted",
		slog.String("entity", ref.String()),
		slog.Any("purposes", slugs),
		slog.Time("expires_at", expiresAt))
	s.emit(ctx, audit.ActionConsentGranted, lr)
	return lr, nil
}

// DeactivateConsent revokes consent for one purpose: every active reason
// covering the slug is deactivated and the entity is re-anonymized, all in
// one transaction. Returns the reasons that were deactivated.
func (s *Service) DeactivateConsent(ctx context.Context, slug string, e entity.Entity) ([]*LegalReason, error) {
	if _, err := s.catalog.Get(slug); err != nil {
		return nil, err
	}
	var revoked []*LegalReason
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		active, err := s.store.ListActiveByEntity(ctx, e.Ref())
		if err != nil {
			return err
		}
		var ids []uuid.UUID
		revoked = revoked[:0]
		for _, lr := range active {
			if lr.Covers(slug) {
				ids = append(ids, lr.ID)
				lr.Active = false
				revoked = append(revoked, lr)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.store.Deactivate(ctx, ids); err != nil {
			return err
		}
		return s.anonymizer.AnonymizeEntity(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "consent revoked",
		slog.String("entity", e.Ref().String()),
		slog.String("purpose", slug),
		slog.Int("reasons", len(revoked)))
	for _, lr := range revoked {
		s.emit(ctx, audit.ActionConsentRevoked, lr)
	}
	return revoked, nil
}

// RenewConsent grants consent anew and restores previously anonymized
// fields the purposes cover. Deactivated records stay deactivated; the
// renewal is a fresh LegalReason.
func (s *Service) RenewConsent(ctx context.Context, e entity.Entity, slugs []string, opts ...GrantOption) (*LegalReason, error) {
	var lr *LegalReason
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		lr, err = s.CreateConsent(ctx, e.Ref(), slugs, opts...)
		if err != nil {
			return err
		}
		return s.anonymizer.RestoreForPurposes(ctx, e, slugs)
	})
	if err != nil {
		return nil, err
	}
	return lr, nil
}

// ExistsValidConsent reports whether the entity holds an active, unexpired
// reason covering the slug.
func (s *Service) ExistsValidConsent(ctx context.Context, slug string, ref entity.Ref) (bool, error) {
	active, err := s.store.ListActiveByEntity(ctx, ref)
	if err != nil {
		return false, err
	}
	now := s.now()
	for _, lr := range active {
		if lr.Covers(slug) && lr.Protects(now) {
			return true, nil
		}
	}
	return false, nil
}

// ExistsDeactivatedConsent reports whether the entity ever had consent for
// the slug that has since been deactivated.
func (s *Service) ExistsDeactivatedConsent(ctx context.Context, slug string, ref entity.Ref) (bool, error) {
	all, err := s.store.ListByEntity(ctx, ref)
	if err != nil {
		return false, err
	}
	for _, lr := range all {
		if lr.Covers(slug) && !lr.Active {
			return true, nil
		}
	}
	return false, nil
}

// List returns every reason for the entity, newest first.
func (s *Service) List(ctx context.Context, ref entity.Ref) ([]*LegalReason, error) {
	return s.store.ListByEntity(ctx, ref)
}

func (s *Service) emit(ctx context.Context, action audit.Action, lr *LegalReason) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Category: audit.CategoryConsent,
		Action:   action,
		Entity:   lr.Entity.String(),
		Detail: map[string]string{
			"reason_id":  lr.ID.String(),
			"purposes":   audit.JoinDetail(lr.Purposes),
			"expires_at": lr.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}
