// Package sweeper expires consents whose retention ran out. One run takes a
// snapshot timestamp, deactivates every reason expired strictly before it,
// and re-anonymizes the affected entities.
package sweeper

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lethe/internal/consent"
	"lethe/internal/entity"
	"lethe/internal/platform/metrics"
	"lethe/pkg/platform/audit"
)

// Anonymizer is the slice of the engine the sweeper drives.
type Anonymizer interface {
	AnonymizeEntity(ctx context.Context, e entity.Entity) error
}

// Locker guards against concurrent sweeps across replicas.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const lockKey = "lethe:sweep"

// Result summarizes one sweep run.
type Result struct {
	Skipped            bool
	ReasonsDeactivated int
	EntitiesAnonymized int
	EntitiesFailed     int
}

// Sweeper runs the retention sweep.
type Sweeper struct {
	consents    consent.Store
	anonymizer  Anonymizer
	loader      entity.Loader
	tx          consent.TxRunner
	locker      Locker
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       *audit.Publisher
	now         func() time.Time
	parallelism int
	lockTTL     time.Duration
}

type Option func(*Sweeper)

// WithLocker makes runs mutually exclusive across replicas.
func WithLocker(l Locker) Option {
	return func(s *Sweeper) { s.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func WithAudit(p *audit.Publisher) Option {
	return func(s *Sweeper) { s.audit = p }
}

// WithParallelism bounds how many entities are anonymized concurrently.
func WithParallelism(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func New(consents consent.Store, anonymizer Anonymizer, loader entity.Loader, tx consent.TxRunner, logger *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		consents:    consents,
		anonymizer:  anonymizer,
		loader:      loader,
		tx:          tx,
		logger:      logger,
		now:         time.Now,
		parallelism: 8,
		lockTTL:     10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one sweep. The snapshot taken at the start decides the whole
// run: a reason expiring mid-run stays active until the next one. Entities
// are processed independently; one failure does not stop the rest.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
		if err != nil {
			return Result{}, err
		}
		if !acquired {
			s.logger.InfoContext(ctx, "sweep already running elsewhere, skipping")
			return Result{Skipped: true}, nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.ErrorContext(ctx, "release sweep lock", slog.Any("error", err))
			}
		}()
	}

	snapshot := s.now()
	start := snapshot
	expired, err := s.consents.ListActiveExpiredBefore(ctx, snapshot)
	if err != nil {
		return Result{}, err
	}
	if len(expired) == 0 {
		s.logger.InfoContext(ctx, "sweep found nothing to expire")
		return Result{}, nil
	}

	byEntity := make(map[entity.Ref][]*consent.LegalReason)
	for _, lr := range expired {
		byEntity[lr.Entity] = append(byEntity[lr.Entity], lr)
	}
	refs := make([]entity.Ref, 0, len(byEntity))
	for ref := range byEntity {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })

	var (
		mu     sync.Mutex
		result Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, ref := range refs {
		reasons := byEntity[ref]
		g.Go(func() error {
			if err := s.sweepEntity(gctx, ref, reasons); err != nil {
				s.logger.ErrorContext(gctx, "sweep entity failed",
					slog.String("entity", ref.String()),
					slog.Any("error", err))
				mu.Lock()
				result.EntitiesFailed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.EntitiesAnonymized++
			result.ReasonsDeactivated += len(reasons)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
		s.metrics.SweepDuration.Observe(s.now().Sub(start).Seconds())
		s.metrics.ReasonsDeactivated.Add(float64(result.ReasonsDeactivated))
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Category: audit.CategorySweep,
			Action:   audit.ActionSweepCompleted,
			Detail: map[string]string{
				"reasons_deactivated": strconv.Itoa(result.ReasonsDeactivated),
				"entities":            strconv.Itoa(result.EntitiesAnonymized),
				"failed":              strconv.Itoa(result.EntitiesFailed),
			},
		})
	}
	s.logger.InfoContext(ctx, "sweep completed",
		slog.Int("reasons_deactivated", result.ReasonsDeactivated),
		slog.Int("entities", result.EntitiesAnonymized),
		slog.Int("failed", result.EntitiesFailed))
	return result, nil
}

// sweepEntity deactivates the entity's expired reasons and re-anonymizes it
// in a single transaction.
func (s *Sweeper) sweepEntity(ctx context.Context, ref entity.Ref, reasons []*consent.LegalReason) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ids := make([]uuid.UUID, 0, len(reasons))
		for _, lr := range reasons {
			ids = append(ids, lr.ID)
		}
		if err := s.consents.Deactivate(ctx, ids); err != nil {
			return err
		}
		ent, err := s.loader.Load(ctx, ref)
		if err != nil {
			return err
		}
		return s.anonymizer.AnonymizeEntity(ctx, ent)
	})
}
