package condition

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dentiq/therawizard/internal/domain/lookup"
	"github.com/dentiq/therawizard/internal/platform/cache"
	"github.com/dentiq/therawizard/internal/platform/telemetry"
)

// SaveBatch is one admin save: the accumulated lookup edits plus every
// condition the screen holds, saved in a single request.
type SaveBatch struct {
	Categories     []string        `json:"categories"`
	DentistTypes   []string        `json:"dentistTypes"`
	Products       []string        `json:"products"`
	Phases         []string        `json:"phases"`
	ProductRenames []lookup.Rename `json:"productRenames"`
	Conditions     []Condition     `json:"conditions"`
	DeletedIDs     []int64         `json:"deletedIds"`
}

// SaveOutcome reports what one batch changed, plus the re-read list so the
// client can swap state in one round trip.
type SaveOutcome struct {
	Synced     map[string]lookup.SyncResult `json:"synced"`
	Saved      int                          `json:"saved"`
	Deleted    int                          `json:"deleted"`
	Conditions []Condition                  `json:"conditions"`
}

// Service orchestrates reads and batch saves over the condition aggregate.
// The assembled list is memoized in a TTL slot; every successful save
// invalidates it and re-reads.
type Service struct {
	repo     Repository
	reader   *Reader
	writer   *Writer
	resolver *lookup.Resolver
	syncer   *lookup.Syncer
	slot     *cache.Slot[[]Condition]
	metrics  *telemetry.Metrics
	logger   zerolog.Logger
}

func NewService(
	repo Repository,
	lookups lookup.Repository,
	slot *cache.Slot[[]Condition],
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		reader:   NewReader(repo, lookups, logger),
		writer:   NewWriter(repo, logger),
		resolver: lookup.NewResolver(lookups, logger),
		syncer:   lookup.NewSyncer(lookups, logger),
		slot:     slot,
		metrics:  metrics,
		logger:   logger,
	}
}

// List returns the assembled conditions, served from the slot unless it has
// expired or force is set.
func (s *Service) List(ctx context.Context, force bool) ([]Condition, error) {
	conditions, hit, err := s.slot.Get(force, func() ([]Condition, error) {
		return s.reader.ReadAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		s.metrics.CacheHit()
	} else {
		s.metrics.CacheMiss()
	}
	return conditions, nil
}

// Save runs one batch: lookup tables first (concurrently), then a fresh
// name index, then each condition write, then deletions. Sub-failures are
// logged and do not stop the batch; the last error comes back with the
// partial outcome.
func (s *Service) Save(ctx context.Context, batch *SaveBatch) (*SaveOutcome, error) {
	outcome := &SaveOutcome{Synced: map[string]lookup.SyncResult{}}
	var lastErr error

	// Phases accumulate implicitly on conditions, so union them into the
	// explicit list before reconciling.
	phases := batch.Phases
	for i := range batch.Conditions {
		for _, p := range batch.Conditions[i].Phases {
			phases = appendUnique(phases, p)
		}
	}

	type syncJob struct {
		kind    lookup.Kind
		local   []string
		renames []lookup.Rename
	}
	jobs := []syncJob{
		{lookup.KindCategory, batch.Categories, nil},
		{lookup.KindDentistType, batch.DentistTypes, nil},
		{lookup.KindProduct, batch.Products, batch.ProductRenames},
		{lookup.KindPhase, phases, nil},
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, job := range jobs {
		// An empty list means the screen did not submit that table, never a
		// request to clear it; remote-only rows survive such a batch.
		if len(job.local) == 0 && len(job.renames) == 0 {
			continue
		}
		wg.Add(1)
		go func(job syncJob) {
			defer wg.Done()
			result, err := s.syncer.Sync(ctx, job.kind, job.local, job.renames)
			mu.Lock()
			defer mu.Unlock()
			outcome.Synced[string(job.kind)] = result
			if err != nil {
				lastErr = fmt.Errorf("sync %s: %w", job.kind, err)
			}
		}(job)
	}
	wg.Wait()

	// Resolve after the syncs so newly inserted names have IDs.
	ix := s.resolver.Resolve(ctx)

	// The writer deletes child rows before reinserting, so a map that
	// resolved empty during a lookup outage would wipe recommendations
	// instead of rewriting them. Skip every condition write in that case.
	if kind, gap := criticalIndexGap(batch, ix); gap {
		s.logger.Error().Str("table", string(kind)).Msg("lookup name index resolved empty; skipping condition writes")
		lastErr = fmt.Errorf("save conditions: %s name index is empty", kind)
	} else {
		for i := range batch.Conditions {
			c := &batch.Conditions[i]
			id, err := s.writer.Write(ctx, c, ix)
			s.metrics.StoreOp("procedures", "save", err)
			if err != nil {
				s.logger.Error().Err(err).Str("condition", c.Name).Msg("condition save incomplete")
				lastErr = fmt.Errorf("save %q: %w", c.Name, err)
			}
			if id != 0 {
				outcome.Saved++
			}
		}
	}

	for _, id := range batch.DeletedIDs {
		// A condition deleted before its first save has no row to remove.
		if id <= 0 {
			continue
		}
		err := s.repo.DeleteProcedure(ctx, id)
		s.metrics.StoreOp("procedures", "delete", err)
		if err != nil {
			s.logger.Error().Err(err).Int64("procedure_id", id).Msg("condition delete failed")
			lastErr = fmt.Errorf("delete %d: %w", id, err)
			continue
		}
		outcome.Deleted++
	}

	s.slot.Invalidate()
	conditions, err := s.List(ctx, true)
	if err != nil {
		s.logger.Error().Err(err).Msg("post-save re-read failed")
		lastErr = err
	}
	outcome.Conditions = conditions
	return outcome, lastErr
}

// criticalIndexGap returns the first lookup kind that the batch's conditions
// reference but the index resolved empty.
func criticalIndexGap(batch *SaveBatch, ix *lookup.NameIndex) (lookup.Kind, bool) {
	var needsPhases, needsPatientTypes, needsProducts bool
	for i := range batch.Conditions {
		c := &batch.Conditions[i]
		if len(c.Phases) > 0 || len(c.PatientSpecificConfig) > 0 {
			needsPhases = true
		}
		if len(c.ProductDetails) > 0 {
			needsProducts = true
		}
		for _, perType := range c.PatientSpecificConfig {
			for pt, products := range perType {
				if pt != DerivedAllKey {
					needsPatientTypes = true
				}
				if len(products) > 0 {
					needsProducts = true
				}
			}
		}
	}
	switch {
	case needsProducts && ix.Empty(lookup.KindProduct):
		return lookup.KindProduct, true
	case needsPhases && ix.Empty(lookup.KindPhase):
		return lookup.KindPhase, true
	case needsPatientTypes && ix.Empty(lookup.KindPatientType):
		return lookup.KindPatientType, true
	}
	return "", false
}

// Delete removes one stored condition and its child rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.DeleteProcedure(ctx, id)
	s.metrics.StoreOp("procedures", "delete", err)
	if err != nil {
		return err
	}
	s.slot.Invalidate()
	return nil
}
