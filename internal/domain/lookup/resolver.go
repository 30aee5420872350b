package lookup

import (
	"context"

	"github.com/rs/zerolog"
)

// NameIndex holds the name→ID mappings for every lookup table. The UI and the
// condition aggregate speak in names; the join tables key by ID.
type NameIndex struct {
	Categories   map[string]int64
	Products     map[string]int64
	Phases       map[string]int64
	Dentists     map[string]int64
	PatientTypes map[string]int64
}

// Empty reports whether the map for kind resolved to no entries. Callers that
// know the table is populated should treat an empty critical map as a signal
// to abort the write the index was fetched for.
func (ix *NameIndex) Empty(kind Kind) bool {
	switch kind {
	case KindCategory:
		return len(ix.Categories) == 0
	case KindProduct:
		return len(ix.Products) == 0
	case KindPhase:
		return len(ix.Phases) == 0
	case KindDentistType:
		return len(ix.Dentists) == 0
	case KindPatientType:
		return len(ix.PatientTypes) == 0
	}
	return true
}

// Resolver builds NameIndex snapshots from the lookup tables.
type Resolver struct {
	repo   Repository
	logger zerolog.Logger
}

func NewResolver(repo Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve fetches all five mappings. Each fetch fails soft: an error degrades
// that map to empty rather than aborting the others.
func (r *Resolver) Resolve(ctx context.Context) *NameIndex {
	return &NameIndex{
		Categories:   r.fetch(ctx, KindCategory),
		Products:     r.fetch(ctx, KindProduct),
		Phases:       r.fetch(ctx, KindPhase),
		Dentists:     r.fetch(ctx, KindDentistType),
		PatientTypes: r.fetch(ctx, KindPatientType),
	}
}

func (r *Resolver) fetch(ctx context.Context, kind Kind) map[string]int64 {
	names, err := r.repo.ListNames(ctx, kind)
	if err != nil {
		r.logger.Error().Err(err).Str("table", string(kind)).Msg("resolve lookup names failed; degrading to empty map")
		return map[string]int64{}
	}
	return names
}
