package lookup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SyncResult reports what one reconciliation pass changed. A second pass with
// the same local list yields an empty result.
type SyncResult struct {
	Renamed []string `json:"renamed"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

func (r SyncResult) Empty() bool {
	return len(r.Renamed) == 0 && len(r.Added) == 0 && len(r.Removed) == 0
}

// Syncer reconciles a locally accumulated flat name list against a remote
// lookup table: renames first, then the add set, then the delete set.
type Syncer struct {
	repo   Repository
	logger zerolog.Logger
}

func NewSyncer(repo Repository, logger zerolog.Logger) *Syncer {
	return &Syncer{repo: repo, logger: logger}
}

// Sync applies renames (products only), inserts local-minus-remote and deletes
// remote-minus-local. Sub-step failures are logged and do not stop the pass;
// the last error seen is returned with the partial result. The reserved name
// "All" is never deleted from categories or dentist types, and deleting a
// category or dentist type unlinks referencing procedures first.
func (s *Syncer) Sync(ctx context.Context, kind Kind, local []string, renames []Rename) (SyncResult, error) {
	var result SyncResult
	if !ValidKind(kind) {
		return result, fmt.Errorf("unknown lookup kind: %s", kind)
	}

	remote, err := s.repo.ListNames(ctx, kind)
	if err != nil {
		return result, fmt.Errorf("fetch remote %s: %w", kind, err)
	}

	var lastErr error

	if kind == KindProduct {
		for _, rn := range renames {
			id, ok := remote[rn.OldName]
			if !ok || rn.NewName == "" || rn.OldName == rn.NewName {
				continue
			}
			if err := s.repo.Rename(ctx, kind, id, rn.NewName); err != nil {
				s.logger.Error().Err(err).Str("old", rn.OldName).Str("new", rn.NewName).Msg("product rename failed")
				lastErr = err
				continue
			}
			delete(remote, rn.OldName)
			remote[rn.NewName] = id
			result.Renamed = append(result.Renamed, rn.NewName)
		}
	}

	localSet := make(map[string]bool, len(local))
	for _, name := range local {
		if name == "" {
			continue
		}
		localSet[name] = true
	}

	for name := range localSet {
		if _, ok := remote[name]; ok {
			continue
		}
		if _, err := s.repo.Insert(ctx, kind, name); err != nil {
			s.logger.Error().Err(err).Str("table", string(kind)).Str("name", name).Msg("lookup insert failed")
			lastErr = err
			continue
		}
		result.Added = append(result.Added, name)
	}

	for name, id := range remote {
		if localSet[name] {
			continue
		}
		if name == ReservedName && (kind == KindCategory || kind == KindDentistType) {
			continue
		}
		if err := s.unlink(ctx, kind, id); err != nil {
			s.logger.Error().Err(err).Str("table", string(kind)).Str("name", name).Msg("lookup unlink failed")
			lastErr = err
			continue
		}
		if err := s.repo.Delete(ctx, kind, id); err != nil {
			s.logger.Error().Err(err).Str("table", string(kind)).Str("name", name).Msg("lookup delete failed")
			lastErr = err
			continue
		}
		result.Removed = append(result.Removed, name)
	}

	return result, lastErr
}

func (s *Syncer) unlink(ctx context.Context, kind Kind, id int64) error {
	switch kind {
	case KindCategory:
		return s.repo.UnlinkCategory(ctx, id)
	case KindDentistType:
		return s.repo.UnlinkDentistType(ctx, id)
	}
	return nil
}
