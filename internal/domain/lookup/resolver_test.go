package lookup

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type failingListRepo struct {
	*mockRepo
	failKinds map[Kind]bool
}

func (f *failingListRepo) ListNames(ctx context.Context, kind Kind) (map[string]int64, error) {
	if f.failKinds[kind] {
		return nil, fmt.Errorf("query %s failed", kind)
	}
	return f.mockRepo.ListNames(ctx, kind)
}

func TestResolve_AllTables(t *testing.T) {
	repo := newMockRepo()
	repo.seed(KindCategory, "Periodontal")
	repo.seed(KindProduct, "RinseX")
	repo.seed(KindPhase, "Prep")
	repo.seed(KindDentistType, "General")
	repo.seed(KindPatientType, "TypeA")

	ix := NewResolver(repo, zerolog.Nop()).Resolve(context.Background())

	if ix.Categories["Periodontal"] == 0 {
		t.Error("expected category resolved")
	}
	if ix.Products["RinseX"] == 0 {
		t.Error("expected product resolved")
	}
	if ix.Empty(KindPhase) || ix.Empty(KindDentistType) || ix.Empty(KindPatientType) {
		t.Error("expected all maps populated")
	}
}

func TestResolve_FailsSoftPerTable(t *testing.T) {
	repo := newMockRepo()
	repo.seed(KindProduct, "RinseX")
	repo.seed(KindPhase, "Prep")
	failing := &failingListRepo{mockRepo: repo, failKinds: map[Kind]bool{KindProduct: true}}

	ix := NewResolver(failing, zerolog.Nop()).Resolve(context.Background())

	if !ix.Empty(KindProduct) {
		t.Error("failed fetch must degrade to empty map")
	}
	if ix.Empty(KindPhase) {
		t.Error("other maps must still resolve")
	}
}
