package condition

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dentiq/therawizard/internal/domain/lookup"
)

func testIndex(t *testing.T, lookups lookup.Repository) *lookup.NameIndex {
	t.Helper()
	return lookup.NewResolver(lookups, zerolog.Nop()).Resolve(context.Background())
}

func gingivitis() *Condition {
	category := "Perio"
	return &Condition{
		Name:        "Gingivitis",
		Category:    &category,
		PitchPoints: "Early intervention matters",
		PatientType: "Adult",
		Phases:      []string{"Prep", "Acute"},
		DDS:         []string{"General Dentist"},
		PatientSpecificConfig: map[string]map[string][]string{
			"Prep": {"Type A": {"RinseX"}},
		},
		ProductDetails: map[string]*ProductDetail{
			"RinseX": {
				Usage:               map[string]string{"Prep": "Rinse twice daily"},
				ScientificRationale: "Reduces plaque load",
				ClinicalEvidence:    "Two randomized trials",
				HandlingObjections:  "Taste fades after a week",
				PitchPoints:         "Fast symptom relief",
				FactSheetURL:        "https://example.com/rinsex.pdf",
				ResearchArticles: []ResearchArticle{
					{Title: "RinseX efficacy", Author: "Doe", Abstract: "12-week study", URL: "https://example.com/study"},
				},
			},
		},
	}
}

func TestWriteInsertsNewCondition(t *testing.T) {
	store := newMemStore()
	store.categories[2] = "Perio"
	lookups := newLookupStub()
	w := NewWriter(store, zerolog.Nop())

	c := gingivitis()
	id, err := w.Write(context.Background(), c, testIndex(t, lookups))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if id == 0 || c.DBID == nil || *c.DBID != id {
		t.Fatalf("expected assigned db id, got id=%d dbid=%v", id, c.DBID)
	}

	row := store.procedures[id]
	if row.Name != "Gingivitis" || row.CategoryID == nil || *row.CategoryID != 2 {
		t.Fatalf("procedure row = %+v", row)
	}
	if len(store.phaseLinks) != 2 {
		t.Fatalf("phase links = %v", store.phaseLinks)
	}
	if len(store.dentistLinks) != 1 || store.dentistLinks[0].DentistID != 11 {
		t.Fatalf("dentist links = %v", store.dentistLinks)
	}
	if len(store.phaseProducts) != 1 {
		t.Fatalf("phase products = %v", store.phaseProducts)
	}
	pp := store.phaseProducts[0]
	if pp.PhaseID != 20 || pp.ProductID != 40 || pp.PatientTypeID == nil || *pp.PatientTypeID != 30 {
		t.Fatalf("recommendation row = %+v", pp)
	}
	if len(store.details) != 1 || len(store.usage) != 1 || len(store.research) != 1 {
		t.Fatalf("details=%d usage=%d research=%d", len(store.details), len(store.usage), len(store.research))
	}
}

func TestWriteBackfillsPlaceholderDetails(t *testing.T) {
	store := newMemStore()
	lookups := newLookupStub()
	w := NewWriter(store, zerolog.Nop())

	c := gingivitis()
	c.PatientSpecificConfig["Prep"]["Type B"] = []string{"GelZ"}

	if _, err := w.Write(context.Background(), c, testIndex(t, lookups)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var gelz *ProductDetailRow
	for _, d := range store.details {
		if d.ProductID == 41 {
			row := d
			gelz = &row
		}
	}
	if gelz == nil {
		t.Fatal("no placeholder detail row for the recommended product")
	}
	if gelz.ScientificRationale == "" || gelz.ScientificRationale != placeholderDetailText {
		t.Fatalf("placeholder text = %q", gelz.ScientificRationale)
	}
}

func TestWriteNeverPersistsDerivedBucket(t *testing.T) {
	store := newMemStore()
	lookups := newLookupStub()
	w := NewWriter(store, zerolog.Nop())

	c := gingivitis()
	c.PatientSpecificConfig["Prep"][DerivedAllKey] = []string{"RinseX", "GelZ"}

	if _, err := w.Write(context.Background(), c, testIndex(t, lookups)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(store.phaseProducts) != 1 {
		t.Fatalf("derived bucket leaked into the store: %v", store.phaseProducts)
	}
}

func TestWriteUpdateDiffsJoinTables(t *testing.T) {
	store := newMemStore()
	lookups := newLookupStub()
	w := NewWriter(store, zerolog.Nop())
	ix := testIndex(t, lookups)

	c := gingivitis()
	id, err := w.Write(context.Background(), c, ix)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	c.Phases = []string{"Prep", "Maintenance"}
	if _, err := w.Write(context.Background(), c, ix); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := map[int64]bool{}
	for _, l := range store.phaseLinks {
		if l.ProcedureID == id {
			got[l.PhaseID] = true
		}
	}
	if len(got) != 2 || !got[20] || !got[22] {
		t.Fatalf("phase links after update = %v", store.phaseLinks)
	}
}

func TestWritePartialFailureContinues(t *testing.T) {
	store := newMemStore()
	store.failInsertDetail = true
	lookups := newLookupStub()
	w := NewWriter(store, zerolog.Nop())

	c := gingivitis()
	id, err := w.Write(context.Background(), c, testIndex(t, lookups))
	if err == nil {
		t.Fatal("expected an error from the refused detail insert")
	}
	if id == 0 {
		t.Fatal("procedure id should survive a sub-step failure")
	}
	// Recommendations run before details and must have landed.
	if len(store.phaseProducts) != 1 {
		t.Fatalf("recommendations lost: %v", store.phaseProducts)
	}
}

func TestWriteSkipsUnknownLookupNames(t *testing.T) {
	store := newMemStore()
	lookups := newLookupStub()
	w := NewWriter(store, zerolog.Nop())

	c := gingivitis()
	c.Phases = append(c.Phases, "Nonexistent Phase")
	c.PatientSpecificConfig["Prep"]["Type A"] = append(c.PatientSpecificConfig["Prep"]["Type A"], "UnknownProduct")

	if _, err := w.Write(context.Background(), c, testIndex(t, lookups)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(store.phaseLinks) != 2 {
		t.Fatalf("unknown phase linked: %v", store.phaseLinks)
	}
	if len(store.phaseProducts) != 1 {
		t.Fatalf("unknown product recommended: %v", store.phaseProducts)
	}
}
