package condition

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dentiq/therawizard/internal/domain/lookup"
)

// memStore is an in-memory Repository used across the package tests.
type memStore struct {
	mu sync.Mutex

	nextProcedureID int64
	nextDetailID    int64
	procedures      map[int64]ProcedureRow
	categories      map[int64]string
	phaseLinks      []PhaseLinkRow
	dentistLinks    []DentistLinkRow
	phaseProducts   []PhaseProductRow
	details         map[int64]ProductDetailRow
	usage           []usageEntry
	research        []ResearchRow

	listProcedureCalls   int
	deleteProcedureCalls int
	failInsertDetail     bool
	failInsertResearch   bool
}

type usageEntry struct {
	detailID     int64
	phaseID      int64
	instructions string
}

func newMemStore() *memStore {
	return &memStore{
		nextProcedureID: 1,
		nextDetailID:    1,
		procedures:      map[int64]ProcedureRow{},
		categories:      map[int64]string{},
		details:         map[int64]ProductDetailRow{},
	}
}

func (m *memStore) ListProcedures(ctx context.Context) ([]ProcedureRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listProcedureCalls++
	var rows []ProcedureRow
	for _, p := range m.procedures {
		if p.CategoryID != nil {
			if name, ok := m.categories[*p.CategoryID]; ok {
				n := name
				p.CategoryName = &n
			}
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (m *memStore) ListPhaseLinks(ctx context.Context) ([]PhaseLinkRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PhaseLinkRow(nil), m.phaseLinks...), nil
}

func (m *memStore) ListDentistLinks(ctx context.Context) ([]DentistLinkRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DentistLinkRow(nil), m.dentistLinks...), nil
}

func (m *memStore) ListPhaseProducts(ctx context.Context) ([]PhaseProductRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PhaseProductRow(nil), m.phaseProducts...), nil
}

func (m *memStore) ListProductDetails(ctx context.Context) ([]ProductDetailRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []ProductDetailRow
	for _, d := range m.details {
		rows = append(rows, d)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (m *memStore) ListUsage(ctx context.Context) ([]UsageRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []UsageRow
	for _, u := range m.usage {
		d, ok := m.details[u.detailID]
		if !ok {
			continue
		}
		rows = append(rows, UsageRow{
			ProductDetailID: u.detailID,
			ProcedureID:     d.ProcedureID,
			ProductID:       d.ProductID,
			PhaseID:         u.phaseID,
			Instructions:    u.instructions,
		})
	}
	return rows, nil
}

func (m *memStore) ListResearch(ctx context.Context) ([]ResearchRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResearchRow(nil), m.research...), nil
}

func (m *memStore) InsertProcedure(ctx context.Context, row *ProcedureRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = m.nextProcedureID
	m.nextProcedureID++
	m.procedures[row.ID] = *row
	return row.ID, nil
}

func (m *memStore) UpdateProcedure(ctx context.Context, row *ProcedureRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.procedures[row.ID]; !ok {
		return errors.New("no such procedure")
	}
	m.procedures[row.ID] = *row
	return nil
}

func (m *memStore) DeleteProcedure(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteProcedureCalls++
	if _, ok := m.procedures[id]; !ok {
		return errors.New("no such procedure")
	}
	delete(m.procedures, id)
	m.phaseLinks = filterPhaseLinks(m.phaseLinks, id)
	m.dentistLinks = filterDentistLinks(m.dentistLinks, id)
	m.deletePhaseProductsLocked(id)
	m.deleteDetailsLocked(id)
	m.deleteResearchLocked(id)
	return nil
}

func (m *memStore) LinkedPhaseIDs(ctx context.Context, procedureID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, l := range m.phaseLinks {
		if l.ProcedureID == procedureID {
			ids = append(ids, l.PhaseID)
		}
	}
	return ids, nil
}

func (m *memStore) AddPhaseLinks(ctx context.Context, procedureID int64, phaseIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range phaseIDs {
		m.phaseLinks = append(m.phaseLinks, PhaseLinkRow{ProcedureID: procedureID, PhaseID: id})
	}
	return nil
}

func (m *memStore) RemovePhaseLinks(ctx context.Context, procedureID int64, phaseIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := idSet(phaseIDs)
	kept := m.phaseLinks[:0]
	for _, l := range m.phaseLinks {
		if l.ProcedureID == procedureID && drop[l.PhaseID] {
			continue
		}
		kept = append(kept, l)
	}
	m.phaseLinks = kept
	return nil
}

func (m *memStore) LinkedDentistIDs(ctx context.Context, procedureID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, l := range m.dentistLinks {
		if l.ProcedureID == procedureID {
			ids = append(ids, l.DentistID)
		}
	}
	return ids, nil
}

func (m *memStore) AddDentistLinks(ctx context.Context, procedureID int64, dentistIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range dentistIDs {
		m.dentistLinks = append(m.dentistLinks, DentistLinkRow{ProcedureID: procedureID, DentistID: id})
	}
	return nil
}

func (m *memStore) RemoveDentistLinks(ctx context.Context, procedureID int64, dentistIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := idSet(dentistIDs)
	kept := m.dentistLinks[:0]
	for _, l := range m.dentistLinks {
		if l.ProcedureID == procedureID && drop[l.DentistID] {
			continue
		}
		kept = append(kept, l)
	}
	m.dentistLinks = kept
	return nil
}

func (m *memStore) DeletePhaseProducts(ctx context.Context, procedureID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletePhaseProductsLocked(procedureID)
	return nil
}

func (m *memStore) InsertPhaseProducts(ctx context.Context, rows []PhaseProductRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phaseProducts = append(m.phaseProducts, rows...)
	return nil
}

func (m *memStore) DeleteProductDetails(ctx context.Context, procedureID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteDetailsLocked(procedureID)
	return nil
}

func (m *memStore) InsertProductDetail(ctx context.Context, row *ProductDetailRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertDetail {
		return 0, errors.New("detail insert refused")
	}
	row.ID = m.nextDetailID
	m.nextDetailID++
	m.details[row.ID] = *row
	return row.ID, nil
}

func (m *memStore) InsertUsage(ctx context.Context, productDetailID, phaseID int64, instructions string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, usageEntry{detailID: productDetailID, phaseID: phaseID, instructions: instructions})
	return nil
}

func (m *memStore) DeleteResearch(ctx context.Context, procedureID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteResearchLocked(procedureID)
	return nil
}

func (m *memStore) InsertResearch(ctx context.Context, rows []ResearchRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertResearch {
		return errors.New("research insert refused")
	}
	m.research = append(m.research, rows...)
	return nil
}

func (m *memStore) deletePhaseProductsLocked(procedureID int64) {
	kept := m.phaseProducts[:0]
	for _, p := range m.phaseProducts {
		if p.ProcedureID != procedureID {
			kept = append(kept, p)
		}
	}
	m.phaseProducts = kept
}

func (m *memStore) deleteDetailsLocked(procedureID int64) {
	for id, d := range m.details {
		if d.ProcedureID == procedureID {
			keptUsage := m.usage[:0]
			for _, u := range m.usage {
				if u.detailID != id {
					keptUsage = append(keptUsage, u)
				}
			}
			m.usage = keptUsage
			delete(m.details, id)
		}
	}
}

func (m *memStore) deleteResearchLocked(procedureID int64) {
	kept := m.research[:0]
	for _, a := range m.research {
		if a.ProcedureID != procedureID {
			kept = append(kept, a)
		}
	}
	m.research = kept
}

func filterPhaseLinks(links []PhaseLinkRow, procedureID int64) []PhaseLinkRow {
	kept := links[:0]
	for _, l := range links {
		if l.ProcedureID != procedureID {
			kept = append(kept, l)
		}
	}
	return kept
}

func filterDentistLinks(links []DentistLinkRow, procedureID int64) []DentistLinkRow {
	kept := links[:0]
	for _, l := range links {
		if l.ProcedureID != procedureID {
			kept = append(kept, l)
		}
	}
	return kept
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// lookupStub is an in-memory lookup.Repository seeded with the standard test
// vocabulary.
type lookupStub struct {
	mu           sync.Mutex
	nextID       int64
	tables       map[lookup.Kind]map[string]int64
	patientTypes []lookup.PatientType

	failListNames bool
}

func newLookupStub() *lookupStub {
	s := &lookupStub{
		nextID: 100,
		tables: map[lookup.Kind]map[string]int64{
			lookup.KindCategory:    {"All": 1, "Perio": 2},
			lookup.KindDentistType: {"All": 10, "General Dentist": 11},
			lookup.KindPhase:       {"Prep": 20, "Acute": 21, "Maintenance": 22},
			lookup.KindPatientType: {"Type A": 30, "Type B": 31},
			lookup.KindProduct:     {"RinseX": 40, "GelZ": 41, "PasteQ": 42},
		},
	}
	s.patientTypes = []lookup.PatientType{
		{ID: 30, Name: "Type A"},
		{ID: 31, Name: "Type B"},
	}
	return s
}

func (s *lookupStub) ListNames(ctx context.Context, kind lookup.Kind) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failListNames {
		return nil, errors.New("lookup tables unavailable")
	}
	out := make(map[string]int64, len(s.tables[kind]))
	for name, id := range s.tables[kind] {
		out[name] = id
	}
	return out, nil
}

func (s *lookupStub) ListCategories(ctx context.Context) ([]lookup.Category, error) {
	return nil, errors.New("not used")
}

func (s *lookupStub) ListDentistTypes(ctx context.Context) ([]lookup.DentistType, error) {
	return nil, errors.New("not used")
}

func (s *lookupStub) ListPhases(ctx context.Context) ([]lookup.Phase, error) {
	return nil, errors.New("not used")
}

func (s *lookupStub) ListPatientTypes(ctx context.Context) ([]lookup.PatientType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lookup.PatientType(nil), s.patientTypes...), nil
}

func (s *lookupStub) ListProducts(ctx context.Context) ([]lookup.Product, error) {
	return nil, errors.New("not used")
}

func (s *lookupStub) Insert(ctx context.Context, kind lookup.Kind, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.tables[kind][name] = s.nextID
	if kind == lookup.KindPatientType {
		s.patientTypes = append(s.patientTypes, lookup.PatientType{ID: s.nextID, Name: name})
	}
	return s.nextID, nil
}

func (s *lookupStub) Delete(ctx context.Context, kind lookup.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, rowID := range s.tables[kind] {
		if rowID == id {
			delete(s.tables[kind], name)
		}
	}
	return nil
}

func (s *lookupStub) Rename(ctx context.Context, kind lookup.Kind, id int64, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, rowID := range s.tables[kind] {
		if rowID == id {
			delete(s.tables[kind], name)
			break
		}
	}
	s.tables[kind][newName] = id
	return nil
}

func (s *lookupStub) UnlinkCategory(ctx context.Context, categoryID int64) error { return nil }

func (s *lookupStub) UnlinkDentistType(ctx context.Context, dentistID int64) error { return nil }
