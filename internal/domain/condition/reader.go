package condition

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dentiq/therawizard/internal/domain/lookup"
)

// Reader assembles denormalized Condition aggregates from the relational
// tables. All tables are fetched in one concurrent round-trip set and joined
// in memory.
type Reader struct {
	repo    Repository
	lookups lookup.Repository
	logger  zerolog.Logger
}

func NewReader(repo Repository, lookups lookup.Repository, logger zerolog.Logger) *Reader {
	return &Reader{repo: repo, lookups: lookups, logger: logger}
}

// readSet is everything one ReadAll needs from the store.
type readSet struct {
	procedures    []ProcedureRow
	phaseLinks    []PhaseLinkRow
	dentistLinks  []DentistLinkRow
	phaseProducts []PhaseProductRow
	details       []ProductDetailRow
	usage         []UsageRow
	research      []ResearchRow

	phaseNames   map[string]int64
	productNames map[string]int64
	dentistNames map[string]int64
	patientTypes []lookup.PatientType
}

// ReadAll returns every condition, fully assembled. Unlike lookup resolution
// this fails hard: a partially assembled list would poison the cache.
func (r *Reader) ReadAll(ctx context.Context) ([]Condition, error) {
	set, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return r.assemble(set), nil
}

func (r *Reader) fetch(ctx context.Context) (*readSet, error) {
	var (
		set  readSet
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	run("procedures", func() (err error) { set.procedures, err = r.repo.ListProcedures(ctx); return })
	run("phase links", func() (err error) { set.phaseLinks, err = r.repo.ListPhaseLinks(ctx); return })
	run("dentist links", func() (err error) { set.dentistLinks, err = r.repo.ListDentistLinks(ctx); return })
	run("phase products", func() (err error) { set.phaseProducts, err = r.repo.ListPhaseProducts(ctx); return })
	run("product details", func() (err error) { set.details, err = r.repo.ListProductDetails(ctx); return })
	run("usage", func() (err error) { set.usage, err = r.repo.ListUsage(ctx); return })
	run("research", func() (err error) { set.research, err = r.repo.ListResearch(ctx); return })
	run("phases", func() (err error) { set.phaseNames, err = r.lookups.ListNames(ctx, lookup.KindPhase); return })
	run("products", func() (err error) { set.productNames, err = r.lookups.ListNames(ctx, lookup.KindProduct); return })
	run("dentists", func() (err error) { set.dentistNames, err = r.lookups.ListNames(ctx, lookup.KindDentistType); return })
	run("patient types", func() (err error) { set.patientTypes, err = r.lookups.ListPatientTypes(ctx); return })
	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("read conditions: %w", errs[0])
	}
	return &set, nil
}

func (r *Reader) assemble(set *readSet) []Condition {
	phaseByID := invert(set.phaseNames)
	productByID := invert(set.productNames)
	dentistByID := invert(set.dentistNames)

	patientTypeByID := make(map[int64]string, len(set.patientTypes))
	for _, pt := range set.patientTypes {
		patientTypeByID[pt.ID] = pt.Name
	}
	var fallbackPatientType string
	if len(set.patientTypes) > 0 {
		fallbackPatientType = set.patientTypes[0].Name
	}

	conditions := make([]Condition, 0, len(set.procedures))
	index := make(map[int64]*Condition, len(set.procedures))
	for _, p := range set.procedures {
		id := p.ID
		// Seed every known phase with every real patient-type bucket so the
		// UI always sees the full grid, even for phases with no links or
		// recommendations yet.
		cfg := make(map[string]map[string][]string, len(set.phaseNames))
		for phase := range set.phaseNames {
			perType := make(map[string][]string, len(set.patientTypes))
			for _, pt := range set.patientTypes {
				perType[pt.Name] = []string{}
			}
			cfg[phase] = perType
		}
		conditions = append(conditions, Condition{
			DBID:                      &id,
			Name:                      p.Name,
			Category:                  p.CategoryName,
			PitchPoints:               p.PitchPoints,
			PatientType:               p.PatientType,
			Phases:                    []string{},
			DDS:                       []string{},
			PatientSpecificConfig:     cfg,
			ProductDetails:            map[string]*ProductDetail{},
			ConditionSpecificResearch: map[string][]ResearchArticle{},
		})
		index[p.ID] = &conditions[len(conditions)-1]
	}

	for _, l := range set.phaseLinks {
		c, ok := index[l.ProcedureID]
		if !ok {
			continue
		}
		phase, ok := phaseByID[l.PhaseID]
		if !ok {
			r.logger.Warn().Int64("phase_id", l.PhaseID).Msg("phase link references unknown phase; skipping")
			continue
		}
		c.Phases = appendUnique(c.Phases, phase)
	}

	for _, l := range set.dentistLinks {
		c, ok := index[l.ProcedureID]
		if !ok {
			continue
		}
		if name, ok := dentistByID[l.DentistID]; ok {
			c.DDS = appendUnique(c.DDS, name)
		}
	}

	for _, row := range set.phaseProducts {
		c, ok := index[row.ProcedureID]
		if !ok {
			continue
		}
		phase, ok := phaseByID[row.PhaseID]
		if !ok {
			continue
		}
		product, ok := productByID[row.ProductID]
		if !ok {
			r.logger.Warn().Int64("product_id", row.ProductID).Msg("recommendation references unknown product; skipping")
			continue
		}
		patientType := fallbackPatientType
		if row.PatientTypeID != nil {
			if name, ok := patientTypeByID[*row.PatientTypeID]; ok {
				patientType = name
			} else {
				r.logger.Warn().
					Int64("procedure_id", row.ProcedureID).
					Int64("patient_type_id", *row.PatientTypeID).
					Str("fallback", fallbackPatientType).
					Msg("recommendation references unknown patient type; using fallback")
			}
		} else {
			r.logger.Warn().
				Int64("procedure_id", row.ProcedureID).
				Str("fallback", fallbackPatientType).
				Msg("recommendation has no patient type; using fallback")
		}
		if patientType == "" {
			continue
		}
		perType, ok := c.PatientSpecificConfig[phase]
		if !ok {
			perType = map[string][]string{}
			c.PatientSpecificConfig[phase] = perType
		}
		perType[patientType] = appendUnique(perType[patientType], product)
	}

	detailByKey := make(map[[2]int64]*ProductDetail, len(set.details))
	for _, d := range set.details {
		c, ok := index[d.ProcedureID]
		if !ok {
			continue
		}
		product, ok := productByID[d.ProductID]
		if !ok {
			continue
		}
		detail := &ProductDetail{
			Usage:               map[string]string{},
			ScientificRationale: d.ScientificRationale,
			ClinicalEvidence:    d.ClinicalEvidence,
			HandlingObjections:  d.HandlingObjections,
			PitchPoints:         d.PitchPoints,
			FactSheetURL:        d.FactSheetURL,
			ResearchArticles:    []ResearchArticle{},
		}
		c.ProductDetails[product] = detail
		detailByKey[[2]int64{d.ProcedureID, d.ProductID}] = detail
		// The first detail row doubles as the condition-level text for older
		// screens that predate per-product fields.
		if c.ScientificRationale == "" && c.ClinicalEvidence == "" && c.HandlingObjections == "" {
			c.ScientificRationale = d.ScientificRationale
			c.ClinicalEvidence = d.ClinicalEvidence
			c.HandlingObjections = d.HandlingObjections
		}
	}

	for _, u := range set.usage {
		detail, ok := detailByKey[[2]int64{u.ProcedureID, u.ProductID}]
		if !ok {
			continue
		}
		if phase, ok := phaseByID[u.PhaseID]; ok {
			detail.Usage[phase] = u.Instructions
		}
	}

	for _, a := range set.research {
		c, ok := index[a.ProcedureID]
		if !ok {
			continue
		}
		product, ok := productByID[a.ProductID]
		if !ok {
			continue
		}
		article := ResearchArticle{Title: a.Title, Author: a.Author, Abstract: a.Abstract, URL: a.URL}
		if detail, ok := detailByKey[[2]int64{a.ProcedureID, a.ProductID}]; ok {
			detail.ResearchArticles = append(detail.ResearchArticles, article)
		}
		c.ConditionSpecificResearch[product] = append(c.ConditionSpecificResearch[product], article)
	}

	for i := range conditions {
		conditions[i].PatientSpecificConfig = WithDerivedAll(conditions[i].PatientSpecificConfig)
	}
	return conditions
}

func invert(names map[string]int64) map[int64]string {
	out := make(map[int64]string, len(names))
	for name, id := range names {
		out[id] = name
	}
	return out
}
