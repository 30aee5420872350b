package condition

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/dentiq/therawizard/internal/domain/lookup"
)

// Placeholder text written for products that appear in recommendations but
// have no authored detail block yet. Must stay non-empty so the UI never
// renders a null detail panel.
const placeholderDetailText = "Details pending. Please update this product's information."

// Writer decomposes a Condition aggregate back into its relational tables.
// Join tables sync diff-based against the stored links; child-row tables
// (recommendations, details, usage, research) resync by delete-then-reinsert.
type Writer struct {
	repo   Repository
	logger zerolog.Logger
}

func NewWriter(repo Repository, logger zerolog.Logger) *Writer {
	return &Writer{repo: repo, logger: logger}
}

// Write persists one condition. Sub-steps after the procedure row tolerate
// partial failure: each failed step is logged and the remaining steps still
// run, so one bad row cannot wedge the whole save. The last error is
// returned. The procedure ID is valid whenever it is non-zero, even when err
// is non-nil.
func (w *Writer) Write(ctx context.Context, c *Condition, ix *lookup.NameIndex) (int64, error) {
	c.StripDerived()

	row := ProcedureRow{
		Name:        c.Name,
		PitchPoints: c.PitchPoints,
		PatientType: c.PatientType,
	}
	if c.Category != nil && *c.Category != "" {
		if id, ok := ix.Categories[*c.Category]; ok {
			row.CategoryID = &id
		} else {
			w.logger.Warn().Str("condition", c.Name).Str("category", *c.Category).
				Msg("category not found in lookup table; saving without category")
		}
	}

	var procedureID int64
	if c.DBID == nil {
		id, err := w.repo.InsertProcedure(ctx, &row)
		if err != nil {
			return 0, err
		}
		procedureID = id
		c.DBID = &id
	} else {
		procedureID = *c.DBID
		row.ID = procedureID
		if err := w.repo.UpdateProcedure(ctx, &row); err != nil {
			return 0, err
		}
	}

	log := w.logger.With().Str("condition", c.Name).Int64("procedure_id", procedureID).Logger()
	var lastErr error
	fail := func(step string, err error) {
		log.Error().Err(err).Str("step", step).Msg("condition sub-step failed; continuing")
		lastErr = fmt.Errorf("%s: %w", step, err)
	}

	if err := w.syncPhaseLinks(ctx, procedureID, c, ix); err != nil {
		fail("sync phase links", err)
	}
	if err := w.syncDentistLinks(ctx, procedureID, c, ix); err != nil {
		fail("sync dentist links", err)
	}
	if err := w.resyncRecommendations(ctx, procedureID, c, ix); err != nil {
		fail("resync recommendations", err)
	}
	if err := w.resyncDetails(ctx, procedureID, c, ix); err != nil {
		fail("resync product details", err)
	}
	return procedureID, lastErr
}

// syncPhaseLinks diffs the stored procedure_phases rows against the
// condition's phase list, adding and removing only the delta.
func (w *Writer) syncPhaseLinks(ctx context.Context, procedureID int64, c *Condition, ix *lookup.NameIndex) error {
	desired := w.resolveIDs(c.Name, "phase", c.Phases, ix.Phases)
	current, err := w.repo.LinkedPhaseIDs(ctx, procedureID)
	if err != nil {
		return err
	}
	add, remove := diffIDs(current, desired)
	if err := w.repo.AddPhaseLinks(ctx, procedureID, add); err != nil {
		return err
	}
	return w.repo.RemovePhaseLinks(ctx, procedureID, remove)
}

func (w *Writer) syncDentistLinks(ctx context.Context, procedureID int64, c *Condition, ix *lookup.NameIndex) error {
	desired := w.resolveIDs(c.Name, "dentist type", c.DDS, ix.Dentists)
	current, err := w.repo.LinkedDentistIDs(ctx, procedureID)
	if err != nil {
		return err
	}
	add, remove := diffIDs(current, desired)
	if err := w.repo.AddDentistLinks(ctx, procedureID, add); err != nil {
		return err
	}
	return w.repo.RemoveDentistLinks(ctx, procedureID, remove)
}

// resyncRecommendations flattens patientSpecificConfig into one row per
// (phase, patient type, product) triple, replacing whatever was stored.
func (w *Writer) resyncRecommendations(ctx context.Context, procedureID int64, c *Condition, ix *lookup.NameIndex) error {
	if err := w.repo.DeletePhaseProducts(ctx, procedureID); err != nil {
		return err
	}
	var rows []PhaseProductRow
	for _, phase := range sortedKeys(c.PatientSpecificConfig) {
		phaseID, ok := ix.Phases[phase]
		if !ok {
			w.logger.Warn().Str("condition", c.Name).Str("phase", phase).
				Msg("recommendation phase not found in lookup table; skipping")
			continue
		}
		perType := c.PatientSpecificConfig[phase]
		for _, patientType := range sortedKeys(perType) {
			ptID, ok := ix.PatientTypes[patientType]
			if !ok {
				w.logger.Warn().Str("condition", c.Name).Str("patient_type", patientType).
					Msg("recommendation patient type not found in lookup table; skipping")
				continue
			}
			for _, product := range perType[patientType] {
				productID, ok := ix.Products[product]
				if !ok {
					w.logger.Warn().Str("condition", c.Name).Str("product", product).
						Msg("recommended product not found in lookup table; skipping")
					continue
				}
				id := ptID
				rows = append(rows, PhaseProductRow{
					ProcedureID:   procedureID,
					PhaseID:       phaseID,
					ProductID:     productID,
					PatientTypeID: &id,
				})
			}
		}
	}
	return w.repo.InsertPhaseProducts(ctx, rows)
}

// resyncDetails rewrites the product_details, phase_specific_usage and
// research-article rows for the procedure. Products recommended anywhere in
// patientSpecificConfig but missing from productDetails get a placeholder
// detail row.
func (w *Writer) resyncDetails(ctx context.Context, procedureID int64, c *Condition, ix *lookup.NameIndex) error {
	if err := w.repo.DeleteProductDetails(ctx, procedureID); err != nil {
		return err
	}
	if err := w.repo.DeleteResearch(ctx, procedureID); err != nil {
		return err
	}

	var lastErr error
	for _, product := range w.detailProducts(c) {
		productID, ok := ix.Products[product]
		if !ok {
			w.logger.Warn().Str("condition", c.Name).Str("product", product).
				Msg("detailed product not found in lookup table; skipping")
			continue
		}
		detail := c.ProductDetails[product]
		if detail == nil {
			detail = &ProductDetail{
				ScientificRationale: placeholderDetailText,
				ClinicalEvidence:    placeholderDetailText,
				HandlingObjections:  placeholderDetailText,
				PitchPoints:         placeholderDetailText,
			}
			w.logger.Info().Str("condition", c.Name).Str("product", product).
				Msg("backfilling placeholder detail for recommended product")
		}
		row := ProductDetailRow{
			ProcedureID:         procedureID,
			ProductID:           productID,
			ScientificRationale: detail.ScientificRationale,
			ClinicalEvidence:    detail.ClinicalEvidence,
			HandlingObjections:  detail.HandlingObjections,
			PitchPoints:         detail.PitchPoints,
			FactSheetURL:        detail.FactSheetURL,
		}
		detailID, err := w.repo.InsertProductDetail(ctx, &row)
		if err != nil {
			lastErr = err
			w.logger.Error().Err(err).Str("product", product).Msg("insert product detail failed; continuing")
			continue
		}

		for _, phase := range sortedKeys(detail.Usage) {
			phaseID, ok := ix.Phases[phase]
			if !ok {
				continue
			}
			if err := w.repo.InsertUsage(ctx, detailID, phaseID, detail.Usage[phase]); err != nil {
				lastErr = err
				w.logger.Error().Err(err).Str("product", product).Str("phase", phase).
					Msg("insert usage failed; continuing")
			}
		}

		articles := detail.ResearchArticles
		if len(articles) == 0 {
			articles = c.ConditionSpecificResearch[product]
		}
		var researchRows []ResearchRow
		for _, a := range articles {
			researchRows = append(researchRows, ResearchRow{
				ProcedureID: procedureID,
				ProductID:   productID,
				Title:       a.Title,
				Author:      a.Author,
				Abstract:    a.Abstract,
				URL:         a.URL,
			})
		}
		if err := w.repo.InsertResearch(ctx, researchRows); err != nil {
			lastErr = err
			w.logger.Error().Err(err).Str("product", product).Msg("insert research failed; continuing")
		}
	}
	return lastErr
}

// detailProducts is the union of detailed and recommended product names, in
// stable order.
func (w *Writer) detailProducts(c *Condition) []string {
	seen := map[string]bool{}
	var names []string
	for _, product := range sortedKeys(c.ProductDetails) {
		if !seen[product] {
			seen[product] = true
			names = append(names, product)
		}
	}
	for _, phase := range sortedKeys(c.PatientSpecificConfig) {
		perType := c.PatientSpecificConfig[phase]
		for _, patientType := range sortedKeys(perType) {
			for _, product := range perType[patientType] {
				if !seen[product] {
					seen[product] = true
					names = append(names, product)
				}
			}
		}
	}
	return names
}

func (w *Writer) resolveIDs(condition, kind string, names []string, index map[string]int64) []int64 {
	var ids []int64
	for _, name := range names {
		id, ok := index[name]
		if !ok {
			w.logger.Warn().Str("condition", condition).Str("kind", kind).Str("name", name).
				Msg("lookup name not found; skipping")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// diffIDs returns the IDs to add (desired but not current) and to remove
// (current but not desired).
func diffIDs(current, desired []int64) (add, remove []int64) {
	have := make(map[int64]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	want := make(map[int64]bool, len(desired))
	for _, id := range desired {
		want[id] = true
		if !have[id] {
			add = append(add, id)
		}
	}
	for _, id := range current {
		if !want[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
