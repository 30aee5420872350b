package condition

// DerivedAllKey is the synthetic per-phase patient-type bucket the UI shows:
// the set of products common to every real patient type for that phase. It is
// computed on read and must never be persisted.
const DerivedAllKey = "all"

// ResearchArticle is one supporting publication attached to a product.
type ResearchArticle struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
}

// ProductDetail carries the per-product text blocks shown on the product tab.
type ProductDetail struct {
	Usage               map[string]string `json:"usage"` // phase name → instructions
	ScientificRationale string            `json:"scientificRationale"`
	ClinicalEvidence    string            `json:"clinicalEvidence"`
	HandlingObjections  string            `json:"handlingObjections"`
	PitchPoints         string            `json:"pitchPoints"`
	FactSheetURL        string            `json:"factSheetUrl"`
	ResearchArticles    []ResearchArticle `json:"researchArticles"`
}

// Condition is the denormalized clinical condition aggregate. It is assembled
// from procedures plus its join tables on read, and decomposed back into the
// same tables on write. DBID is nil for a locally created, never-saved
// condition; the store assigns it on first insert.
type Condition struct {
	DBID        *int64  `json:"db_id,omitempty"`
	Name        string  `json:"name"`
	Category    *string `json:"category"`
	PitchPoints string  `json:"pitchPoints"`
	PatientType string  `json:"patientType"`

	// Condition-level fallback text, populated from the first product detail
	// row on read for older UI surfaces. Truly per-product in the store.
	ScientificRationale string `json:"scientificRationale"`
	ClinicalEvidence    string `json:"clinicalEvidence"`
	HandlingObjections  string `json:"handlingObjections"`

	Phases []string `json:"phases"`
	DDS    []string `json:"dds"`

	// phase name → patient type name → recommended product names
	PatientSpecificConfig map[string]map[string][]string `json:"patientSpecificConfig"`

	ProductDetails            map[string]*ProductDetail    `json:"productDetails"`
	ConditionSpecificResearch map[string][]ResearchArticle `json:"conditionSpecificResearch"`
}

// CommonProducts returns the products present in every real patient-type
// bucket of one phase, in the order they appear in the first patient type by
// name. The derived "all" key itself is ignored.
func CommonProducts(perType map[string][]string) []string {
	var common []string
	first := true
	for _, name := range sortedKeys(perType) {
		if name == DerivedAllKey {
			continue
		}
		products := perType[name]
		if first {
			common = append([]string(nil), products...)
			first = false
			continue
		}
		member := make(map[string]bool, len(products))
		for _, p := range products {
			member[p] = true
		}
		kept := common[:0]
		for _, p := range common {
			if member[p] {
				kept = append(kept, p)
			}
		}
		common = kept
	}
	return common
}

// WithDerivedAll returns a copy of the per-phase config with the synthetic
// "all" bucket added to each phase.
func WithDerivedAll(cfg map[string]map[string][]string) map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(cfg))
	for phase, perType := range cfg {
		cp := make(map[string][]string, len(perType)+1)
		for pt, products := range perType {
			if pt == DerivedAllKey {
				continue
			}
			cp[pt] = append([]string(nil), products...)
		}
		cp[DerivedAllKey] = CommonProducts(perType)
		out[phase] = cp
	}
	return out
}

// StripDerived removes every synthetic "all" bucket so it is never written to
// the store as a real patient-type row.
func (c *Condition) StripDerived() {
	for _, perType := range c.PatientSpecificConfig {
		delete(perType, DerivedAllKey)
	}
}

// appendUnique appends name to products unless it is already present.
func appendUnique(products []string, name string) []string {
	for _, p := range products {
		if p == name {
			return products
		}
	}
	return append(products, name)
}
