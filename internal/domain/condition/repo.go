package condition

import "context"

// ProcedureRow maps to the procedures table. CategoryName is hydrated from the
// categories join on read and ignored on write.
type ProcedureRow struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	CategoryID   *int64  `db:"category_id" json:"category_id,omitempty"`
	CategoryName *string `db:"category_name" json:"-"`
	PitchPoints  string  `db:"pitch_points" json:"pitch_points"`
	PatientType  string  `db:"patient_type" json:"patient_type"`
}

// PhaseLinkRow maps to procedure_phases.
type PhaseLinkRow struct {
	ProcedureID int64 `db:"procedure_id" json:"procedure_id"`
	PhaseID     int64 `db:"phase_id" json:"phase_id"`
}

// DentistLinkRow maps to procedure_dentists.
type DentistLinkRow struct {
	ProcedureID int64 `db:"procedure_id" json:"procedure_id"`
	DentistID   int64 `db:"dentist_id" json:"dentist_id"`
}

// PhaseProductRow maps to procedure_phase_products: one recommendation per
// (phase, patient type, product) triple. PatientTypeID may be NULL on legacy
// rows.
type PhaseProductRow struct {
	ProcedureID   int64  `db:"procedure_id" json:"procedure_id"`
	PhaseID       int64  `db:"phase_id" json:"phase_id"`
	ProductID     int64  `db:"product_id" json:"product_id"`
	PatientTypeID *int64 `db:"patient_type_id" json:"patient_type_id,omitempty"`
}

// ProductDetailRow maps to product_details.
type ProductDetailRow struct {
	ID                  int64  `db:"id" json:"id"`
	ProcedureID         int64  `db:"procedure_id" json:"procedure_id"`
	ProductID           int64  `db:"product_id" json:"product_id"`
	ScientificRationale string `db:"scientific_rationale" json:"scientific_rationale"`
	ClinicalEvidence    string `db:"clinical_evidence" json:"clinical_evidence"`
	HandlingObjections  string `db:"handling_objections" json:"handling_objections"`
	PitchPoints         string `db:"pitch_points" json:"pitch_points"`
	FactSheetURL        string `db:"fact_sheet_url" json:"fact_sheet_url"`
}

// UsageRow maps to phase_specific_usage, denormalized with the owning
// procedure and product on read so assembly needs no extra join.
type UsageRow struct {
	ProductDetailID int64  `db:"product_detail_id" json:"product_detail_id"`
	ProcedureID     int64  `db:"procedure_id" json:"procedure_id"`
	ProductID       int64  `db:"product_id" json:"product_id"`
	PhaseID         int64  `db:"phase_id" json:"phase_id"`
	Instructions    string `db:"instructions" json:"instructions"`
}

// ResearchRow maps to condition_product_research_articles.
type ResearchRow struct {
	ID          int64  `db:"id" json:"id"`
	ProcedureID int64  `db:"procedure_id" json:"procedure_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	Title       string `db:"title" json:"title"`
	Author      string `db:"author" json:"author"`
	Abstract    string `db:"abstract" json:"abstract"`
	URL         string `db:"url" json:"url"`
}

// Repository is the table-level access surface for the condition aggregate.
// Reads are full-table scans assembled in memory (one round-trip set, never
// N+1 per condition).
type Repository interface {
	ListProcedures(ctx context.Context) ([]ProcedureRow, error)
	ListPhaseLinks(ctx context.Context) ([]PhaseLinkRow, error)
	ListDentistLinks(ctx context.Context) ([]DentistLinkRow, error)
	ListPhaseProducts(ctx context.Context) ([]PhaseProductRow, error)
	ListProductDetails(ctx context.Context) ([]ProductDetailRow, error)
	ListUsage(ctx context.Context) ([]UsageRow, error)
	ListResearch(ctx context.Context) ([]ResearchRow, error)

	InsertProcedure(ctx context.Context, row *ProcedureRow) (int64, error)
	UpdateProcedure(ctx context.Context, row *ProcedureRow) error
	// DeleteProcedure removes the procedure and all of its child rows.
	DeleteProcedure(ctx context.Context, id int64) error

	// Diff-based join table sync (procedure_phases, procedure_dentists).
	LinkedPhaseIDs(ctx context.Context, procedureID int64) ([]int64, error)
	AddPhaseLinks(ctx context.Context, procedureID int64, phaseIDs []int64) error
	RemovePhaseLinks(ctx context.Context, procedureID int64, phaseIDs []int64) error
	LinkedDentistIDs(ctx context.Context, procedureID int64) ([]int64, error)
	AddDentistLinks(ctx context.Context, procedureID int64, dentistIDs []int64) error
	RemoveDentistLinks(ctx context.Context, procedureID int64, dentistIDs []int64) error

	// Delete-then-reinsert child rows, scoped to one procedure.
	DeletePhaseProducts(ctx context.Context, procedureID int64) error
	InsertPhaseProducts(ctx context.Context, rows []PhaseProductRow) error
	// DeleteProductDetails also removes the detail rows' usage children.
	DeleteProductDetails(ctx context.Context, procedureID int64) error
	InsertProductDetail(ctx context.Context, row *ProductDetailRow) (int64, error)
	InsertUsage(ctx context.Context, productDetailID, phaseID int64, instructions string) error
	DeleteResearch(ctx context.Context, procedureID int64) error
	InsertResearch(ctx context.Context, rows []ResearchRow) error
}
