// Package transfer implements whole-store JSON export and import, format
// version 2.0. Export snapshots every table; import validates the document
// and atomically replaces the store contents.
package transfer

import (
	"time"

	"github.com/dentiq/therawizard/internal/domain/condition"
	"github.com/dentiq/therawizard/internal/domain/lookup"
)

// FormatVersion is the only document version import accepts.
const FormatVersion = "2.0"

const applicationName = "Therapeutic Wizard"

// Metadata is the export_metadata block of a transfer document.
type Metadata struct {
	ExportedAt      time.Time `json:"exported_at"`
	Version         string    `json:"version"`
	Application     string    `json:"application"`
	TotalProcedures int       `json:"total_procedures"`
	TotalProducts   int       `json:"total_products"`
	TotalCategories int       `json:"total_categories"`
	ExportedTables  []string  `json:"exported_tables"`
}

// UsageRow is the raw phase_specific_usage row shape used on the wire.
type UsageRow struct {
	ProductDetailID int64  `db:"product_detail_id" json:"product_detail_id"`
	PhaseID         int64  `db:"phase_id" json:"phase_id"`
	Instructions    string `db:"instructions" json:"instructions"`
}

// CompetitorRow maps to competitive_advantage_competitors.
type CompetitorRow struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Notes string `db:"notes" json:"notes"`
}

// ActiveIngredientRow maps to competitive_advantage_active_ingredients.
type ActiveIngredientRow struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Notes string `db:"notes" json:"notes"`
}

// Tables holds the raw row arrays, one JSON key per exported table.
type Tables struct {
	Categories        []lookup.Category             `json:"categories"`
	Dentists          []lookup.DentistType          `json:"dentists"`
	Phases            []lookup.Phase                `json:"phases"`
	PatientTypes      []lookup.PatientType          `json:"patient_types"`
	Products          []lookup.Product              `json:"products"`
	Procedures        []condition.ProcedureRow      `json:"procedures"`
	ProcedurePhases   []condition.PhaseLinkRow      `json:"procedure_phases"`
	ProcedureDentists []condition.DentistLinkRow    `json:"procedure_dentists"`
	PhaseProducts     []condition.PhaseProductRow   `json:"procedure_phase_products"`
	ProductDetails    []condition.ProductDetailRow  `json:"product_details"`
	Usage             []UsageRow                    `json:"phase_specific_usage"`
	Research          []condition.ResearchRow       `json:"condition_product_research_articles"`
}

// CompetitiveAdvantage is the competitive_advantage block.
type CompetitiveAdvantage struct {
	Competitors       []CompetitorRow       `json:"competitors"`
	ActiveIngredients []ActiveIngredientRow `json:"active_ingredients"`
}

// Dataset is everything a snapshot or restore touches.
type Dataset struct {
	Tables
	CompetitiveAdvantage CompetitiveAdvantage
}

// Document is the wire format: metadata, the inlined table arrays and the
// competitive advantage block.
type Document struct {
	ExportMetadata Metadata `json:"export_metadata"`
	Tables
	CompetitiveAdvantage CompetitiveAdvantage `json:"competitive_advantage"`
}

// exportedTables is the canonical table list recorded in the metadata.
var exportedTables = []string{
	"categories",
	"dentists",
	"phases",
	"patient_types",
	"products",
	"procedures",
	"procedure_phases",
	"procedure_dentists",
	"procedure_phase_products",
	"product_details",
	"phase_specific_usage",
	"condition_product_research_articles",
	"competitive_advantage_competitors",
	"competitive_advantage_active_ingredients",
}
