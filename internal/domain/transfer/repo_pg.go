package transfer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentiq/therawizard/internal/domain/condition"
	"github.com/dentiq/therawizard/internal/domain/lookup"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Snapshot(ctx context.Context) (*Dataset, error) {
	var (
		ds  Dataset
		err error
	)
	if ds.Categories, err = collect(ctx, r.pool, `SELECT id, name FROM categories ORDER BY id`,
		func(row pgx.Rows) (lookup.Category, error) {
			var v lookup.Category
			return v, row.Scan(&v.ID, &v.Name)
		}); err != nil {
		return nil, fmt.Errorf("snapshot categories: %w", err)
	}
	if ds.Dentists, err = collect(ctx, r.pool, `SELECT id, name FROM dentists ORDER BY id`,
		func(row pgx.Rows) (lookup.DentistType, error) {
			var v lookup.DentistType
			return v, row.Scan(&v.ID, &v.Name)
		}); err != nil {
		return nil, fmt.Errorf("snapshot dentists: %w", err)
	}
	if ds.Phases, err = collect(ctx, r.pool, `SELECT id, name FROM phases ORDER BY id`,
		func(row pgx.Rows) (lookup.Phase, error) {
			var v lookup.Phase
			return v, row.Scan(&v.ID, &v.Name)
		}); err != nil {
		return nil, fmt.Errorf("snapshot phases: %w", err)
	}
	if ds.PatientTypes, err = collect(ctx, r.pool, `SELECT id, name, description FROM patient_types ORDER BY id`,
		func(row pgx.Rows) (lookup.PatientType, error) {
			var v lookup.PatientType
			return v, row.Scan(&v.ID, &v.Name, &v.Description)
		}); err != nil {
		return nil, fmt.Errorf("snapshot patient_types: %w", err)
	}
	if ds.Products, err = collect(ctx, r.pool, `SELECT id, name, is_available FROM products ORDER BY id`,
		func(row pgx.Rows) (lookup.Product, error) {
			var v lookup.Product
			return v, row.Scan(&v.ID, &v.Name, &v.IsAvailable)
		}); err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}
	if ds.Procedures, err = collect(ctx, r.pool,
		`SELECT id, name, category_id, pitch_points, patient_type FROM procedures ORDER BY id`,
		func(row pgx.Rows) (condition.ProcedureRow, error) {
			var v condition.ProcedureRow
			return v, row.Scan(&v.ID, &v.Name, &v.CategoryID, &v.PitchPoints, &v.PatientType)
		}); err != nil {
		return nil, fmt.Errorf("snapshot procedures: %w", err)
	}
	if ds.ProcedurePhases, err = collect(ctx, r.pool,
		`SELECT procedure_id, phase_id FROM procedure_phases ORDER BY procedure_id, phase_id`,
		func(row pgx.Rows) (condition.PhaseLinkRow, error) {
			var v condition.PhaseLinkRow
			return v, row.Scan(&v.ProcedureID, &v.PhaseID)
		}); err != nil {
		return nil, fmt.Errorf("snapshot procedure_phases: %w", err)
	}
	if ds.ProcedureDentists, err = collect(ctx, r.pool,
		`SELECT procedure_id, dentist_id FROM procedure_dentists ORDER BY procedure_id, dentist_id`,
		func(row pgx.Rows) (condition.DentistLinkRow, error) {
			var v condition.DentistLinkRow
			return v, row.Scan(&v.ProcedureID, &v.DentistID)
		}); err != nil {
		return nil, fmt.Errorf("snapshot procedure_dentists: %w", err)
	}
	if ds.PhaseProducts, err = collect(ctx, r.pool,
		`SELECT procedure_id, phase_id, product_id, patient_type_id FROM procedure_phase_products ORDER BY procedure_id`,
		func(row pgx.Rows) (condition.PhaseProductRow, error) {
			var v condition.PhaseProductRow
			return v, row.Scan(&v.ProcedureID, &v.PhaseID, &v.ProductID, &v.PatientTypeID)
		}); err != nil {
		return nil, fmt.Errorf("snapshot procedure_phase_products: %w", err)
	}
	if ds.ProductDetails, err = collect(ctx, r.pool, `
		SELECT id, procedure_id, product_id, scientific_rationale, clinical_evidence,
			handling_objections, pitch_points, fact_sheet_url
		FROM product_details ORDER BY id`,
		func(row pgx.Rows) (condition.ProductDetailRow, error) {
			var v condition.ProductDetailRow
			return v, row.Scan(&v.ID, &v.ProcedureID, &v.ProductID, &v.ScientificRationale,
				&v.ClinicalEvidence, &v.HandlingObjections, &v.PitchPoints, &v.FactSheetURL)
		}); err != nil {
		return nil, fmt.Errorf("snapshot product_details: %w", err)
	}
	if ds.Usage, err = collect(ctx, r.pool,
		`SELECT product_detail_id, phase_id, instructions FROM phase_specific_usage ORDER BY product_detail_id`,
		func(row pgx.Rows) (UsageRow, error) {
			var v UsageRow
			return v, row.Scan(&v.ProductDetailID, &v.PhaseID, &v.Instructions)
		}); err != nil {
		return nil, fmt.Errorf("snapshot phase_specific_usage: %w", err)
	}
	if ds.Research, err = collect(ctx, r.pool, `
		SELECT id, procedure_id, product_id, title, author, abstract, url
		FROM condition_product_research_articles ORDER BY id`,
		func(row pgx.Rows) (condition.ResearchRow, error) {
			var v condition.ResearchRow
			return v, row.Scan(&v.ID, &v.ProcedureID, &v.ProductID, &v.Title, &v.Author, &v.Abstract, &v.URL)
		}); err != nil {
		return nil, fmt.Errorf("snapshot research articles: %w", err)
	}
	if ds.CompetitiveAdvantage.Competitors, err = collect(ctx, r.pool,
		`SELECT id, name, notes FROM competitive_advantage_competitors ORDER BY id`,
		func(row pgx.Rows) (CompetitorRow, error) {
			var v CompetitorRow
			return v, row.Scan(&v.ID, &v.Name, &v.Notes)
		}); err != nil {
		return nil, fmt.Errorf("snapshot competitors: %w", err)
	}
	if ds.CompetitiveAdvantage.ActiveIngredients, err = collect(ctx, r.pool,
		`SELECT id, name, notes FROM competitive_advantage_active_ingredients ORDER BY id`,
		func(row pgx.Rows) (ActiveIngredientRow, error) {
			var v ActiveIngredientRow
			return v, row.Scan(&v.ID, &v.Name, &v.Notes)
		}); err != nil {
		return nil, fmt.Errorf("snapshot active ingredients: %w", err)
	}
	return &ds, nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, query string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// wipeOrder deletes children before parents.
var wipeOrder = []string{
	"phase_specific_usage",
	"product_details",
	"condition_product_research_articles",
	"procedure_phase_products",
	"procedure_phases",
	"procedure_dentists",
	"procedures",
	"products",
	"patient_types",
	"phases",
	"dentists",
	"categories",
	"competitive_advantage_competitors",
	"competitive_advantage_active_ingredients",
}

// serialTables need their sequences realigned after an explicit-ID reload.
var serialTables = []string{
	"categories", "dentists", "phases", "patient_types", "products",
	"procedures", "product_details", "condition_product_research_articles",
	"competitive_advantage_competitors", "competitive_advantage_active_ingredients",
}

func (r *repoPG) Restore(ctx context.Context, ds *Dataset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range wipeOrder {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	for _, v := range ds.Categories {
		if _, err := tx.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, v.ID, v.Name); err != nil {
			return fmt.Errorf("restore categories: %w", err)
		}
	}
	for _, v := range ds.Dentists {
		if _, err := tx.Exec(ctx, `INSERT INTO dentists (id, name) VALUES ($1, $2)`, v.ID, v.Name); err != nil {
			return fmt.Errorf("restore dentists: %w", err)
		}
	}
	for _, v := range ds.Phases {
		if _, err := tx.Exec(ctx, `INSERT INTO phases (id, name) VALUES ($1, $2)`, v.ID, v.Name); err != nil {
			return fmt.Errorf("restore phases: %w", err)
		}
	}
	for _, v := range ds.PatientTypes {
		if _, err := tx.Exec(ctx, `INSERT INTO patient_types (id, name, description) VALUES ($1, $2, $3)`,
			v.ID, v.Name, v.Description); err != nil {
			return fmt.Errorf("restore patient_types: %w", err)
		}
	}
	for _, v := range ds.Products {
		if _, err := tx.Exec(ctx, `INSERT INTO products (id, name, is_available) VALUES ($1, $2, $3)`,
			v.ID, v.Name, v.IsAvailable); err != nil {
			return fmt.Errorf("restore products: %w", err)
		}
	}
	for _, v := range ds.Procedures {
		if _, err := tx.Exec(ctx, `
			INSERT INTO procedures (id, name, category_id, pitch_points, patient_type)
			VALUES ($1, $2, $3, $4, $5)`,
			v.ID, v.Name, v.CategoryID, v.PitchPoints, v.PatientType); err != nil {
			return fmt.Errorf("restore procedures: %w", err)
		}
	}
	for _, v := range ds.ProcedurePhases {
		if _, err := tx.Exec(ctx, `INSERT INTO procedure_phases (procedure_id, phase_id) VALUES ($1, $2)`,
			v.ProcedureID, v.PhaseID); err != nil {
			return fmt.Errorf("restore procedure_phases: %w", err)
		}
	}
	for _, v := range ds.ProcedureDentists {
		if _, err := tx.Exec(ctx, `INSERT INTO procedure_dentists (procedure_id, dentist_id) VALUES ($1, $2)`,
			v.ProcedureID, v.DentistID); err != nil {
			return fmt.Errorf("restore procedure_dentists: %w", err)
		}
	}
	for _, v := range ds.PhaseProducts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO procedure_phase_products (procedure_id, phase_id, product_id, patient_type_id)
			VALUES ($1, $2, $3, $4)`,
			v.ProcedureID, v.PhaseID, v.ProductID, v.PatientTypeID); err != nil {
			return fmt.Errorf("restore procedure_phase_products: %w", err)
		}
	}
	for _, v := range ds.ProductDetails {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_details (id, procedure_id, product_id, scientific_rationale,
				clinical_evidence, handling_objections, pitch_points, fact_sheet_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID, v.ProcedureID, v.ProductID, v.ScientificRationale,
			v.ClinicalEvidence, v.HandlingObjections, v.PitchPoints, v.FactSheetURL); err != nil {
			return fmt.Errorf("restore product_details: %w", err)
		}
	}
	for _, v := range ds.Usage {
		if _, err := tx.Exec(ctx, `
			INSERT INTO phase_specific_usage (product_detail_id, phase_id, instructions)
			VALUES ($1, $2, $3)`,
			v.ProductDetailID, v.PhaseID, v.Instructions); err != nil {
			return fmt.Errorf("restore phase_specific_usage: %w", err)
		}
	}
	for _, v := range ds.Research {
		if _, err := tx.Exec(ctx, `
			INSERT INTO condition_product_research_articles
				(id, procedure_id, product_id, title, author, abstract, url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			v.ID, v.ProcedureID, v.ProductID, v.Title, v.Author, v.Abstract, v.URL); err != nil {
			return fmt.Errorf("restore research articles: %w", err)
		}
	}
	for _, v := range ds.CompetitiveAdvantage.Competitors {
		if _, err := tx.Exec(ctx,
			`INSERT INTO competitive_advantage_competitors (id, name, notes) VALUES ($1, $2, $3)`,
			v.ID, v.Name, v.Notes); err != nil {
			return fmt.Errorf("restore competitors: %w", err)
		}
	}
	for _, v := range ds.CompetitiveAdvantage.ActiveIngredients {
		if _, err := tx.Exec(ctx,
			`INSERT INTO competitive_advantage_active_ingredients (id, name, notes) VALUES ($1, $2, $3)`,
			v.ID, v.Name, v.Notes); err != nil {
			return fmt.Errorf("restore active ingredients: %w", err)
		}
	}

	for _, table := range serialTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))`,
			table, table)); err != nil {
			return fmt.Errorf("realign %s sequence: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}
